package worker

import (
	"context"

	"github.com/disblox/disblox/internal/cache"
	"github.com/disblox/disblox/internal/logger"
)

// CacheSweepJob evicts expired cache entries on an interval so the cache
// does not fill with dead OAuth states and stale profiles.
type CacheSweepJob struct {
	dataCache *cache.Cache
}

// NewCacheSweepJob creates the cache sweep job
func NewCacheSweepJob(dataCache *cache.Cache) *CacheSweepJob {
	return &CacheSweepJob{dataCache: dataCache}
}

// Process runs one sweep
func (j *CacheSweepJob) Process(ctx context.Context) error {
	dropped := j.dataCache.Sweep()
	if dropped > 0 {
		logger.FromContext(ctx).Debug(LogMsgCacheSweepCompleted, "dropped", dropped)
	}
	return nil
}
