package cache

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window limit per logical endpoint key.
// It protects outbound Roblox API calls from bursting during mass
// reconciliation, e.g. when a login fans out sync across many guilds.
type RateLimiter struct {
	mu    sync.Mutex
	calls map[string][]time.Time
	clock func() time.Time
}

// NewRateLimiter creates an empty rate limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		calls: make(map[string][]time.Time),
		clock: time.Now,
	}
}

// Allow records an attempt against endpoint and reports whether it is
// permitted: after pruning timestamps older than window, fewer than limit
// must remain. Denied attempts are not recorded.
func (r *RateLimiter) Allow(endpoint string, limit int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	recent := r.calls[endpoint][:0]
	for _, ts := range r.calls[endpoint] {
		if now.Sub(ts) < window {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= limit {
		r.calls[endpoint] = recent
		return false
	}

	r.calls[endpoint] = append(recent, now)
	return true
}

// Remaining returns how many calls endpoint has left in the window.
func (r *RateLimiter) Remaining(endpoint string, limit int, window time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	active := 0
	for _, ts := range r.calls[endpoint] {
		if now.Sub(ts) < window {
			active++
		}
	}
	if active >= limit {
		return 0
	}
	return limit - active
}

// Reset clears all recorded calls for endpoint.
func (r *RateLimiter) Reset(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, endpoint)
}
