package cache

import (
	"sync"
	"time"
)

// entry is a single cached value with its expiry metadata.
type entry struct {
	value     interface{}
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry's TTL has elapsed.
func (e entry) expired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// Cache is a capacity-bounded TTL cache. At capacity, the entry with the
// oldest createdAt is evicted; reads do not refresh entry age. Expired
// entries are dropped lazily on Get and by Sweep, which the scheduler runs
// on a fixed interval. All operations are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	maxSize int
	clock   func() time.Time
}

// Stats reports cache occupancy for the dashboard endpoint.
type Stats struct {
	TotalItems   int     `json:"total_items"`
	ActiveItems  int     `json:"active_items"`
	ExpiredItems int     `json:"expired_items"`
	MaxSize      int     `json:"max_size"`
	Usage        float64 `json:"usage_percentage"`
}

// New creates a cache holding at most maxSize entries.
func New(maxSize int) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		maxSize: maxSize,
		clock:   time.Now,
	}
}

// Set stores value under key with the given TTL, evicting the oldest
// entry first when the cache is full.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{value: value, createdAt: c.clock(), ttl: ttl}
}

// Get returns the cached value, or (nil, false) if absent or expired.
// Expired entries are removed on access.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(c.clock()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Delete removes key from the cache. Returns true if it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Sweep removes all expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetStats returns a snapshot of cache occupancy.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	expired := 0
	for _, e := range c.entries {
		if e.expired(now) {
			expired++
		}
	}

	total := len(c.entries)
	stats := Stats{
		TotalItems:   total,
		ActiveItems:  total - expired,
		ExpiredItems: expired,
		MaxSize:      c.maxSize,
	}
	if c.maxSize > 0 {
		stats.Usage = float64(total) / float64(c.maxSize) * 100
	}
	return stats
}

// evictOldestLocked drops the entry with the oldest createdAt.
// Caller must hold the mutex.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, e := range c.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.createdAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
