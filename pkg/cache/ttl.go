package cache

import (
	"sync"
	"time"
)

// TTL remembers keys for a fixed max age. It replaces ad-hoc "recently seen"
// maps: callers construct one and pass it where dedup is needed.
type TTL struct {
	maxAge time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewTTL creates a cache whose entries expire maxAge after they were marked.
func NewTTL(maxAge time.Duration) *TTL {
	return &TTL{
		maxAge:  maxAge,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

// WithClock overrides the time source, for tests.
func (c *TTL) WithClock(now func() time.Time) *TTL {
	c.now = now
	return c
}

// SeenOrMark reports whether key was marked within maxAge. If it was not, the
// key is marked now.
func (c *TTL) SeenOrMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.evictLocked(now)

	if _, ok := c.entries[key]; ok {
		return true
	}
	c.entries[key] = now
	return false
}

// Len returns the number of live entries.
func (c *TTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(c.now())
	return len(c.entries)
}

func (c *TTL) evictLocked(now time.Time) {
	for k, markedAt := range c.entries {
		if now.Sub(markedAt) >= c.maxAge {
			delete(c.entries, k)
		}
	}
}
