package proxy

import "sync"

// DurationCache maps a queue-entry key to its duration in whole seconds,
// populated opportunistically by the proxy and read by the status poller.
// Entries are never evicted within an engine context's lifetime.
type DurationCache struct {
	mu    sync.Mutex
	value map[string]int
}

// NewDurationCache creates an empty cache.
func NewDurationCache() *DurationCache {
	return &DurationCache{value: make(map[string]int)}
}

// Get returns the cached duration for key, or (0, false) if absent.
func (c *DurationCache) Get(key string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.value[key]
	return v, ok
}

// Set records the duration for key, overwriting any prior value.
func (c *DurationCache) Set(key string, seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value[key] = seconds
}
