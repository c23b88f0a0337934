package graph

import (
	"sync"
	"time"
)

// DefaultTTL is how long a built graph is served before a rebuild.
const DefaultTTL = 30 * time.Minute

// Cache holds the current graph behind a single writer lock. The cached
// graph is replaced wholesale, never patched: readers of a not-yet-replaced
// cache keep seeing the previous consistent graph, and when several
// discovery runs race the last writer wins.
type Cache struct {
	mu    sync.RWMutex
	graph *Graph
	ttl   time.Duration
}

// NewCache creates a cache with the given TTL; non-positive means
// DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl}
}

// Get returns the cached graph if one exists and its TTL has not elapsed.
func (c *Cache) Get() (*Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.graph == nil {
		return nil, false
	}
	if time.Since(c.graph.BuiltAt()) > c.ttl {
		return nil, false
	}
	return c.graph, true
}

// Current returns the cached graph regardless of freshness, for
// inspection endpoints.
func (c *Cache) Current() (*Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph, c.graph != nil
}

// Replace atomically swaps in a newly built graph.
func (c *Cache) Replace(g *Graph) {
	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}
