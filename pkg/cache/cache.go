// Package cache provides a small in-process TTL cache fronting store reads.
// Entries expire after a fixed TTL and the least recently used entry is
// evicted at capacity. Writers must invalidate after every mutation.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a TTL + LRU cache keyed by string.
type Cache[V any] struct {
	lru    *expirable.LRU[string, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats summarizes cache effectiveness for the health monitor.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Len     int     `json:"len"`
	HitRate float64 `json:"hitRate"`
}

// New creates a cache holding at most size entries for at most ttl each.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache[V]{
		lru: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the cached value and whether it was present and fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Add stores a value under key.
func (c *Cache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}

// Invalidate drops a single key. Safe to call for keys never cached.
func (c *Cache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

// Purge drops everything.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Stats returns a point-in-time snapshot of the counters.
func (c *Cache[V]) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{Hits: hits, Misses: misses, Len: c.lru.Len()}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}
