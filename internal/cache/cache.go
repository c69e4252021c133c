// v2
// internal/cache/cache.go
package cache

import (
	"sync"
	"time"
)

// Observer is notified of every lookup outcome.
type Observer interface {
	CacheHit(name string)
	CacheMiss(name string)
}

type entry[T any] struct {
	val T
	tag string
	exp time.Time
}

// Cache is a TTL map with tag-based invalidation. It is safe for concurrent
// use.
type Cache[T any] struct {
	name string
	mu   sync.RWMutex
	m    map[string]entry[T]
	ttl  time.Duration
	obs  Observer
	now  func() time.Time
}

// New builds a cache whose entries live for ttl. A non-positive ttl disables
// caching: every Get misses.
func New[T any](name string, ttl time.Duration, obs Observer) *Cache[T] {
	return &Cache[T]{name: name, m: make(map[string]entry[T]), ttl: ttl, obs: obs, now: time.Now}
}

// Get returns the live value stored under key.
func (c *Cache[T]) Get(key string) (T, bool) {
	var zero T
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.exp) {
		if c.obs != nil {
			c.obs.CacheMiss(c.name)
		}
		return zero, false
	}
	if c.obs != nil {
		c.obs.CacheHit(c.name)
	}
	return e.val, true
}

// Set stores v under key, tagged for bulk invalidation.
func (c *Cache[T]) Set(key, tag string, v T) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.m[key] = entry[T]{val: v, tag: tag, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// InvalidateTag drops every entry carrying tag and returns how many were
// removed.
func (c *Cache[T]) InvalidateTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.m {
		if e.tag == tag {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Prune drops expired entries.
func (c *Cache[T]) Prune() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
