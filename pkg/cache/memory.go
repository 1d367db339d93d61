package cache

import (
	"context"
	"sync"
	"time"

	"meetup-library/pkg/clock"
)

type entry struct {
	value      []byte
	expiration time.Time
	tags       []string
}

// MemoryCache is an in-process Cache. Expiry is evaluated against the injected clock.
type MemoryCache struct {
	mu      sync.RWMutex
	clock   clock.Clock
	entries map[string]*entry
	tags    map[string]map[string]struct{}
	stats   Stats
}

// NewMemoryCache creates an empty cache. A nil clock means the system clock.
func NewMemoryCache(c clock.Clock) *MemoryCache {
	if c == nil {
		c = clock.System{}
	}
	return &MemoryCache{
		clock:   c,
		entries: make(map[string]*entry),
		tags:    make(map[string]map[string]struct{}),
	}
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		c.stats.Misses++
		return nil, false
	}
	if !c.clock.Now().Before(e.expiration) {
		c.removeLocked(key)
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return e.value, true
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	c.entries[key] = &entry{
		value:      value,
		expiration: c.clock.Now().Add(ttl),
		tags:       tags,
	}
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	c.stats.Sets++
}

// InvalidateTag drops every entry stored under tag.
func (c *MemoryCache) InvalidateTag(_ context.Context, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.tags[tag] {
		c.removeLocked(key)
	}
	delete(c.tags, tag)
	return nil
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.CurrentSize = len(c.entries)
	return s
}

func (c *MemoryCache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	for _, tag := range e.tags {
		if keys, ok := c.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.tags, tag)
			}
		}
	}
	delete(c.entries, key)
}
