// Package dnscache provides a thread-safe, TTL-based cache for DNS outcomes
// with singleflight deduplication for concurrent requests to the same key.
//
// Caching is opt-in: mail routing changes, so a cached outcome may be stale
// for up to the configured TTL and callers must disclose when one was used.
package dnscache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a thread-safe DNS outcome cache.
// Concurrent loads for the same key are deduplicated:
// only one actual lookup runs, and all waiters receive its result.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time // injectable for testing
}

type entry struct {
	value   any
	expires time.Time
}

// New creates a cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewWithClock creates a cache driven by the given clock (for testing).
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	c := New(ttl)
	c.now = now
	return c
}

// Do returns the cached value for key, or calls load to produce it.
// load reports whether its result may be stored; transient failures such
// as timeouts should not be. The second return value is true when the
// value came from the cache rather than a fresh lookup.
func Do[T any](c *Cache, key string, load func() (T, bool)) (T, bool) {
	if v, ok := c.get(key); ok {
		if tv, ok := v.(T); ok {
			return tv, true
		}
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		val, store := load()
		if store {
			c.put(key, val)
		}
		return val, nil
	})
	return v.(T), false
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: v, expires: c.now().Add(c.ttl)}
}

// Len returns the number of entries in the cache (for diagnostics).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
