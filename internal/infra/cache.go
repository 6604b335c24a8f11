package infra

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// CacheEntry holds one memoized value.
type CacheEntry struct {
	Data any
	Key  string
}

// Cache is an unbounded memo store keyed by string. Entries never expire;
// they leave the store only through Delete, DeletePrefix or Clear.
type Cache struct {
	entries sync.Map // key (string) -> *CacheEntry
	count   int64    // Atomic counter for cache size

	// epoch advances on every invalidation so that computations started
	// before a clear never write their (now stale) result back.
	epoch atomic.Uint64

	dedup *RequestDeduplicator
}

// NewCache creates an empty memo store.
func NewCache() *Cache {
	return &Cache{dedup: NewRequestDeduplicator()}
}

// Get retrieves a stored value.
func (c *Cache) Get(key string) (any, bool) {
	if entry, ok := c.entries.Load(key); ok {
		return entry.(*CacheEntry).Data, true
	}
	return nil, false
}

// Set stores a value under key, replacing any previous value.
func (c *Cache) Set(key string, data any) {
	if _, loaded := c.entries.Swap(key, &CacheEntry{Data: data, Key: key}); !loaded {
		atomic.AddInt64(&c.count, 1)
	}
}

// Delete removes a key from the cache
func (c *Cache) Delete(key string) {
	if _, existed := c.entries.LoadAndDelete(key); existed {
		atomic.AddInt64(&c.count, -1)
	}
	c.epoch.Add(1)
}

// DeletePrefix removes all cache entries with keys starting with prefix
func (c *Cache) DeletePrefix(prefix string) int {
	var deleted int64
	c.entries.Range(func(key, _ any) bool {
		if strings.HasPrefix(key.(string), prefix) {
			if _, existed := c.entries.LoadAndDelete(key); existed {
				deleted++
			}
		}
		return true
	})
	if deleted > 0 {
		atomic.AddInt64(&c.count, -deleted)
	}
	c.epoch.Add(1)
	return int(deleted)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.DeletePrefix("")
}

// Size returns the current number of entries in the cache
func (c *Cache) Size() int64 {
	return atomic.LoadInt64(&c.count)
}

// Memoize returns the stored value for key, or runs compute exactly once
// across concurrent callers and stores its result. Errors are returned to
// every waiter and never stored. hit reports whether the value came from
// the store without running compute in this call.
func (c *Cache) Memoize(ctx context.Context, key string, compute func() (any, error)) (value any, hit bool, err error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, shared, err := c.dedup.Do(ctx, key, func() (any, error) {
		// A caller that missed the store may arrive after the previous
		// in-flight computation finished and stored its value.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		epoch := c.epoch.Load()
		v, err := compute()
		if err != nil {
			return nil, err
		}
		if c.epoch.Load() == epoch {
			c.Set(key, v)
		}
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, shared, nil
}

// InFlight returns the number of computations currently running.
func (c *Cache) InFlight() int {
	return c.dedup.Stats()
}
