package wikia

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olgasafonova/wikia-mcp-server/internal/infra"
	"github.com/olgasafonova/wikia-mcp-server/metrics"
)

// Memoized function names, used as the first part of every CacheKey.
const (
	cacheSearch    = "search"
	cacheSummary   = "summary"
	cacheLanguages = "languages"
)

// CacheKey identifies one memoized call: the function name plus its
// arguments in order. Two keys are equal when their names match and their
// arguments serialize to the same JSON.
type CacheKey struct {
	Func string
	Args []any
}

func (k CacheKey) String() string {
	args, err := json.Marshal(k.Args)
	if err != nil {
		args = []byte(fmt.Sprint(k.Args...))
	}
	return k.Func + "|" + string(args)
}

// ResultCache memoizes successful results for the lifetime of the process.
// Failed computations are never stored. Concurrent calls with the same key
// share one computation.
type ResultCache struct {
	store *infra.Cache
}

// NewResultCache creates an empty cache.
func NewResultCache() *ResultCache {
	return &ResultCache{store: infra.NewCache()}
}

// Do returns the memoized value for key or computes and stores it.
func (c *ResultCache) Do(ctx context.Context, key CacheKey, compute func(context.Context) (any, error)) (any, error) {
	v, hit, err := c.store.Memoize(ctx, key.String(), func() (any, error) {
		return compute(ctx)
	})
	metrics.RecordCacheAccess(key.Func, hit)
	metrics.SetCacheSize(c.store.Size())
	return v, err
}

// Clear drops every entry memoized for one function.
func (c *ResultCache) Clear(fn string) {
	c.store.DeletePrefix(fn + "|")
	metrics.SetCacheSize(c.store.Size())
}

// ClearAll drops every entry.
func (c *ResultCache) ClearAll() {
	c.store.Clear()
	metrics.SetCacheSize(0)
}

// Len returns the number of stored results.
func (c *ResultCache) Len() int {
	return int(c.store.Size())
}

// cached is the typed front of ResultCache.Do.
func cached[T any](ctx context.Context, c *ResultCache, key CacheKey, compute func(context.Context) (T, error)) (T, error) {
	v, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
