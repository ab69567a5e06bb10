// Package refcache memoizes foreign-key lookups for the lifetime of a
// dashboard session. The cache is an explicit object owned by the view
// that uses it, never package-level state, so staleness is bounded by the
// owner's reload (which calls Clear) rather than by process lifetime.
package refcache

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var errMissingFetch = errors.New("refcache: fetch function is required")

// FetchFunc loads the value for a key from the gateway. The middle return
// reports whether the key exists at all; an error reports a transport
// failure.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, bool, error)

type entry[V any] struct {
	value V
	found bool
}

// Cache resolves keys through a fetch function, caching both found values
// and definitive not-found results. Repeat resolutions of a settled miss
// return the cached sentinel instead of re-querying, bounding fan-out when
// many records share an unresolved reference. Transport errors are not
// cached, so a later call may retry.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]entry[V]
	fetch    FetchFunc[K, V]
	fallback V
	logger   *zap.Logger
}

// Config bundles construction parameters for a Cache.
type Config[K comparable, V any] struct {
	Fetch    FetchFunc[K, V]
	Fallback V
	Logger   *zap.Logger
}

// New validates configuration and builds a Cache.
func New[K comparable, V any](cfg Config[K, V]) (*Cache[K, V], error) {
	if cfg.Fetch == nil {
		return nil, errMissingFetch
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[K, V]{
		entries:  make(map[K]entry[V]),
		fetch:    cfg.Fetch,
		fallback: cfg.Fallback,
		logger:   logger,
	}, nil
}

// Resolve returns the cached value for key, fetching it on a miss. The
// bool reports whether the key resolved to a real value; a not-found key
// or a transport failure yields the fallback, never an error, so one bad
// reference cannot fail a caller's whole batch.
func (c *Cache[K, V]) Resolve(ctx context.Context, key K) (V, bool) {
	c.mu.Lock()
	if cached, ok := c.entries[key]; ok {
		c.mu.Unlock()
		if !cached.found {
			return c.fallback, false
		}
		return cached.value, true
	}
	c.mu.Unlock()

	value, found, err := c.fetch(ctx, key)
	if err != nil {
		c.logger.Warn("reference fetch failed", zap.Any("key", key), zap.Error(err))
		return c.fallback, false
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, found: found}
	c.mu.Unlock()

	if !found {
		return c.fallback, false
	}
	return value, true
}

// Invalidate drops a single key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Clear drops every cached entry. Dashboards call this on full reload.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len reports how many keys are settled in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
