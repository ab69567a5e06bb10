package refcache

import (
	"context"
	"errors"
	"testing"
)

type countingFetcher struct {
	calls   int
	values  map[string]string
	failErr error
}

func (f *countingFetcher) fetch(ctx context.Context, key string) (string, bool, error) {
	f.calls++
	if f.failErr != nil {
		return "", false, f.failErr
	}
	value, ok := f.values[key]
	return value, ok, nil
}

func newTestCache(t *testing.T, fetcher *countingFetcher) *Cache[string, string] {
	t.Helper()
	cache, err := New(Config[string, string]{Fetch: fetcher.fetch, Fallback: "unknown"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cache
}

func TestNewRequiresFetchFunc(t *testing.T) {
	if _, err := New(Config[string, string]{}); err == nil {
		t.Fatalf("expected an error for missing fetch function")
	}
}

func TestResolveMemoizesFoundValue(t *testing.T) {
	fetcher := &countingFetcher{values: map[string]string{"u1": "Alice"}}
	cache := newTestCache(t, fetcher)

	for i := 0; i < 3; i++ {
		value, ok := cache.Resolve(context.Background(), "u1")
		if !ok || value != "Alice" {
			t.Fatalf("resolve %d: got %q/%v", i, value, ok)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected a single fetch, got %d", fetcher.calls)
	}
}

func TestResolveCachesDefinitiveNotFound(t *testing.T) {
	fetcher := &countingFetcher{values: map[string]string{}}
	cache := newTestCache(t, fetcher)

	for i := 0; i < 3; i++ {
		value, ok := cache.Resolve(context.Background(), "ghost")
		if ok {
			t.Fatalf("resolve %d: unexpected hit", i)
		}
		if value != "unknown" {
			t.Fatalf("resolve %d: expected the fallback, got %q", i, value)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected the miss to settle after one fetch, got %d", fetcher.calls)
	}
}

func TestResolveDoesNotCacheTransportErrors(t *testing.T) {
	fetcher := &countingFetcher{failErr: errors.New("gateway down")}
	cache := newTestCache(t, fetcher)

	if _, ok := cache.Resolve(context.Background(), "u1"); ok {
		t.Fatalf("expected fallback on transport failure")
	}

	// Gateway recovers; the next resolve must retry.
	fetcher.failErr = nil
	fetcher.values = map[string]string{"u1": "Alice"}

	value, ok := cache.Resolve(context.Background(), "u1")
	if !ok || value != "Alice" {
		t.Fatalf("expected retry to succeed, got %q/%v", value, ok)
	}
	if fetcher.calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", fetcher.calls)
	}
}

func TestInvalidateDropsSingleKey(t *testing.T) {
	fetcher := &countingFetcher{values: map[string]string{"u1": "Alice", "u2": "Bob"}}
	cache := newTestCache(t, fetcher)

	cache.Resolve(context.Background(), "u1")
	cache.Resolve(context.Background(), "u2")
	cache.Invalidate("u1")

	if cache.Len() != 1 {
		t.Fatalf("expected 1 settled key, got %d", cache.Len())
	}

	cache.Resolve(context.Background(), "u1")
	if fetcher.calls != 3 {
		t.Fatalf("expected the invalidated key to refetch, got %d calls", fetcher.calls)
	}
}

func TestClearDropsEverything(t *testing.T) {
	fetcher := &countingFetcher{values: map[string]string{"u1": "Alice"}}
	cache := newTestCache(t, fetcher)

	cache.Resolve(context.Background(), "u1")
	cache.Clear()

	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Len())
	}

	cache.Resolve(context.Background(), "u1")
	if fetcher.calls != 2 {
		t.Fatalf("expected refetch after clear, got %d calls", fetcher.calls)
	}
}
