package view

import (
	"context"
	"sync"
)

// Project runs fn concurrently across all records (each resolution is
// independent) and collects the results back in input order. The returned
// batch is complete: callers swap it in only after every resolution has
// settled, so partial projections are never surfaced.
func Project[T, P any](ctx context.Context, records []T, fn func(context.Context, T) P) []P {
	projected := make([]P, len(records))

	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			projected[index] = fn(ctx, records[index])
		}(i)
	}
	wg.Wait()

	return projected
}
