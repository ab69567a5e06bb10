package view

import (
	"context"
	"strconv"
	"testing"
)

func TestProjectPreservesInputOrder(t *testing.T) {
	records := make([]int, 50)
	for i := range records {
		records[i] = i
	}

	projected := Project(context.Background(), records, func(ctx context.Context, n int) string {
		return strconv.Itoa(n * 2)
	})

	if len(projected) != len(records) {
		t.Fatalf("expected %d results, got %d", len(records), len(projected))
	}
	for i, got := range projected {
		if want := strconv.Itoa(i * 2); got != want {
			t.Fatalf("index %d: got %s, want %s", i, got, want)
		}
	}
}

func TestProjectEmptyInput(t *testing.T) {
	projected := Project(context.Background(), nil, func(ctx context.Context, n int) int { return n })
	if len(projected) != 0 {
		t.Fatalf("expected empty output, got %d", len(projected))
	}
}
