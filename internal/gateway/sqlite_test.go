package gateway

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "gateway.db"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestInsertAndFetchOneRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, CollectionProducts, Document{
		"name":    "Almonds",
		"price":   4.5,
		"inStock": true,
		"tags":    []string{"nuts", "snack"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected an assigned id")
	}

	doc, err := store.FetchOne(ctx, CollectionProducts, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != id {
		t.Fatalf("expected id %q, got %q", id, doc.ID())
	}
	if doc.String("name") != "Almonds" {
		t.Fatalf("unexpected name %q", doc.String("name"))
	}
	if doc.Float("price") != 4.5 {
		t.Fatalf("unexpected price %v", doc.Float("price"))
	}
	if !doc.Bool("inStock") {
		t.Fatalf("expected inStock true")
	}
	if tags := doc.Strings("tags"); len(tags) != 2 || tags[0] != "nuts" {
		t.Fatalf("unexpected tags %v", tags)
	}
}

func TestFetchOneUnknownID(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.FetchOne(context.Background(), CollectionProducts, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFetchAllSortsByBodyField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Cherry", "Apple", "Banana"} {
		if _, err := store.Insert(ctx, CollectionProducts, Document{"name": name}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	docs, err := store.FetchAll(ctx, CollectionProducts, &SortSpec{Field: "name"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[0].String("name") != "Apple" || docs[2].String("name") != "Cherry" {
		t.Fatalf("unexpected ascending order: %v", docs)
	}

	docs, err = store.FetchAll(ctx, CollectionProducts, &SortSpec{Field: "name", Descending: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].String("name") != "Cherry" {
		t.Fatalf("unexpected descending order: %v", docs)
	}
}

func TestFetchAllRejectsHostileSortField(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.FetchAll(context.Background(), CollectionProducts, &SortSpec{Field: "name') --"}); err == nil {
		t.Fatalf("expected an error for a hostile sort field")
	}
}

func TestFetchAllScopedToCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Insert(ctx, CollectionProducts, Document{"name": "Almonds"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Insert(ctx, CollectionOrders, Document{"customerName": "Alice"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := store.FetchAll(ctx, CollectionOrders, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].String("customerName") != "Alice" {
		t.Fatalf("unexpected order documents: %v", docs)
	}
}

func TestUpdateMergesAndNilClearsField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, CollectionProducts, Document{
		"name":          "Almonds",
		"price":         4.5,
		"discountPrice": 3.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = store.Update(ctx, CollectionProducts, id, Document{
		"price":         5.0,
		"discountPrice": nil,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := store.FetchOne(ctx, CollectionProducts, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Float("price") != 5.0 {
		t.Fatalf("expected price updated, got %v", doc.Float("price"))
	}
	if doc.String("name") != "Almonds" {
		t.Fatalf("untouched field changed: %q", doc.String("name"))
	}
	if _, present := doc["discountPrice"]; present {
		t.Fatalf("expected nil patch value to clear the field")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	store := newTestStore(t)
	if err := store.Update(context.Background(), CollectionProducts, "missing", Document{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteRemovesDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Insert(ctx, CollectionProducts, Document{"name": "Almonds"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Delete(ctx, CollectionProducts, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.FetchOne(ctx, CollectionProducts, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, CollectionProducts, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
