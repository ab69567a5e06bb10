package view

import (
	"context"
	"errors"
	"testing"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
)

type fakeStore struct {
	updates    []string
	failIDs    map[string]bool
	updateErr  error
	lastPatch  gateway.Document
	collection string
}

func (f *fakeStore) FetchAll(ctx context.Context, collection string, sort *gateway.SortSpec) ([]gateway.Document, error) {
	return nil, nil
}

func (f *fakeStore) FetchOne(ctx context.Context, collection, id string) (gateway.Document, error) {
	return nil, gateway.ErrNotFound
}

func (f *fakeStore) Insert(ctx context.Context, collection string, doc gateway.Document) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeStore) Update(ctx context.Context, collection, id string, patch gateway.Document) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.failIDs[id] {
		return errors.New("update rejected")
	}
	f.updates = append(f.updates, id)
	f.lastPatch = patch
	f.collection = collection
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, collection, id string) error {
	return errors.New("not implemented")
}

type widget struct {
	ID      string
	Name    string
	InStock bool
}

func mergeWidget(w widget, patch Patch) widget {
	if name, ok := patch["name"].(string); ok {
		w.Name = name
	}
	if inStock, ok := patch["inStock"].(bool); ok {
		w.InStock = inStock
	}
	return w
}

func newWidgetCoordinator(t *testing.T, store gateway.Store) *Coordinator[widget] {
	t.Helper()
	coordinator, err := NewCoordinator(CoordinatorConfig[widget]{
		Store:      store,
		Collection: "widgets",
		ID:         func(w widget) string { return w.ID },
		Merge:      mergeWidget,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return coordinator
}

func TestNewCoordinatorRequiresCollaborators(t *testing.T) {
	if _, err := NewCoordinator(CoordinatorConfig[widget]{}); err == nil {
		t.Fatalf("expected an error for missing store")
	}
	if _, err := NewCoordinator(CoordinatorConfig[widget]{Store: &fakeStore{}}); err == nil {
		t.Fatalf("expected an error for missing collection")
	}
}

func TestApplyMergesAcknowledgedPatch(t *testing.T) {
	store := &fakeStore{}
	coordinator := newWidgetCoordinator(t, store)
	records := []widget{
		{ID: "a", Name: "Alpha", InStock: true},
		{ID: "b", Name: "Beta", InStock: false},
	}

	updated, err := coordinator.Apply(context.Background(), records, "b", Patch{"inStock": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated[1].InStock {
		t.Fatalf("expected patch merged into record b")
	}
	if updated[0] != records[0] {
		t.Fatalf("untouched record changed")
	}
	if records[1].InStock {
		t.Fatalf("input slice was mutated")
	}
	if store.collection != "widgets" {
		t.Fatalf("unexpected collection %q", store.collection)
	}
}

func TestApplyLeavesLocalStateOnGatewayFailure(t *testing.T) {
	store := &fakeStore{updateErr: errors.New("gateway down")}
	coordinator := newWidgetCoordinator(t, store)
	records := []widget{{ID: "a", Name: "Alpha"}}

	updated, err := coordinator.Apply(context.Background(), records, "a", Patch{"name": "Changed"})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if updated[0].Name != "Alpha" {
		t.Fatalf("local state changed despite gateway failure")
	}
}

func TestApplyUnknownIDReportsNotListed(t *testing.T) {
	store := &fakeStore{}
	coordinator := newWidgetCoordinator(t, store)

	_, err := coordinator.Apply(context.Background(), []widget{{ID: "a"}}, "missing", Patch{"name": "x"})
	if !errors.Is(err, ErrRecordNotListed) {
		t.Fatalf("expected ErrRecordNotListed, got %v", err)
	}
	if len(store.updates) != 0 {
		t.Fatalf("gateway was called for an unlisted record")
	}
}

func TestApplyBulkPartialFailure(t *testing.T) {
	store := &fakeStore{failIDs: map[string]bool{"b": true}}
	coordinator := newWidgetCoordinator(t, store)
	records := []widget{
		{ID: "a"},
		{ID: "b"},
		{ID: "c"},
	}

	updated, result := coordinator.ApplyBulk(context.Background(), records, []string{"a", "b", "c"}, Patch{"inStock": true})

	if result.SucceededIDs() != 2 || result.FailedIDs() != 1 {
		t.Fatalf("expected 2 succeeded and 1 failed, got %d/%d", result.SucceededIDs(), result.FailedIDs())
	}
	if _, ok := result.Failed["b"]; !ok {
		t.Fatalf("expected b in the failed set")
	}
	if len(result.Errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(result.Errs))
	}

	if !updated[0].InStock || !updated[2].InStock {
		t.Fatalf("succeeded records were not patched")
	}
	if updated[1].InStock {
		t.Fatalf("failed record was patched")
	}
}

func TestApplyBulkUnknownIDsFailWithoutGatewayCalls(t *testing.T) {
	store := &fakeStore{}
	coordinator := newWidgetCoordinator(t, store)

	_, result := coordinator.ApplyBulk(context.Background(), []widget{{ID: "a"}}, []string{"a", "ghost"}, Patch{"inStock": true})

	if result.SucceededIDs() != 1 || result.FailedIDs() != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.SucceededIDs(), result.FailedIDs())
	}
	if len(store.updates) != 1 {
		t.Fatalf("expected exactly one gateway call, got %d", len(store.updates))
	}
}

func TestApplyBulkAllFailedReturnsInputSlice(t *testing.T) {
	store := &fakeStore{updateErr: errors.New("gateway down")}
	coordinator := newWidgetCoordinator(t, store)
	records := []widget{{ID: "a"}}

	updated, result := coordinator.ApplyBulk(context.Background(), records, []string{"a"}, Patch{"inStock": true})
	if result.SucceededIDs() != 0 {
		t.Fatalf("expected no successes")
	}
	if updated[0].InStock {
		t.Fatalf("local state changed despite total failure")
	}
}
