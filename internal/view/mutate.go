package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/gateway"
)

var (
	errMissingStore      = errors.New("view: gateway store is required")
	errMissingCollection = errors.New("view: collection name is required")
	errMissingIDFunc     = errors.New("view: id accessor is required")
	errMissingMergeFunc  = errors.New("view: merge function is required")

	// ErrRecordNotListed reports a mutation against an id absent from the
	// local record list.
	ErrRecordNotListed = errors.New("view: record not in local state")
)

// Patch is a partial record sent to the gateway and merged into local
// state on acknowledgement. A nil value clears the field.
type Patch = gateway.Document

// Coordinator applies single and bulk updates: gateway first, then an
// in-place patch of the local list, so aggregates can be reconciled
// without re-fetching the collection.
type Coordinator[T any] struct {
	store      gateway.Store
	collection string
	id         func(T) string
	merge      func(T, Patch) T
}

// CoordinatorConfig bundles the collaborators a Coordinator needs.
type CoordinatorConfig[T any] struct {
	Store      gateway.Store
	Collection string
	ID         func(T) string
	Merge      func(T, Patch) T
}

// NewCoordinator validates configuration and builds a Coordinator.
func NewCoordinator[T any](cfg CoordinatorConfig[T]) (*Coordinator[T], error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	if cfg.Collection == "" {
		return nil, errMissingCollection
	}
	if cfg.ID == nil {
		return nil, errMissingIDFunc
	}
	if cfg.Merge == nil {
		return nil, errMissingMergeFunc
	}
	return &Coordinator[T]{
		store:      cfg.Store,
		collection: cfg.Collection,
		id:         cfg.ID,
		merge:      cfg.Merge,
	}, nil
}

// Apply sends the patch for one record and, on acknowledgement, returns a
// new slice with that record replaced by old ∪ patch. On gateway failure
// the input slice is returned untouched along with the error.
func (c *Coordinator[T]) Apply(ctx context.Context, records []T, id string, patch Patch) ([]T, error) {
	index := c.indexOf(records, id)
	if index < 0 {
		return records, fmt.Errorf("%w: %s", ErrRecordNotListed, id)
	}

	if err := c.store.Update(ctx, c.collection, id, patch); err != nil {
		return records, err
	}

	out := make([]T, len(records))
	copy(out, records)
	out[index] = c.merge(out[index], patch)
	return out, nil
}

// BulkResult reports which ids of a bulk update were acknowledged and
// which failed. Local state is patched only for the succeeded set.
type BulkResult struct {
	Succeeded map[string]struct{}
	Failed    map[string]struct{}
	Errs      []error
}

// SucceededIDs reports how many updates were acknowledged.
func (r BulkResult) SucceededIDs() int { return len(r.Succeeded) }

// FailedIDs reports how many updates failed.
func (r BulkResult) FailedIDs() int { return len(r.Failed) }

// ApplyBulk fans the same patch out to each id independently; one failure
// never blocks the rest. The returned slice has the patch merged into
// exactly the records whose gateway call succeeded.
func (c *Coordinator[T]) ApplyBulk(ctx context.Context, records []T, ids []string, patch Patch) ([]T, BulkResult) {
	result := BulkResult{
		Succeeded: make(map[string]struct{}, len(ids)),
		Failed:    make(map[string]struct{}),
	}

	for _, id := range ids {
		if c.indexOf(records, id) < 0 {
			result.Failed[id] = struct{}{}
			result.Errs = append(result.Errs, fmt.Errorf("%w: %s", ErrRecordNotListed, id))
			continue
		}
		if err := c.store.Update(ctx, c.collection, id, patch); err != nil {
			result.Failed[id] = struct{}{}
			result.Errs = append(result.Errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		result.Succeeded[id] = struct{}{}
	}

	if len(result.Succeeded) == 0 {
		return records, result
	}

	out := make([]T, len(records))
	copy(out, records)
	for i := range out {
		if _, ok := result.Succeeded[c.id(out[i])]; ok {
			out[i] = c.merge(out[i], patch)
		}
	}
	return out, result
}

func (c *Coordinator[T]) indexOf(records []T, id string) int {
	for i := range records {
		if c.id(records[i]) == id {
			return i
		}
	}
	return -1
}
