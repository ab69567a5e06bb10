package gateway

import (
	"context"
	"errors"
	"time"
)

// Collection names used by the dashboards.
const (
	CollectionProducts = "products"
	CollectionOrders   = "orders"
	CollectionUsers    = "users"
)

var (
	// ErrNotFound reports that no document exists under the requested id.
	ErrNotFound = errors.New("gateway: document not found")
)

// Document is a schemaless record as stored in a collection. Reads always
// carry the document id under the "id" key.
type Document map[string]any

// SortSpec requests a single-field server-side ordering.
type SortSpec struct {
	Field      string
	Descending bool
}

// Store is the remote collection gateway the dashboards read and write
// through. Implementations provide fetch-all with optional single-field
// sort, fetch-by-id, field-level partial update, insert and delete. There
// is no server-side filtering by arbitrary predicate.
type Store interface {
	FetchAll(ctx context.Context, collection string, sort *SortSpec) ([]Document, error)
	FetchOne(ctx context.Context, collection, id string) (Document, error)
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	Update(ctx context.Context, collection, id string, patch Document) error
	Delete(ctx context.Context, collection, id string) error
}

// BlobStore persists opaque bytes (product images) and returns a URL the
// stored blob can be served from.
type BlobStore interface {
	Store(ctx context.Context, data []byte, name string) (string, error)
}

// ID returns the document id, or "" when the document has none.
func (d Document) ID() string {
	return d.String("id")
}

// String returns the named field coerced to a string.
func (d Document) String(key string) string {
	if v, ok := d[key].(string); ok {
		return v
	}
	return ""
}

// Float returns the named field coerced to a float64. JSON decoding and the
// sqlite store hand back float64; integer values are widened.
func (d Document) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Int returns the named field coerced to an int.
func (d Document) Int(key string) int {
	return int(d.Float(key))
}

// Bool returns the named field coerced to a bool.
func (d Document) Bool(key string) bool {
	if v, ok := d[key].(bool); ok {
		return v
	}
	return false
}

// Time returns the named field as a time.Time. Stores normalize their
// native timestamp types to time.Time; JSON round-trips arrive as RFC 3339
// strings. A missing or unparseable value yields the zero time.
func (d Document) Time(key string) time.Time {
	switch v := d[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Strings returns the named field as a string slice.
func (d Document) Strings(key string) []string {
	raw, ok := d[key].([]any)
	if !ok {
		if v, ok := d[key].([]string); ok {
			return v
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge returns old overridden by patch. A nil patch value clears the
// field, mirroring how the remote stores treat explicit nulls.
func Merge(old, patch Document) Document {
	out := old.Clone()
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
