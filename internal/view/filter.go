// Package view holds the client-side aggregation layer shared by the
// dashboards: in-memory filtering and sorting of fetched collections,
// summary counters that stay exact across partial mutations, optimistic
// mutation coordination against the gateway, concurrent reference
// projection, and stale-response sequencing.
package view

import (
	"sort"
	"strings"
	"time"
)

// All is the categorical sentinel meaning "no constraint".
const All = "all"

// Predicate reports whether a record passes a filter.
type Predicate[T any] func(T) bool

// And composes predicates; nil entries are skipped and an empty set
// matches everything.
func And[T any](predicates ...Predicate[T]) Predicate[T] {
	return func(record T) bool {
		for _, predicate := range predicates {
			if predicate == nil {
				continue
			}
			if !predicate(record) {
				return false
			}
		}
		return true
	}
}

// TextSearch matches records whose listed fields contain the term as a
// case-insensitive substring. A blank term matches everything.
func TextSearch[T any](term string, fields func(T) []string) Predicate[T] {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return nil
	}
	return func(record T) bool {
		for _, field := range fields(record) {
			if strings.Contains(strings.ToLower(field), needle) {
				return true
			}
		}
		return false
	}
}

// Equals matches records whose key equals the selected value. The All
// sentinel (case-insensitive) means no constraint.
func Equals[T any](selected string, key func(T) string) Predicate[T] {
	if selected == "" || strings.EqualFold(selected, All) {
		return nil
	}
	return func(record T) bool {
		return key(record) == selected
	}
}

// DateBucket names a date-range membership test relative to the viewer's
// local midnight.
type DateBucket string

const (
	BucketAll       DateBucket = "all"
	BucketToday     DateBucket = "today"
	BucketYesterday DateBucket = "yesterday"
	BucketWeek      DateBucket = "week"
	BucketMonth     DateBucket = "month"
)

// ValidBucket reports whether the value names a known bucket.
func ValidBucket(bucket DateBucket) bool {
	switch bucket {
	case BucketAll, BucketToday, BucketYesterday, BucketWeek, BucketMonth:
		return true
	}
	return false
}

// InBucket matches records whose timestamp falls inside the bucket.
// Boundaries are computed from local midnight of now; the week starts on
// Sunday and the month on its first day.
func InBucket[T any](bucket DateBucket, at func(T) time.Time, now time.Time) Predicate[T] {
	if bucket == "" || bucket == BucketAll {
		return nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := midnight.AddDate(0, 0, -1)
	weekStart := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	return func(record T) bool {
		ts := at(record)
		switch bucket {
		case BucketToday:
			return !ts.Before(midnight)
		case BucketYesterday:
			return !ts.Before(yesterday) && ts.Before(midnight)
		case BucketWeek:
			return !ts.Before(weekStart)
		case BucketMonth:
			return !ts.Before(monthStart)
		}
		return false
	}
}

// Apply filters records by the predicate and stable-sorts the survivors
// with less. A nil predicate keeps every record; a nil comparator keeps
// the input order. The input slice is never mutated.
func Apply[T any](records []T, predicate Predicate[T], less func(a, b T) bool) []T {
	out := make([]T, 0, len(records))
	for _, record := range records {
		if predicate == nil || predicate(record) {
			out = append(out, record)
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j])
		})
	}
	return out
}

// Descending inverts a comparator while preserving stability: equal
// elements still compare equal, so ties keep their input order in both
// directions.
func Descending[T any](less func(a, b T) bool) func(a, b T) bool {
	return func(a, b T) bool {
		return less(b, a)
	}
}
