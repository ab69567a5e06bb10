package view

// Counter defines one named bucket of the summary statistics. Counters may
// overlap (a product can be both in stock and featured).
type Counter[T any] struct {
	Name  string
	Match Predicate[T]
}

// Summary holds per-counter counts plus the total record count. It must
// equal a full Tally over the current in-memory list at all times; Shift
// and Add exist only for deltas that are fully known.
type Summary struct {
	Counts map[string]int
	Total  int
}

// Tally recomputes the summary from scratch. This is the required
// semantics after any bulk mutation.
func Tally[T any](records []T, counters []Counter[T]) Summary {
	summary := Summary{Counts: make(map[string]int, len(counters)), Total: len(records)}
	for _, counter := range counters {
		summary.Counts[counter.Name] = 0
	}
	for _, record := range records {
		for _, counter := range counters {
			if counter.Match(record) {
				summary.Counts[counter.Name]++
			}
		}
	}
	return summary
}

// Get returns the named count.
func (s Summary) Get(name string) int {
	return s.Counts[name]
}

// Add applies a known delta to one counter.
func (s Summary) Add(name string, delta int) {
	s.Counts[name] += delta
}

// Shift moves one record between two counters, the exact incremental path
// for a single toggled field.
func (s Summary) Shift(from, to string) {
	s.Counts[from]--
	s.Counts[to]++
}

// Clone returns an independent copy of the summary.
func (s Summary) Clone() Summary {
	counts := make(map[string]int, len(s.Counts))
	for name, count := range s.Counts {
		counts[name] = count
	}
	return Summary{Counts: counts, Total: s.Total}
}

// Rate returns numerator/denominator as a percentage. A zero denominator
// yields 0, never NaN.
func Rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}
