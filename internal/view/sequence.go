package view

import "sync"

// Sequencer numbers fetch requests so a slow, superseded response can be
// discarded instead of overwriting the result of a newer request. Without
// it, overlapping fetches resolve last-write-wins by completion order.
type Sequencer struct {
	mu     sync.Mutex
	issued uint64
}

// Next issues the sequence number for a new request.
func (s *Sequencer) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Accept reports whether a response for the given request number may be
// applied: only the most recently issued request is current.
func (s *Sequencer) Accept(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.issued
}
