package view

import (
	"errors"
	"sync"
)

// ErrBusy reports that another operation is already in flight for the
// screen.
var ErrBusy = errors.New("view: operation already in progress")

// Session serializes one screen's work: a global per-screen busy flag
// rejects conflicting mutations while one is outstanding (no per-record
// locking), and Lock/Unlock guard reads of the local state those
// operations maintain.
type Session struct {
	mu   sync.Mutex
	busy bool
}

// Begin marks the screen busy; it fails with ErrBusy when an operation is
// already in flight.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

// End clears the busy flag.
func (s *Session) End() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Lock guards access to the screen's local state.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the state guard.
func (s *Session) Unlock() { s.mu.Unlock() }
