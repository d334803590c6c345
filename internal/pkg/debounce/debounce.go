// Package debounce provides a cancellable delayed-action slot: scheduling on a
// slot always cancels whatever was pending on it first.
package debounce

import (
	"sync"
	"time"
)

// Handle refers to one scheduled action.
type Handle struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// Cancel stops the action if it has not started. It reports whether the
// action was prevented from running.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return false
	}
	h.cancelled = true
	return h.timer.Stop()
}

// claim marks the handle as fired; false means it was cancelled first.
func (h *Handle) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return false
	}
	h.cancelled = true
	return true
}

// Slot holds at most one pending action. The zero value is ready to use.
type Slot struct {
	mu      sync.Mutex
	pending *Handle
}

// Schedule runs fn after delay on its own goroutine, cancelling the slot's
// previous action if it is still pending.
func (s *Slot) Schedule(delay time.Duration, fn func()) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending.Cancel()

	h := &Handle{}
	h.mu.Lock()
	h.timer = time.AfterFunc(delay, func() {
		if !h.claim() {
			return
		}
		s.mu.Lock()
		if s.pending == h {
			s.pending = nil
		}
		s.mu.Unlock()
		fn()
	})
	h.mu.Unlock()
	s.pending = h
	return h
}

// Cancel drops the pending action, if any.
func (s *Slot) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.pending
	s.pending = nil
	return h.Cancel()
}

// Pending reports whether an action is waiting to run.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
