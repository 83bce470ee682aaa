package engine

import (
	"sync/atomic"
	"time"
)

// Health is the process-wide availability record for the remote engine,
// shared by every caller. Initialized available at startup, mutated on every
// call outcome, never persisted. Reads may be slightly stale; that only
// costs an extra optimistic attempt, never a wrong result.
type Health struct {
	available       atomic.Bool
	lastFailureNano atomic.Int64
}

// NewHealth starts in the available state.
func NewHealth() *Health {
	h := &Health{}
	h.available.Store(true)
	return h
}

// Available reports the last observed availability.
func (h *Health) Available() bool { return h.available.Load() }

// LastFailure returns the time of the last connection-level failure.
func (h *Health) LastFailure() time.Time {
	n := h.lastFailureNano.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// MarkFailure records a connection-level failure.
func (h *Health) MarkFailure(now time.Time) {
	h.lastFailureNano.Store(now.UnixNano())
	h.available.Store(false)
}

// MarkSuccess flips back to available.
func (h *Health) MarkSuccess() { h.available.Store(true) }

// ShouldAttempt decides whether a call should go out: always while believed
// available, and again once the recovery window has elapsed since the last
// failure. This is optimistic retry, not a blocking cool-down.
func (h *Health) ShouldAttempt(now time.Time, recovery time.Duration) bool {
	if h.available.Load() {
		return true
	}
	return now.Sub(h.LastFailure()) >= recovery
}
