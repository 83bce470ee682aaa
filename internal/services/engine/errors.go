package engine

import "errors"

// Failure taxonomy for remote engine calls.
var (
	// ErrUnavailable means the engine could not be reached at the connection
	// level. It is the only condition that flips availability state and it
	// is retried optimistically after the recovery window.
	ErrUnavailable = errors.New("engine: unavailable")

	// ErrInvalidRequest means the engine was reachable and rejected the
	// request. Not retried, does not affect availability.
	ErrInvalidRequest = errors.New("engine: invalid request")

	// ErrInternal means the engine was reachable but failed computing.
	// Not retried, does not affect availability.
	ErrInternal = errors.New("engine: internal error")
)
