package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound indicates the session exists but has no history
	// for the named user.
	ErrUserNotFound = errors.New("user not found")
	// ErrArtifactNotFound indicates the session has no pairing artifact,
	// either not yet emitted or already consumed.
	ErrArtifactNotFound = errors.New("pairing artifact not found")
)

// ModelError wraps a completion failure from the model backend. All failure
// modes are handled identically today (fallback reply), but Retryable is
// recorded so a future retry policy can tell transient failures apart.
type ModelError struct {
	Retryable bool
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model completion failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError wraps err as a model failure.
func NewModelError(err error, retryable bool) *ModelError {
	return &ModelError{Retryable: retryable, Err: err}
}

// TransportError wraps a chat transport failure. The session stays registered
// unless the transport also reports a disconnect.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
