package device

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("device: missing dependency")

	// ErrEmptyCapture is returned when the camera reports success without data.
	ErrEmptyCapture = errors.New("device: capture produced no image")

	// ErrEmptyDescription is returned when the describer returns no text.
	ErrEmptyDescription = errors.New("device: empty description")
)

// PhaseError is a failure that aborted a session.
type PhaseError struct {
	SessionID string
	Phase     Phase
	Err       error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	return fmt.Sprintf("session %s: %s: %v", e.SessionID, e.Phase, e.Err)
}

// Unwrap returns the underlying error.
func (e *PhaseError) Unwrap() error {
	return e.Err
}
