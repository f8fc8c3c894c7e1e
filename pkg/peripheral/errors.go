package peripheral

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrPinNotFound is returned when a GPIO name does not resolve.
	ErrPinNotFound = errors.New("peripheral: pin not found")

	// ErrNoFrame is returned when the camera delivered an empty frame.
	ErrNoFrame = errors.New("peripheral: camera returned no frame")
)

// Error is a hardware failure on a named device.
type Error struct {
	Device string // "indicator", "haptic", "trigger", "camera", "display"
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("peripheral [%s] %s: %v", e.Device, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches device context to err. A nil err stays nil.
func Wrap(device, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Device: device, Op: op, Err: err}
}
