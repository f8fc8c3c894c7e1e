// Package peripheral drives the device's physical I/O.
//
// Small interfaces cover the indicator LED, the vibration motor, the touch
// sensor and the camera. GPIO-backed implementations use periph.io; the
// camera uses gocv. Fakes in this package back the control loop tests.
package peripheral

import (
	"context"
	"time"
)

// Indicator is a single status light.
type Indicator interface {
	On() error
	Off() error
	// Blink toggles the light every rate until On or Off is called.
	Blink(rate time.Duration) error
}

// Haptic is a vibration motor.
type Haptic interface {
	// Pulse vibrates for d and blocks until the motor is off again.
	Pulse(ctx context.Context, d time.Duration) error
}

// Trigger is the touch input line.
type Trigger interface {
	// Read reports whether the sensor is currently active.
	Read() (bool, error)
}

// Camera captures stills to a fixed artifact path.
type Camera interface {
	// Capture starts the sensor, lets it settle, grabs one frame, writes it
	// to path (replacing any previous file) and stops the sensor.
	Capture(ctx context.Context, path string) (*Frame, error)
}

// Frame is one captured still.
type Frame struct {
	// Path is where the JPEG was written.
	Path string

	// Data holds the JPEG bytes that were written to Path.
	Data []byte

	Width      int
	Height     int
	CapturedAt time.Time
}
