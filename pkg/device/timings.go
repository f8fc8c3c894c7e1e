package device

import "time"

// Timings holds the loop's fixed delays.
type Timings struct {
	// Poll is the sleep between idle iterations.
	Poll time.Duration

	// IndicatorFlash is how long the indicator is dark when a touch is
	// acknowledged.
	IndicatorFlash time.Duration

	// HapticPulse is the length of one vibration pulse.
	HapticPulse time.Duration

	// HapticGap separates the two pulses that announce the description.
	HapticGap time.Duration

	// BlinkRate is the indicator toggle period while analyzing.
	BlinkRate time.Duration

	// PresentSettle holds the description on screen before returning to idle.
	PresentSettle time.Duration

	// Hold is how long the trigger must read touched before a session
	// starts. Shorter pulses are treated as noise.
	Hold time.Duration

	// Debounce is the minimum time after a session ends before a new touch
	// is accepted.
	Debounce time.Duration
}

// DefaultTimings returns the device defaults.
func DefaultTimings() Timings {
	return Timings{
		Poll:           50 * time.Millisecond,
		IndicatorFlash: 100 * time.Millisecond,
		HapticPulse:    100 * time.Millisecond,
		HapticGap:      100 * time.Millisecond,
		BlinkRate:      100 * time.Millisecond,
		PresentSettle:  5 * time.Second,
		Hold:           50 * time.Millisecond,
		Debounce:       250 * time.Millisecond,
	}
}
