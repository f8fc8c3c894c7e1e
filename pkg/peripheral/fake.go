package peripheral

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-sight/internal/artifact"
)

// IndicatorEvent is one state change recorded by FakeIndicator.
type IndicatorEvent struct {
	Mode string // "on", "off", "blink"
	Rate time.Duration
}

// FakeIndicator records every call. Err, when set, is returned by all calls.
type FakeIndicator struct {
	mu     sync.Mutex
	events []IndicatorEvent
	Err    error
}

func (f *FakeIndicator) record(e IndicatorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.Err
}

// On records an "on" event.
func (f *FakeIndicator) On() error { return f.record(IndicatorEvent{Mode: "on"}) }

// Off records an "off" event.
func (f *FakeIndicator) Off() error { return f.record(IndicatorEvent{Mode: "off"}) }

// Blink records a "blink" event.
func (f *FakeIndicator) Blink(rate time.Duration) error {
	return f.record(IndicatorEvent{Mode: "blink", Rate: rate})
}

// Events returns a copy of the recorded events.
func (f *FakeIndicator) Events() []IndicatorEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]IndicatorEvent(nil), f.events...)
}

// Last returns the most recent mode, or "" if none.
func (f *FakeIndicator) Last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return ""
	}
	return f.events[len(f.events)-1].Mode
}

// FakeHaptic records pulse durations without sleeping.
type FakeHaptic struct {
	mu     sync.Mutex
	pulses []time.Duration
	Err    error
}

// Pulse records d.
func (f *FakeHaptic) Pulse(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulses = append(f.pulses, d)
	return f.Err
}

// Pulses returns the recorded durations.
func (f *FakeHaptic) Pulses() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.pulses...)
}

// ScriptedTrigger replays a fixed sequence of samples, then repeats the
// final one forever. An empty script reads inactive.
type ScriptedTrigger struct {
	mu     sync.Mutex
	script []bool
	reads  int
	Err    error
}

// NewScriptedTrigger creates a trigger that returns samples in order.
func NewScriptedTrigger(samples ...bool) *ScriptedTrigger {
	return &ScriptedTrigger{script: samples}
}

// Read returns the next scripted sample.
func (s *ScriptedTrigger) Read() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.reads
	s.reads++
	if s.Err != nil {
		return false, s.Err
	}
	if len(s.script) == 0 {
		return false, nil
	}
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	return s.script[i], nil
}

// Reads returns how many times Read was called.
func (s *ScriptedTrigger) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// FakeCamera writes Data to the requested path on every capture.
type FakeCamera struct {
	// Data is the JPEG payload written by Capture. CaptureFunc overrides it.
	Data []byte

	// CaptureFunc, when set, replaces the default behavior.
	CaptureFunc func(ctx context.Context, path string) (*Frame, error)

	mu    sync.Mutex
	paths []string
}

// Capture writes Data to path, replacing any previous artifact.
func (f *FakeCamera) Capture(ctx context.Context, path string) (*Frame, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.CaptureFunc != nil {
		return f.CaptureFunc(ctx, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, Wrap("camera", "settle", err)
	}
	if len(f.Data) == 0 {
		return nil, Wrap("camera", "capture", ErrNoFrame)
	}
	data := append([]byte(nil), f.Data...)
	if err := artifact.Write(path, data); err != nil {
		return nil, Wrap("camera", "write", err)
	}
	return &Frame{Path: path, Data: data, CapturedAt: time.Now()}, nil
}

// Paths returns every path passed to Capture.
func (f *FakeCamera) Paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// Verify fakes implement the interfaces at compile time.
var (
	_ Indicator = (*FakeIndicator)(nil)
	_ Haptic    = (*FakeHaptic)(nil)
	_ Trigger   = (*ScriptedTrigger)(nil)
	_ Camera    = (*FakeCamera)(nil)
)
