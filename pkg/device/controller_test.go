package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-sight/internal/log"
	"github.com/teslashibe/go-sight/pkg/audio"
	"github.com/teslashibe/go-sight/pkg/peripheral"
	"github.com/teslashibe/go-sight/pkg/tts"
	"github.com/teslashibe/go-sight/pkg/vision"
)

const redMug = "A red mug on a wooden table."

var jpegStub = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

// manualTrigger reads whatever the test last set.
type manualTrigger struct {
	mu  sync.Mutex
	on  bool
	err error
}

func (m *manualTrigger) Set(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
}

func (m *manualTrigger) Read() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on, m.err
}

type fakeDisplay struct {
	mu  sync.Mutex
	ops []string
}

func (f *fakeDisplay) add(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
}

func (f *fakeDisplay) ShowStatus(text string) error {
	f.add("status:" + text)
	return nil
}

func (f *fakeDisplay) ShowScrolling(ctx context.Context, text string) error {
	f.add("scroll:" + text)
	return nil
}

func (f *fakeDisplay) Clear() error {
	f.add("clear")
	return nil
}

func (f *fakeDisplay) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeDisplay) Last() string {
	ops := f.Ops()
	if len(ops) == 0 {
		return ""
	}
	return ops[len(ops)-1]
}

func (f *fakeDisplay) count(op string) int {
	n := 0
	for _, o := range f.Ops() {
		if o == op {
			n++
		}
	}
	return n
}

type fakeAudio struct {
	mu          sync.Mutex
	clips       []audio.Clip
	synthesized [][]byte
	clipErr     error
}

func (f *fakeAudio) PlayClip(c audio.Clip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clips = append(f.clips, c)
	return f.clipErr
}

func (f *fakeAudio) PlaySynthesized(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.synthesized = append(f.synthesized, data)
	return nil
}

type harness struct {
	trigger   *manualTrigger
	indicator *peripheral.FakeIndicator
	haptic    *peripheral.FakeHaptic
	camera    *peripheral.FakeCamera
	display   *fakeDisplay
	audio     *fakeAudio
	describer *vision.Mock
	speech    *tts.Mock

	transitions [][2]Phase
	failures    []*PhaseError

	imagePath string
	ctrl      *Controller
}

func testTimings() Timings {
	return Timings{} // no delays, no debounce
}

func newHarness(t *testing.T, opts ...func(*harness)) *harness {
	t.Helper()
	h := &harness{
		trigger:   &manualTrigger{},
		indicator: &peripheral.FakeIndicator{},
		haptic:    &peripheral.FakeHaptic{},
		camera:    &peripheral.FakeCamera{Data: jpegStub},
		display:   &fakeDisplay{},
		audio:     &fakeAudio{},
		describer: vision.NewMock(redMug),
		speech:    tts.NewMock(),
		imagePath: filepath.Join(t.TempDir(), "snapshots", "snap.jpg"),
	}
	for _, o := range opts {
		o(h)
	}
	h.ctrl = h.build(t, testTimings())
	return h
}

func (h *harness) build(t *testing.T, timings Timings) *Controller {
	t.Helper()
	c, err := New(Deps{
		Trigger:     h.trigger,
		Indicator:   h.indicator,
		Haptic:      h.haptic,
		Camera:      h.camera,
		Display:     h.display,
		Audio:       h.audio,
		Describer:   h.describer,
		Synthesizer: h.speech,
		ImagePath:   h.imagePath,
	},
		WithTimings(timings),
		WithLogger(log.Discard()),
		WithTransitionHook(func(from, to Phase) {
			h.transitions = append(h.transitions, [2]Phase{from, to})
		}),
		WithErrorHook(func(e *PhaseError) {
			h.failures = append(h.failures, e)
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func (h *harness) step(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := h.ctrl.Step(context.Background()); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

// touch presses the sensor and steps once so the loop leaves Idle.
func (h *harness) touch(t *testing.T) {
	t.Helper()
	h.trigger.Set(true)
	h.step(t, 1)
}

func TestNewMissingDependencies(t *testing.T) {
	_, err := New(Deps{Trigger: &manualTrigger{}})
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("expected ErrMissingDependency, got %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		Idle:         "idle",
		Triggered:    "triggered",
		Capturing:    "capturing",
		Analyzing:    "analyzing",
		Synthesizing: "synthesizing",
		Presenting:   "presenting",
		Phase(42):    "phase(42)",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("%d: got %q, want %q", int(p), p.String(), want)
		}
	}
}

func TestIdleRefreshesEveryIteration(t *testing.T) {
	h := newHarness(t)
	h.step(t, 3)

	if got := h.display.count("status:" + StatusReady); got != 3 {
		t.Errorf("expected ready status 3 times, got %d", got)
	}
	if got := len(h.indicator.Events()); got != 3 {
		t.Errorf("expected indicator set 3 times, got %d", got)
	}
	if h.ctrl.Phase() != Idle {
		t.Errorf("expected Idle, got %s", h.ctrl.Phase())
	}
	if len(h.transitions) != 0 {
		t.Errorf("unexpected transitions %v", h.transitions)
	}
}

func TestSessionPhaseOrder(t *testing.T) {
	h := newHarness(t)

	h.step(t, 1)
	h.touch(t)
	h.step(t, 5)
	// Still held: no second session.
	h.step(t, 3)

	want := [][2]Phase{
		{Idle, Triggered},
		{Triggered, Capturing},
		{Capturing, Analyzing},
		{Analyzing, Synthesizing},
		{Synthesizing, Presenting},
		{Presenting, Idle},
	}
	if !reflect.DeepEqual(h.transitions, want) {
		t.Errorf("transitions = %v, want %v", h.transitions, want)
	}
	if h.ctrl.Phase() != Idle {
		t.Errorf("expected Idle, got %s", h.ctrl.Phase())
	}
}

func TestTouchIgnoredDuringSession(t *testing.T) {
	h := newHarness(t)
	h.touch(t)

	var ids []string
	for i := 0; i < 5; i++ {
		// Release and press again on every phase.
		h.trigger.Set(i%2 == 1)
		ids = append(ids, h.ctrl.Session().ID)
		h.step(t, 1)
	}

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("session changed mid-run: %v", ids)
		}
	}

	started := 0
	for _, tr := range h.transitions {
		if tr[1] == Triggered {
			started++
		}
	}
	if started != 1 {
		t.Errorf("expected one session start, got %d", started)
	}
	if h.describer.CallCount() != 1 {
		t.Errorf("expected one describe call, got %d", h.describer.CallCount())
	}
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.ctrl = h.build(t, Timings{PresentSettle: 20 * time.Millisecond})

	h.step(t, 1)
	h.touch(t)

	h.step(t, 4) // Triggered .. Synthesizing
	if h.ctrl.Phase() != Presenting {
		t.Fatalf("expected Presenting, got %s", h.ctrl.Phase())
	}

	start := time.Now()
	h.step(t, 1)
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond || elapsed > time.Second {
		t.Errorf("presenting took %v", elapsed)
	}
	if h.ctrl.Phase() != Idle {
		t.Fatalf("expected Idle after settle, got %s", h.ctrl.Phase())
	}

	images := h.describer.Images()
	if len(images) != 1 || !reflect.DeepEqual(images[0], jpegStub) {
		t.Errorf("describer got %v", images)
	}
	disk, err := os.ReadFile(h.imagePath)
	if err != nil || !reflect.DeepEqual(disk, jpegStub) {
		t.Errorf("image artifact = %v, %v", disk, err)
	}

	calls := h.speech.Calls()
	if len(calls) != 1 || calls[0].Text != redMug {
		t.Errorf("synthesize calls %+v", calls)
	}
	if len(h.audio.synthesized) != 1 || len(h.audio.synthesized[0]) == 0 {
		t.Error("expected synthesized audio to be played")
	}
	if h.display.count("scroll:"+redMug) != 1 {
		t.Errorf("display ops %v", h.display.Ops())
	}

	wantClips := []audio.Clip{audio.HoldStill, audio.AnalyzeView}
	if !reflect.DeepEqual(h.audio.clips, wantClips) {
		t.Errorf("clips = %v, want %v", h.audio.clips, wantClips)
	}
	if got := len(h.haptic.Pulses()); got != 3 {
		t.Errorf("expected 3 haptic pulses, got %d", got)
	}

	var modes []string
	for _, e := range h.indicator.Events() {
		modes = append(modes, e.Mode)
	}
	wantModes := []string{"on", "on", "off", "on", "blink"}
	if !reflect.DeepEqual(modes, wantModes) {
		t.Errorf("indicator = %v, want %v", modes, wantModes)
	}

	recs := h.ctrl.History().Records()
	if len(recs) != 1 || !recs[0].Completed {
		t.Fatalf("history %+v", recs)
	}
	if recs[0].DescriptionChars != len(redMug) || recs[0].AudioBytes == 0 {
		t.Errorf("record %+v", recs[0])
	}
	if recs[0].Phases[Presenting] < 20*time.Millisecond {
		t.Errorf("presenting duration %v", recs[0].Phases[Presenting])
	}

	h.step(t, 1)
	if h.display.Last() != "status:"+StatusReady || h.indicator.Last() != "on" {
		t.Errorf("ready state not restored: %s / %s", h.display.Last(), h.indicator.Last())
	}
}

func TestServiceErrorReturnsToIdle(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*harness)
		failedPhase Phase
		steps       int
		check       func(t *testing.T, h *harness, err error)
	}{
		{
			name: "describe timeout",
			setup: func(h *harness) {
				h.describer = vision.WithError(vision.WrapError("azure-openai", context.DeadlineExceeded))
			},
			failedPhase: Analyzing,
			steps:       3,
			check: func(t *testing.T, h *harness, err error) {
				var perr *vision.ProviderError
				if !errors.As(err, &perr) {
					t.Errorf("expected vision.ProviderError, got %T", err)
				}
				if h.speech.CallCount("Synthesize") != 0 {
					t.Error("synthesis must be skipped")
				}
			},
		},
		{
			name: "describe unauthorized",
			setup: func(h *harness) {
				h.describer = vision.WithError(&vision.APIError{StatusCode: 401, Message: "bad key", Provider: "azure-openai"})
			},
			failedPhase: Analyzing,
			steps:       3,
			check: func(t *testing.T, h *harness, err error) {
				var apiErr *vision.APIError
				if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
					t.Errorf("expected unauthorized APIError, got %v", err)
				}
			},
		},
		{
			name: "synthesize failure",
			setup: func(h *harness) {
				h.speech = tts.WithError(&tts.APIError{StatusCode: 503, Message: "Service Unavailable", Provider: "azure-speech"})
			},
			failedPhase: Synthesizing,
			steps:       4,
			check: func(t *testing.T, h *harness, err error) {
				var apiErr *tts.APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != 503 {
					t.Errorf("expected tts APIError, got %v", err)
				}
				if len(h.audio.synthesized) != 0 {
					t.Error("nothing should be played")
				}
			},
		},
		{
			name: "empty description",
			setup: func(h *harness) {
				h.describer = vision.NewMock("")
			},
			failedPhase: Analyzing,
			steps:       3,
			check: func(t *testing.T, h *harness, err error) {
				if !errors.Is(err, ErrEmptyDescription) {
					t.Errorf("expected ErrEmptyDescription, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.setup)
			h.touch(t)
			h.step(t, tt.steps)

			if h.ctrl.Phase() != Idle {
				t.Fatalf("expected Idle right after failure, got %s", h.ctrl.Phase())
			}
			if len(h.failures) != 1 {
				t.Fatalf("expected 1 failure, got %d", len(h.failures))
			}
			perr := h.failures[0]
			if perr.Phase != tt.failedPhase {
				t.Errorf("failed in %s, want %s", perr.Phase, tt.failedPhase)
			}
			if h.display.Last() != "status:"+StatusReady {
				t.Errorf("display shows %q, want ready", h.display.Last())
			}
			for _, op := range h.display.Ops() {
				if len(op) > 7 && op[:7] == "scroll:" {
					t.Error("presenting must be skipped")
				}
			}
			last := h.transitions[len(h.transitions)-1]
			if last != [2]Phase{tt.failedPhase, Idle} {
				t.Errorf("last transition %v", last)
			}

			recs := h.ctrl.History().Records()
			if len(recs) != 1 || recs[0].Completed || recs[0].FailedPhase != tt.failedPhase {
				t.Errorf("history %+v", recs)
			}

			tt.check(t, h, perr)

			// The loop keeps going.
			h.step(t, 2)
			if h.ctrl.Phase() != Idle {
				t.Errorf("expected to stay Idle, got %s", h.ctrl.Phase())
			}
		})
	}
}

func TestCaptureFailureAborts(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.camera = &peripheral.FakeCamera{}
	})
	h.touch(t)
	h.step(t, 2)

	if h.ctrl.Phase() != Idle {
		t.Fatalf("expected Idle, got %s", h.ctrl.Phase())
	}
	if len(h.failures) != 1 || h.failures[0].Phase != Capturing {
		t.Fatalf("failures %+v", h.failures)
	}
	if !errors.Is(h.failures[0], peripheral.ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", h.failures[0])
	}
	var devErr *peripheral.Error
	if !errors.As(h.failures[0], &devErr) || devErr.Device != "camera" {
		t.Errorf("expected camera peripheral error, got %v", h.failures[0])
	}
	if h.describer.CallCount() != 0 {
		t.Error("describe must not run after a failed capture")
	}
}

func TestPeripheralFailureInAcknowledge(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.haptic.Err = peripheral.Wrap("haptic", "pulse", errors.New("gpio busy"))
	})
	h.touch(t)
	h.step(t, 1)

	if h.ctrl.Phase() != Idle || len(h.failures) != 1 || h.failures[0].Phase != Triggered {
		t.Errorf("phase %s, failures %+v", h.ctrl.Phase(), h.failures)
	}
}

func TestCueFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.audio.clipErr = audio.ErrClipMissing
	})
	h.touch(t)
	h.step(t, 5)

	if len(h.failures) != 0 {
		t.Errorf("unexpected failures %+v", h.failures)
	}
	if recs := h.ctrl.History().Records(); len(recs) != 1 || !recs[0].Completed {
		t.Errorf("history %+v", recs)
	}
}

func TestTriggerReadError(t *testing.T) {
	h := newHarness(t)
	h.trigger.err = errors.New("gpio read")
	h.trigger.Set(true)
	h.step(t, 2)

	if h.ctrl.Phase() != Idle {
		t.Errorf("read errors must not start a session, phase %s", h.ctrl.Phase())
	}
}

func TestDebounceWindow(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_700_000_000, 0)
	h.ctrl = h.build(t, Timings{Debounce: time.Second})
	h.ctrl.now = func() time.Time { return now }

	h.touch(t)
	h.step(t, 5)
	if h.ctrl.Phase() != Idle {
		t.Fatalf("expected Idle, got %s", h.ctrl.Phase())
	}

	// A fresh press inside the window is dropped.
	h.trigger.Set(false)
	h.step(t, 1)
	now = now.Add(500 * time.Millisecond)
	h.touch(t)
	if h.ctrl.Phase() != Idle {
		t.Fatalf("touch inside debounce window started a session")
	}

	// Holding through the end of the window is not a new edge.
	now = now.Add(time.Second)
	h.step(t, 1)
	if h.ctrl.Phase() != Idle {
		t.Fatalf("held touch started a session")
	}

	h.trigger.Set(false)
	h.step(t, 1)
	h.touch(t)
	if h.ctrl.Phase() != Triggered {
		t.Errorf("expected Triggered after window, got %s", h.ctrl.Phase())
	}
}

func TestShortPulseIgnored(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_700_000_000, 0)
	h.ctrl = h.build(t, Timings{Hold: 100 * time.Millisecond})
	h.ctrl.now = func() time.Time { return now }

	// A single high sample followed by low is noise.
	h.touch(t)
	now = now.Add(50 * time.Millisecond)
	h.trigger.Set(false)
	h.step(t, 1)
	now = now.Add(time.Second)
	h.step(t, 3)
	if h.ctrl.Phase() != Idle {
		t.Fatalf("short pulse started a session, phase %s", h.ctrl.Phase())
	}
	if h.ctrl.Session() != nil {
		t.Fatal("expected no session")
	}

	// A press held for the full hold time starts one.
	h.touch(t)
	if h.ctrl.Phase() != Idle {
		t.Fatalf("session started before hold elapsed")
	}
	now = now.Add(60 * time.Millisecond)
	h.step(t, 1)
	if h.ctrl.Phase() != Idle {
		t.Fatalf("session started before hold elapsed")
	}
	now = now.Add(40 * time.Millisecond)
	h.step(t, 1)
	if h.ctrl.Phase() != Triggered {
		t.Errorf("expected Triggered after sustained press, got %s", h.ctrl.Phase())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.ctrl = h.build(t, Timings{Poll: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	if h.display.Last() != "clear" {
		t.Errorf("display not cleared, last op %q", h.display.Last())
	}
	if h.indicator.Last() != "off" {
		t.Errorf("indicator left %q", h.indicator.Last())
	}
}

func TestRunInterruptMidSession(t *testing.T) {
	started := make(chan struct{})
	h := newHarness(t, func(h *harness) {
		h.describer = &vision.Mock{
			DescribeFunc: func(ctx context.Context, image []byte) (*vision.Result, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
	})
	h.ctrl = h.build(t, Timings{Poll: time.Millisecond})
	h.trigger.Set(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.ctrl.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("session never reached analysis")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	if h.display.Last() != "clear" {
		t.Errorf("display not cleared, last op %q", h.display.Last())
	}
	if len(h.failures) != 0 {
		t.Errorf("interrupt reported as failure: %+v", h.failures)
	}
	recs := h.ctrl.History().Records()
	if len(recs) != 1 || recs[0].Completed || recs[0].FailedPhase != Analyzing {
		t.Errorf("history %+v", recs)
	}
}

func TestHistoryLimit(t *testing.T) {
	hist := NewHistory(2)
	for i := 0; i < 3; i++ {
		hist.add(Record{ID: string(rune('a' + i)), Completed: true, Duration: time.Duration(i+1) * time.Second})
	}
	hist.add(Record{ID: "x", Completed: false})

	recs := hist.Records()
	if len(recs) != 2 || recs[0].ID != "c" || recs[1].ID != "x" {
		t.Errorf("records %+v", recs)
	}

	s := hist.Summary()
	if s.Sessions != 2 || s.Completed != 1 || s.Failed != 1 || s.AverageDuration != 3*time.Second {
		t.Errorf("summary %+v", s)
	}
}
