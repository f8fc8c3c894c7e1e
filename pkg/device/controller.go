package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-sight/pkg/audio"
	"github.com/teslashibe/go-sight/pkg/peripheral"
	"github.com/teslashibe/go-sight/pkg/tts"
	"github.com/teslashibe/go-sight/pkg/vision"
)

// Display is the screen as seen by the loop.
type Display interface {
	ShowStatus(text string) error
	ShowScrolling(ctx context.Context, text string) error
	Clear() error
}

// Audio plays cues and the synthesized response without waiting for them.
type Audio interface {
	PlayClip(c audio.Clip) error
	PlaySynthesized(data []byte) error
}

// Describer turns an encoded still into a description.
type Describer interface {
	Describe(ctx context.Context, image []byte) (*vision.Result, error)
}

// Synthesizer turns text into encoded speech.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*tts.AudioResult, error)
}

// Deps are the collaborators the loop drives.
type Deps struct {
	Trigger   peripheral.Trigger
	Indicator peripheral.Indicator
	Haptic    peripheral.Haptic
	Camera    peripheral.Camera

	Display     Display
	Audio       Audio
	Describer   Describer
	Synthesizer Synthesizer

	// ImagePath is the fixed location the still is written to each session.
	ImagePath string
}

func (d Deps) validate() error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("trigger", d.Trigger != nil)
	check("indicator", d.Indicator != nil)
	check("haptic", d.Haptic != nil)
	check("camera", d.Camera != nil)
	check("display", d.Display != nil)
	check("audio", d.Audio != nil)
	check("describer", d.Describer != nil)
	check("synthesizer", d.Synthesizer != nil)
	check("image path", d.ImagePath != "")
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingDependency, missing)
	}
	return nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimings overrides DefaultTimings.
func WithTimings(t Timings) Option {
	return func(c *Controller) { c.timings = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTransitionHook registers fn to be called on every phase change,
// synchronously from the loop.
func WithTransitionHook(fn func(from, to Phase)) Option {
	return func(c *Controller) { c.onTransition = fn }
}

// WithErrorHook registers fn to receive every session failure. Interrupts
// are not reported.
func WithErrorHook(fn func(*PhaseError)) Option {
	return func(c *Controller) { c.onError = fn }
}

// WithHistory sets where finished sessions are recorded.
func WithHistory(h *History) Option {
	return func(c *Controller) { c.history = h }
}

// Controller is the device state machine. Step and Run must be called
// from a single goroutine.
type Controller struct {
	deps    Deps
	timings Timings
	logger  *slog.Logger
	history *History

	onTransition func(from, to Phase)
	onError      func(*PhaseError)
	now          func() time.Time

	phase       Phase
	session     *Session
	lastTouched bool
	lastEnd     time.Time
	armed       bool
	pressedAt   time.Time
}

// New creates a controller in Idle.
func New(deps Deps, opts ...Option) (*Controller, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		deps:    deps,
		timings: DefaultTimings(),
		logger:  slog.Default(),
		now:     time.Now,
		phase:   Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.history == nil {
		c.history = NewHistory(DefaultHistorySize)
	}
	c.logger = c.logger.With("component", "device.controller")
	return c, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Session returns the active session, or nil in Idle.
func (c *Controller) Session() *Session {
	return c.session
}

// History returns the finished-session records.
func (c *Controller) History() *History {
	return c.history
}

// Run steps the loop until ctx is cancelled, then clears the display and
// switches the indicator off. Cancellation is a clean exit and returns nil.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("control loop started")
	defer c.shutdown()

	for {
		if err := c.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if c.phase == Idle {
			if err := sleep(ctx, c.timings.Poll); err != nil {
				return nil
			}
		}
	}
}

// Step samples the trigger and performs one phase. In Idle it refreshes the
// ready state and starts a session once a press has been held for
// Timings.Hold, outside the Debounce window. In any other
// phase it runs that phase's actions and advances, or returns to Idle on
// failure. Phase failures are absorbed; only ctx cancellation is returned.
func (c *Controller) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	touched, err := c.deps.Trigger.Read()
	if err != nil {
		c.logger.Warn("trigger read failed", "error", err)
		touched = false
	}
	rising := touched && !c.lastTouched
	c.lastTouched = touched

	if c.phase == Idle {
		c.refreshIdle()
		if c.held(touched, rising) {
			c.begin()
		}
		return nil
	}

	if rising {
		c.logger.Debug("touch ignored during session",
			"session_id", c.session.ID,
			"phase", c.phase.String(),
		)
	}

	phase := c.phase
	start := c.now()
	err = c.runPhase(ctx, phase)
	c.session.phases[phase] = c.now().Sub(start)

	if err != nil {
		if ctx.Err() != nil {
			c.abort(&PhaseError{SessionID: c.session.ID, Phase: phase, Err: ctx.Err()}, true)
			return ctx.Err()
		}
		c.abort(&PhaseError{SessionID: c.session.ID, Phase: phase, Err: err}, false)
		return nil
	}

	c.logger.Debug("phase done",
		"session_id", c.session.ID,
		"phase", phase.String(),
		"latency_ms", c.session.phases[phase].Milliseconds(),
	)

	next := phase.next()
	if next == Idle {
		c.finish()
		return nil
	}
	c.transition(next)
	return nil
}

// held tracks the current press and reports true once it has lasted
// Timings.Hold. Each press is reported at most once.
func (c *Controller) held(touched, rising bool) bool {
	now := c.now()
	switch {
	case rising:
		c.armed, c.pressedAt = true, now
	case !touched:
		if c.armed {
			c.logger.Debug("press released before hold", "held_ms", now.Sub(c.pressedAt).Milliseconds())
		}
		c.armed = false
	}
	if !c.armed || now.Sub(c.pressedAt) < c.timings.Hold {
		return false
	}
	c.armed = false
	return true
}

func (c *Controller) begin() {
	now := c.now()
	if !c.lastEnd.IsZero() && now.Sub(c.lastEnd) < c.timings.Debounce {
		c.logger.Debug("touch within debounce window", "since_last_ms", now.Sub(c.lastEnd).Milliseconds())
		return
	}
	c.session = newSession(now)
	c.logger.Info("session started", "session_id", c.session.ID)
	c.transition(Triggered)
}

func (c *Controller) runPhase(ctx context.Context, p Phase) error {
	switch p {
	case Triggered:
		return c.acknowledge(ctx)
	case Capturing:
		return c.capture(ctx)
	case Analyzing:
		return c.analyze(ctx)
	case Synthesizing:
		return c.synthesize(ctx)
	case Presenting:
		return c.present(ctx)
	}
	return fmt.Errorf("no actions for phase %s", p)
}

// acknowledge confirms the touch: cue, indicator flash and a haptic pulse.
func (c *Controller) acknowledge(ctx context.Context) error {
	c.cue(audio.HoldStill)

	if err := c.deps.Indicator.Off(); err != nil {
		return err
	}
	if err := sleep(ctx, c.timings.IndicatorFlash); err != nil {
		return err
	}
	if err := c.deps.Indicator.On(); err != nil {
		return err
	}
	return c.deps.Haptic.Pulse(ctx, c.timings.HapticPulse)
}

func (c *Controller) capture(ctx context.Context) error {
	if err := c.deps.Display.ShowStatus(StatusCapturing); err != nil {
		return err
	}
	frame, err := c.deps.Camera.Capture(ctx, c.deps.ImagePath)
	if err != nil {
		return err
	}
	if frame == nil || len(frame.Data) == 0 {
		return ErrEmptyCapture
	}
	c.session.Frame = frame
	return nil
}

func (c *Controller) analyze(ctx context.Context) error {
	c.cue(audio.AnalyzeView)

	if err := c.deps.Display.ShowStatus(StatusAnalyzing); err != nil {
		return err
	}
	if err := c.deps.Indicator.Blink(c.timings.BlinkRate); err != nil {
		return err
	}

	res, err := c.deps.Describer.Describe(ctx, c.session.Frame.Data)
	if err != nil {
		return err
	}
	if res == nil || res.Text == "" {
		return ErrEmptyDescription
	}
	c.session.Description = res.Text

	c.logger.Info("image described",
		"session_id", c.session.ID,
		"chars", len(res.Text),
		"truncated", res.Truncated(),
	)
	return nil
}

func (c *Controller) synthesize(ctx context.Context) error {
	if err := c.deps.Haptic.Pulse(ctx, c.timings.HapticPulse); err != nil {
		return err
	}
	if err := sleep(ctx, c.timings.HapticGap); err != nil {
		return err
	}
	if err := c.deps.Haptic.Pulse(ctx, c.timings.HapticPulse); err != nil {
		return err
	}

	res, err := c.deps.Synthesizer.Synthesize(ctx, c.session.Description)
	if err != nil {
		return err
	}
	if res == nil || len(res.Audio) == 0 {
		return tts.ErrEmptyAudio
	}
	c.session.Audio = res.Audio

	// Playback runs on its own; a player failure leaves the text on screen.
	if err := c.deps.Audio.PlaySynthesized(res.Audio); err != nil {
		c.logger.Warn("response playback failed",
			"session_id", c.session.ID,
			"error", err,
		)
	}
	return nil
}

func (c *Controller) present(ctx context.Context) error {
	if err := c.deps.Display.ShowScrolling(ctx, c.session.Description); err != nil {
		return err
	}
	return sleep(ctx, c.timings.PresentSettle)
}

// cue starts a clip and does not wait for it.
func (c *Controller) cue(clip audio.Clip) {
	if err := c.deps.Audio.PlayClip(clip); err != nil {
		c.logger.Warn("cue failed", "clip", string(clip), "error", err)
	}
}

// refreshIdle redraws the ready state. It runs on every idle iteration.
func (c *Controller) refreshIdle() {
	if err := c.deps.Indicator.On(); err != nil {
		c.logger.Warn("indicator on failed", "error", err)
	}
	if err := c.deps.Display.ShowStatus(StatusReady); err != nil {
		c.logger.Warn("ready status failed", "error", err)
	}
}

func (c *Controller) finish() {
	end := c.now()
	rec := c.session.record(end, nil)
	c.history.add(rec)

	c.logger.Info("session complete",
		"session_id", rec.ID,
		"duration_ms", rec.Duration.Milliseconds(),
		"capture_ms", rec.Phases[Capturing].Milliseconds(),
		"describe_ms", rec.Phases[Analyzing].Milliseconds(),
		"synthesize_ms", rec.Phases[Synthesizing].Milliseconds(),
	)

	c.lastEnd = end
	c.session = nil
	c.transition(Idle)
}

// abort ends the session early. A failed session redraws the ready state
// at once; an interrupted one leaves cleanup to shutdown.
func (c *Controller) abort(perr *PhaseError, interrupted bool) {
	end := c.now()
	c.history.add(c.session.record(end, perr))

	if interrupted {
		c.logger.Info("session interrupted",
			"session_id", perr.SessionID,
			"phase", perr.Phase.String(),
		)
	} else {
		c.logger.Error("session failed",
			"session_id", perr.SessionID,
			"phase", perr.Phase.String(),
			"error", perr.Err,
		)
		if c.onError != nil {
			c.onError(perr)
		}
	}

	c.lastEnd = end
	c.session = nil
	c.transition(Idle)
	if !interrupted {
		c.refreshIdle()
	}
}

func (c *Controller) transition(to Phase) {
	from := c.phase
	c.phase = to
	if c.onTransition != nil {
		c.onTransition(from, to)
	}
}

func (c *Controller) shutdown() {
	if err := c.deps.Display.Clear(); err != nil {
		c.logger.Warn("clear display failed", "error", err)
	}
	if err := c.deps.Indicator.Off(); err != nil {
		c.logger.Warn("indicator off failed", "error", err)
	}
	c.logger.Info("control loop stopped")
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
