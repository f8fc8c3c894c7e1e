package display

import (
	"context"
	"image"
	"image/draw"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Config tunes rendering and scroll timing.
type Config struct {
	// Step is the scroll distance per frame in pixels.
	Step float64

	// Tick is the delay between scroll frames. Zero scrolls as fast as the
	// surface accepts frames.
	Tick time.Duration

	// EndPause is how long the end of a scrolled text is held before the
	// screen is cleared.
	EndPause time.Duration

	// Padding is added below the last line when deciding whether to scroll.
	Padding int

	Logger *slog.Logger
}

// DefaultConfig returns the device rendering settings.
func DefaultConfig() Config {
	return Config{
		Step:     2.5,
		Tick:     0,
		EndPause: 2 * time.Second,
		Padding:  10,
		Logger:   slog.Default(),
	}
}

// Option configures a Presenter.
type Option func(*Config)

// WithStep sets the scroll step in pixels.
func WithStep(px float64) Option {
	return func(c *Config) { c.Step = px }
}

// WithTick sets the delay between scroll frames.
func WithTick(d time.Duration) Option {
	return func(c *Config) { c.Tick = d }
}

// WithEndPause sets the hold at the end of a scroll.
func WithEndPause(d time.Duration) Option {
	return func(c *Config) { c.EndPause = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// Presenter draws text onto a Surface. Calls are serialized.
type Presenter struct {
	surface Surface
	face    *Face
	cfg     Config
	logger  *slog.Logger

	mu     sync.Mutex
	canvas *image.Gray
}

// NewPresenter creates a presenter. A nil face falls back to BasicFace.
func NewPresenter(s Surface, face *Face, opts ...Option) *Presenter {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if face == nil {
		face = BasicFace()
	}
	return &Presenter{
		surface: s,
		face:    face,
		cfg:     cfg,
		logger:  cfg.Logger.With("component", "display.presenter"),
		canvas:  image.NewGray(s.Bounds()),
	}
}

// ShowStatus replaces the screen with a single line of text.
func (p *Presenter) ShowStatus(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearCanvas()
	p.drawLine(Sanitize(p.face, text), 0)
	return p.flush()
}

// ShowScrolling renders text wrapped to the screen width. Text that fits is
// drawn once and left on screen. Longer text scrolls up until its end is
// visible, holds for EndPause, and the screen is cleared.
func (p *Presenter) ShowScrolling(ctx context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	b := p.canvas.Bounds()
	lines := Wrap(p.face, text, b.Dx())
	lh := p.face.LineHeight()

	if err := p.render(lines, 0); err != nil {
		return err
	}

	total := TextHeight(len(lines), lh, p.cfg.Padding)
	offsets := ScrollOffsets(total, b.Dy(), p.cfg.Step)
	if len(offsets) == 0 {
		return nil
	}

	p.logger.Debug("scrolling text", "lines", len(lines), "frames", len(offsets))

	for _, y := range offsets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.render(lines, y); err != nil {
			return err
		}
		if err := sleep(ctx, p.cfg.Tick); err != nil {
			return err
		}
	}

	if err := sleep(ctx, p.cfg.EndPause); err != nil {
		return err
	}
	p.clearCanvas()
	return p.flush()
}

// Clear blanks the screen.
func (p *Presenter) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.clearCanvas()
	return p.flush()
}

func (p *Presenter) render(lines []string, offset int) error {
	p.clearCanvas()
	lh := p.face.LineHeight()
	for i, line := range lines {
		top := offset + i*lh
		if top+lh < 0 || top > p.canvas.Bounds().Dy() {
			continue
		}
		p.drawLine(line, top)
	}
	return p.flush()
}

func (p *Presenter) drawLine(text string, top int) {
	b := p.canvas.Bounds()
	d := font.Drawer{
		Dst:  p.canvas,
		Src:  image.White,
		Face: p.face,
		Dot:  fixed.P(b.Min.X, b.Min.Y+top+p.face.Ascent()),
	}
	d.DrawString(text)
}

func (p *Presenter) clearCanvas() {
	draw.Draw(p.canvas, p.canvas.Bounds(), image.Black, image.Point{}, draw.Src)
}

func (p *Presenter) flush() error {
	return p.surface.Draw(p.canvas.Bounds(), p.canvas, p.canvas.Bounds().Min)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
