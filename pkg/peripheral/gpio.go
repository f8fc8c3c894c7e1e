package peripheral

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error
)

// InitHost loads the periph.io host drivers once per process.
func InitHost() error {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	if hostErr != nil {
		return Wrap("host", "init", hostErr)
	}
	return nil
}

func lookupPin(device, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, Wrap(device, "open", fmt.Errorf("%w: %s", ErrPinNotFound, name))
	}
	return p, nil
}

// GPIOIndicator drives an LED on a GPIO output line.
type GPIOIndicator struct {
	pin    gpio.PinOut
	logger *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewGPIOIndicator opens the named pin (e.g. "GPIO12") as an output, off.
func NewGPIOIndicator(name string) (*GPIOIndicator, error) {
	p, err := lookupPin("indicator", name)
	if err != nil {
		return nil, err
	}
	return newGPIOIndicator(p)
}

func newGPIOIndicator(p gpio.PinOut) (*GPIOIndicator, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, Wrap("indicator", "open", err)
	}
	return &GPIOIndicator{
		pin:    p,
		logger: slog.Default().With("component", "peripheral.indicator"),
	}, nil
}

// On lights the LED, cancelling any blink.
func (g *GPIOIndicator) On() error {
	return g.set(gpio.High)
}

// Off darkens the LED, cancelling any blink.
func (g *GPIOIndicator) Off() error {
	return g.set(gpio.Low)
}

func (g *GPIOIndicator) set(l gpio.Level) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopBlinkLocked()
	return Wrap("indicator", "set", g.pin.Out(l))
}

// Blink toggles the LED every rate in the background, starting lit.
func (g *GPIOIndicator) Blink(rate time.Duration) error {
	if rate <= 0 {
		return Wrap("indicator", "blink", fmt.Errorf("invalid rate %v", rate))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopBlinkLocked()

	if err := g.pin.Out(gpio.High); err != nil {
		return Wrap("indicator", "blink", err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	g.stop, g.done = stop, done
	logger := g.logger

	go func() {
		defer close(done)
		ticker := time.NewTicker(rate)
		defer ticker.Stop()
		level := gpio.High
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				level = !level
				if err := g.pin.Out(level); err != nil {
					logger.Debug("blink toggle failed", "level", level, "error", err)
				}
			}
		}
	}()
	return nil
}

func (g *GPIOIndicator) stopBlinkLocked() {
	if g.stop == nil {
		return
	}
	close(g.stop)
	<-g.done
	g.stop, g.done = nil, nil
}

// Close turns the LED off and stops blinking.
func (g *GPIOIndicator) Close() error {
	return g.Off()
}

// GPIOHaptic drives a vibration motor switched by a GPIO output.
type GPIOHaptic struct {
	pin gpio.PinOut
}

// NewGPIOHaptic opens the named pin (e.g. "GPIO25") as an output, off.
func NewGPIOHaptic(name string) (*GPIOHaptic, error) {
	p, err := lookupPin("haptic", name)
	if err != nil {
		return nil, err
	}
	return newGPIOHaptic(p)
}

func newGPIOHaptic(p gpio.PinOut) (*GPIOHaptic, error) {
	if err := p.Out(gpio.Low); err != nil {
		return nil, Wrap("haptic", "open", err)
	}
	return &GPIOHaptic{pin: p}, nil
}

// Pulse switches the motor on for d. The motor is always switched off
// again, even when ctx is cancelled mid-pulse.
func (h *GPIOHaptic) Pulse(ctx context.Context, d time.Duration) error {
	if err := h.pin.Out(gpio.High); err != nil {
		return Wrap("haptic", "pulse", err)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
	}

	if err := h.pin.Out(gpio.Low); err != nil {
		return Wrap("haptic", "pulse", err)
	}
	return Wrap("haptic", "pulse", waitErr)
}

// Close switches the motor off.
func (h *GPIOHaptic) Close() error {
	return Wrap("haptic", "close", h.pin.Out(gpio.Low))
}

// GPIOTrigger reads the touch sensor line.
type GPIOTrigger struct {
	pin        gpio.PinIn
	activeHigh bool
}

// NewGPIOTrigger opens the named pin as an input with a pull-up.
// A capacitive sensor drives the line high while touched; set activeLow
// for a switch that pulls the line to ground instead.
func NewGPIOTrigger(name string, activeLow bool) (*GPIOTrigger, error) {
	p, err := lookupPin("trigger", name)
	if err != nil {
		return nil, err
	}
	return newGPIOTrigger(p, activeLow)
}

func newGPIOTrigger(p gpio.PinIn, activeLow bool) (*GPIOTrigger, error) {
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, Wrap("trigger", "open", err)
	}
	return &GPIOTrigger{pin: p, activeHigh: !activeLow}, nil
}

// Read samples the line.
func (t *GPIOTrigger) Read() (bool, error) {
	return t.pin.Read() == gpio.Level(t.activeHigh), nil
}

// Verify implementations at compile time.
var (
	_ Indicator = (*GPIOIndicator)(nil)
	_ Haptic    = (*GPIOHaptic)(nil)
	_ Trigger   = (*GPIOTrigger)(nil)
)
