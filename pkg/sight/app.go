// Package sight wires the device: configuration in, hardware and cloud
// clients built, control loop run until interrupted.
package sight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-sight/internal/config"
	"github.com/teslashibe/go-sight/pkg/audio"
	"github.com/teslashibe/go-sight/pkg/device"
	"github.com/teslashibe/go-sight/pkg/display"
	"github.com/teslashibe/go-sight/pkg/peripheral"
	"github.com/teslashibe/go-sight/pkg/tts"
	"github.com/teslashibe/go-sight/pkg/vision"
)

// App owns every component and its lifecycle.
type App struct {
	config *config.Config
	logger *slog.Logger

	// Hardware
	indicator *peripheral.GPIOIndicator
	haptic    *peripheral.GPIOHaptic
	trigger   *peripheral.GPIOTrigger
	camera    *peripheral.GoCVCamera
	screen    *display.SSD1306
	presenter *display.Presenter
	player    *audio.Player

	// Cloud
	describer *vision.Azure
	speech    *tts.Azure

	ctrl *device.Controller
}

// New creates an application from a loaded configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("sight: nil config")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		config: cfg,
		logger: logger.With("component", "sight.app"),
	}, nil
}

// Init opens the hardware and builds the service clients.
// Call this after New() and before Run(). Any failure is fatal.
func (a *App) Init() error {
	if err := a.initServices(); err != nil {
		return fmt.Errorf("services: %w", err)
	}
	if err := a.initHardware(); err != nil {
		return fmt.Errorf("hardware: %w", err)
	}
	if err := a.initAudio(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	ctrl, err := device.New(device.Deps{
		Trigger:     a.trigger,
		Indicator:   a.indicator,
		Haptic:      a.haptic,
		Camera:      a.camera,
		Display:     a.presenter,
		Audio:       a.player,
		Describer:   a.describer,
		Synthesizer: a.speech,
		ImagePath:   a.config.Paths.Image,
	}, device.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.ctrl = ctrl

	a.logger.Info("initialized",
		"camera", a.camera.String(),
		"deployment", a.config.Vision.Deployment,
		"voice", a.speech.VoiceID(),
	)
	return nil
}

// Run plays the ready cue and runs the control loop.
// Blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.ctrl == nil {
		return errors.New("sight: Run before Init")
	}
	if err := a.player.PlayClip(audio.DeviceReady); err != nil {
		a.logger.Warn("ready cue failed", "error", err)
	}
	return a.ctrl.Run(ctx)
}

// Shutdown releases every component. Safe to call after a failed Init.
func (a *App) Shutdown() {
	if a.player != nil {
		a.player.Stop()
	}
	if a.indicator != nil {
		a.warnClose("indicator", a.indicator.Close())
	}
	if a.haptic != nil {
		a.warnClose("haptic", a.haptic.Close())
	}
	if a.screen != nil {
		a.warnClose("display", a.screen.Close())
	}
	if a.describer != nil {
		a.describer.Close()
	}
	if a.speech != nil {
		a.speech.Close()
	}
	a.logger.Info("shutdown complete")
}

func (a *App) warnClose(name string, err error) {
	if err != nil {
		a.logger.Warn("close failed", "device", name, "error", err)
	}
}

func (a *App) initServices() error {
	var err error
	a.describer, err = newDescriber(a.config, a.logger)
	if err != nil {
		return err
	}
	a.speech, err = newSpeech(a.config, a.logger)
	return err
}

func (a *App) initHardware() error {
	hw := a.config.Hardware

	if err := peripheral.InitHost(); err != nil {
		return err
	}

	var err error
	if a.indicator, err = peripheral.NewGPIOIndicator(hw.LEDPin); err != nil {
		return err
	}
	if a.haptic, err = peripheral.NewGPIOHaptic(hw.MotorPin); err != nil {
		return err
	}
	if a.trigger, err = peripheral.NewGPIOTrigger(hw.TouchPin, hw.TouchActiveLow); err != nil {
		return err
	}

	camCfg := peripheral.DefaultCameraConfig()
	camCfg.Device = hw.CameraDevice
	camCfg.Width, camCfg.Height = hw.CameraWidth, hw.CameraHeight
	a.camera = peripheral.NewGoCVCamera(camCfg, a.logger)

	if a.screen, err = display.OpenSSD1306("", 0, 0); err != nil {
		return peripheral.Wrap("display", "open", err)
	}
	a.presenter = display.NewPresenter(a.screen, a.loadFace(), display.WithLogger(a.logger))
	return nil
}

func (a *App) initAudio() error {
	if err := audio.CheckClips(a.config.Paths.ClipsDir); err != nil {
		a.logger.Warn("audio cues incomplete", "error", err)
	}
	var err error
	a.player, err = audio.NewPlayer(audio.Config{
		Command:      a.config.AudioPlayer,
		ClipsDir:     a.config.Paths.ClipsDir,
		ResponsePath: a.config.Paths.Response,
		Logger:       a.logger,
	})
	return err
}

// loadFace falls back to the built-in bitmap face when the configured font
// cannot be read.
func (a *App) loadFace() *display.Face {
	face, err := display.LoadFace(a.config.Paths.Font, a.config.FontSize)
	if err != nil {
		a.logger.Warn("font unavailable, using built-in face", "path", a.config.Paths.Font, "error", err)
		return display.BasicFace()
	}
	return face
}

func newDescriber(cfg *config.Config, logger *slog.Logger) (*vision.Azure, error) {
	return vision.NewAzure(
		vision.WithEndpoint(cfg.Vision.Endpoint),
		vision.WithAPIKey(cfg.Vision.APIKey),
		vision.WithDeployment(cfg.Vision.Deployment),
		vision.WithAPIVersion(cfg.Vision.APIVersion),
		vision.WithMaxTokens(cfg.Vision.MaxTokens),
		vision.WithInstruction(cfg.Vision.Instruction),
		vision.WithLogger(logger),
	)
}

func newSpeech(cfg *config.Config, logger *slog.Logger) (*tts.Azure, error) {
	return tts.NewAzure(
		tts.WithAPIKey(cfg.Speech.Key),
		tts.WithRegion(cfg.Speech.Region),
		tts.WithLanguage(cfg.Speech.Language),
		tts.WithVoice(cfg.Speech.Voice, cfg.Speech.Gender),
		tts.WithOutputFormat(tts.Encoding(cfg.Speech.OutputFormat)),
		tts.WithLogger(logger),
	)
}

// NewClients builds the vision and speech clients alone, for tools that run
// without device hardware.
func NewClients(cfg *config.Config, logger *slog.Logger) (*vision.Azure, *tts.Azure, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d, err := newDescriber(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	s, err := newSpeech(cfg, logger)
	if err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, s, nil
}
