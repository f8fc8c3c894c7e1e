// Package audio plays the device's spoken cues and synthesized responses
// through an external command-line player.
package audio

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/teslashibe/go-sight/internal/artifact"
)

// Config configures a Player.
type Config struct {
	// Command is the player invocation; the file path is appended.
	Command []string

	// ClipsDir holds the pre-recorded cues.
	ClipsDir string

	// ResponsePath is the reusable slot for the latest synthesized response.
	ResponsePath string

	Logger *slog.Logger
}

// process is a running playback.
type process interface {
	Stop() error
}

type startFunc func(argv []string) (process, error)

// Player plays one file at a time. Starting a new file stops the previous
// one. Playback never blocks the caller.
type Player struct {
	cfg    Config
	logger *slog.Logger
	start  startFunc

	mu      sync.Mutex
	current process
}

// NewPlayer creates a player.
func NewPlayer(cfg Config) (*Player, error) {
	if len(cfg.Command) == 0 {
		return nil, ErrNoCommand
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Player{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "audio.player"),
		start:  startExec,
	}, nil
}

// PlayClip starts a pre-recorded cue and returns immediately.
func (p *Player) PlayClip(c Clip) error {
	path := filepath.Join(p.cfg.ClipsDir, c.File())
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrClipMissing, path)
	}
	return p.play(path)
}

// PlaySynthesized stores data in the response slot and starts playing it.
func (p *Player) PlaySynthesized(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyAudio
	}
	if err := artifact.Write(p.cfg.ResponsePath, data); err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return p.play(p.cfg.ResponsePath)
}

// Stop ends any playback in progress.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	if p.current == nil {
		return nil
	}
	err := p.current.Stop()
	p.current = nil
	return err
}

func (p *Player) play(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.stopLocked(); err != nil {
		p.logger.Debug("stop previous playback", "error", err)
	}

	argv := append(append([]string(nil), p.cfg.Command...), path)
	proc, err := p.start(argv)
	if err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	p.current = proc

	p.logger.Debug("playing", "file", path)
	return nil
}

// execProcess is a player subprocess reaped by a background goroutine.
type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func startExec(argv []string) (process, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	ep := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		cmd.Wait()
		close(ep.done)
	}()
	return ep, nil
}

// Stop kills the process if it is still playing.
func (e *execProcess) Stop() error {
	select {
	case <-e.done:
		return nil
	default:
	}
	if err := e.cmd.Process.Kill(); err != nil {
		return err
	}
	<-e.done
	return nil
}
