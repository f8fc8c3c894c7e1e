package tts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-sight/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hello world")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
		if result.Format.Extension != "mp3" {
			t.Errorf("expected mp3, got %s", result.Format.Extension)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		mock.Health(ctx)
		if mock.CallCount("Synthesize") != 1 || mock.CallCount("Health") != 1 {
			t.Errorf("unexpected calls %+v", mock.Calls())
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := tts.WithError(testErr)

	if _, err := mock.Synthesize(context.Background(), "Hello"); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if err := mock.Health(context.Background()); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
}

func TestMockWithLatency(t *testing.T) {
	mock := tts.WithLatency(tts.NewMock(), 50*time.Millisecond)

	t.Run("Synthesize has latency", func(t *testing.T) {
		start := time.Now()
		if _, err := mock.Synthesize(context.Background(), "Hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
			t.Errorf("expected at least 50ms latency, got %v", elapsed)
		}
	})

	t.Run("Context cancellation works", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := mock.Synthesize(ctx, "Hello"); err == nil {
			t.Error("expected context deadline error")
		}
	})
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		enc  tts.Encoding
		rate int
		ext  string
	}{
		{tts.EncodingMP3Mono16k, 16000, "mp3"},
		{tts.EncodingMP3Mono48k, 48000, "mp3"},
		{tts.EncodingOpusMono24k, 24000, "ogg"},
		{tts.EncodingWAVMono16k, 16000, "wav"},
		{tts.Encoding("something-new"), 16000, "bin"},
	}
	for _, tt := range tests {
		f := tts.FormatFor(tt.enc)
		if f.SampleRate != tt.rate || f.Extension != tt.ext || f.Channels != 1 {
			t.Errorf("FormatFor(%s) = %+v", tt.enc, f)
		}
	}
}

func TestEstimateDuration(t *testing.T) {
	// 16000 bytes at 128 kbps is one second.
	res := &tts.AudioResult{Audio: make([]byte, 16000), Format: tts.FormatFor(tts.EncodingMP3Mono16k)}
	if d := tts.EstimateDuration(res); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	res.Format = tts.FormatFor(tts.EncodingWAVMono16k)
	if d := tts.EstimateDuration(res); d != 0 {
		t.Errorf("expected 0 for wav, got %v", d)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithVoice("en-GB-SoniaNeural", "Female"),
		tts.WithLanguage("en-GB"),
		tts.WithTimeout(5*time.Second),
		tts.WithOutputFormat(tts.EncodingOpusMono16k),
	)

	if cfg.VoiceID != "en-GB-SoniaNeural" || cfg.Gender != "Female" {
		t.Errorf("unexpected voice %s/%s", cfg.VoiceID, cfg.Gender)
	}
	if cfg.Language != "en-GB" {
		t.Errorf("unexpected language %s", cfg.Language)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
	}
	if cfg.OutputFormat != tts.EncodingOpusMono16k {
		t.Errorf("unexpected format %s", cfg.OutputFormat)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("requires API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.Region = "westeurope"
		if err := cfg.Validate(); err != tts.ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("requires region or base URL", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "k"
		if err := cfg.Validate(); err != tts.ErrNoRegion {
			t.Errorf("expected ErrNoRegion, got %v", err)
		}
		cfg.BaseURL = "http://localhost"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("requires voice", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey, cfg.Region, cfg.VoiceID = "k", "eastus", ""
		if err := cfg.Validate(); err != tts.ErrNoVoice {
			t.Errorf("expected ErrNoVoice, got %v", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
		auth      bool
	}{
		{401, false, true},
		{403, false, true},
		{400, false, false},
		{429, true, false},
		{503, true, false},
	}
	for _, tt := range tests {
		e := &tts.APIError{StatusCode: tt.status, Provider: "azure-speech"}
		if e.IsRetryable() != tt.retryable || e.IsUnauthorized() != tt.auth {
			t.Errorf("status %d: retryable=%v auth=%v", tt.status, e.IsRetryable(), e.IsUnauthorized())
		}
	}
}
