package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/go-sight/internal/httpc"
)

const providerAzure = "azure-speech"

// Azure implements Provider for the Azure Speech text-to-speech REST API.
type Azure struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewAzure creates a new Azure Speech provider.
func NewAzure(opts ...Option) (*Azure, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.tts.speech.microsoft.com", cfg.Region)
	}

	return &Azure{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.azure"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (a *Azure) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	start := time.Now()

	body := []byte(BuildSSML(a.config.Language, a.config.Gender, a.config.VoiceID, text))

	resp, err := a.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerAzure, fmt.Errorf("read response: %w", err))
	}
	if len(audio) == 0 {
		return nil, WrapError(providerAzure, ErrEmptyAudio)
	}

	latency := time.Since(start).Milliseconds()
	a.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", a.config.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    FormatFor(a.config.OutputFormat),
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Health lists voices, which checks both connectivity and the key.
func (a *Azure) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/cognitiveservices/voices/list", nil)
	if err != nil {
		return WrapError(providerAzure, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return WrapError(providerAzure, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return a.parseError(resp)
	}
	return nil
}

// Close releases resources.
func (a *Azure) Close() error {
	httpc.CloseIdle(a.client)
	return nil
}

// VoiceID returns the configured voice.
func (a *Azure) VoiceID() string {
	return a.config.VoiceID
}

func (a *Azure) newRequest(ctx context.Context, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/cognitiveservices/v1", bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerAzure, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.APIKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", string(a.config.OutputFormat))
	return req, nil
}

// doWithRetry performs the request with retry logic.
func (a *Azure) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(providerAzure, ctx.Err())
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := a.newRequest(ctx, body)
		if err != nil {
			return nil, err
		}

		resp, err := a.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerAzure, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = a.parseError(resp)
			resp.Body.Close()
			a.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads an error response. Azure Speech errors are mostly empty
// bodies, so the status text stands in when nothing is returned.
func (a *Azure) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	message := strings.TrimSpace(string(body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerAzure,
	}
}

// Verify Azure implements Provider at compile time.
var _ Provider = (*Azure)(nil)
