package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-sight/internal/httpc"
)

const providerAzure = "azure-openai"

// Azure describes images with an Azure OpenAI chat-completions deployment.
type Azure struct {
	config *Config
	http   *http.Client
	logger *slog.Logger
	url    string
}

// NewAzure creates a describer bound to one deployment.
func NewAzure(opts ...Option) (*Azure, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	u := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		endpoint, url.PathEscape(cfg.Deployment), url.QueryEscape(cfg.APIVersion))

	return &Azure{
		config: cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "vision.azure"),
		url:    u,
	}, nil
}

// Describe sends one request carrying the system instruction and the image.
func (a *Azure) Describe(ctx context.Context, image []byte) (*Result, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	start := time.Now()

	payload := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: a.config.Instruction},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: a.config.Prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: DataURI(image)}},
			}},
		},
		MaxTokens: a.config.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerAzure, fmt.Errorf("marshal payload: %w", err))
	}

	resp, err := a.doWithRetry(ctx, "POST", a.url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.parseError(resp)
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, WrapError(providerAzure, fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if len(result.Choices) == 0 {
		return nil, WrapError(providerAzure, fmt.Errorf("%w: no choices returned", ErrMalformedResponse))
	}

	choice := result.Choices[0]
	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return nil, WrapError(providerAzure, fmt.Errorf("%w: empty content (finish_reason=%s)",
			ErrMalformedResponse, choice.FinishReason))
	}

	latency := time.Since(start).Milliseconds()
	a.logger.Debug("described image",
		"image_bytes", len(image),
		"chars", len(text),
		"tokens", result.Usage.TotalTokens,
		"latency_ms", latency,
	)

	return &Result{
		Text:         text,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
		LatencyMs: latency,
	}, nil
}

// Health sends a one-token text-only completion to verify key and deployment.
func (a *Azure) Health(ctx context.Context) error {
	body, err := json.Marshal(chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return WrapError(providerAzure, err)
	}

	req, err := a.newRequest(ctx, "POST", a.url, body)
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
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
	httpc.CloseIdle(a.http)
	return nil
}

func (a *Azure) newRequest(ctx context.Context, method, u string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerAzure, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.config.APIKey)
	return req, nil
}

// doWithRetry performs the request, retrying 429 and 5xx with linear backoff.
func (a *Azure) doWithRetry(ctx context.Context, method, u string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapError(providerAzure, ctx.Err())
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := a.newRequest(ctx, method, u, body)
		if err != nil {
			return nil, err
		}

		resp, err := a.http.Do(req)
		if err != nil {
			lastErr = WrapError(providerAzure, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			a.logger.Warn("request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
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

// parseError reads an OpenAI-style error body.
func (a *Azure) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	code := ""
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
		code = errResp.Error.Code
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Code:       code,
		Provider:   providerAzure,
	}
}

// API wire types
type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Verify Azure implements Describer at compile time.
var _ Describer = (*Azure)(nil)
