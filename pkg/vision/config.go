package vision

import (
	"log/slog"
	"time"
)

// Config holds describer configuration.
type Config struct {
	// Connection
	Endpoint   string // https://<resource>.openai.azure.com
	APIKey     string
	Deployment string
	APIVersion string

	// Request defaults
	MaxTokens   int
	Instruction string
	Prompt      string

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring the describer.
type Option func(*Config)

// WithEndpoint sets the Azure OpenAI resource endpoint.
func WithEndpoint(url string) Option {
	return func(c *Config) { c.Endpoint = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithDeployment sets the model deployment name.
func WithDeployment(name string) Option {
	return func(c *Config) { c.Deployment = name }
}

// WithAPIVersion overrides the api-version query parameter.
func WithAPIVersion(v string) Option {
	return func(c *Config) { c.APIVersion = v }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithInstruction replaces the system instruction. Empty keeps the default.
func WithInstruction(s string) Option {
	return func(c *Config) {
		if s != "" {
			c.Instruction = s
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior for 429 and 5xx responses.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns the device defaults.
func DefaultConfig() *Config {
	return &Config{
		APIVersion:  "2023-12-01-preview",
		MaxTokens:   2000,
		Instruction: SystemInstruction,
		Prompt:      UserPrompt,
		Timeout:     30 * time.Second,
		MaxRetries:  2,
		RetryDelay:  250 * time.Millisecond,
		Logger:      slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return ErrNoEndpoint
	}
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Deployment == "" {
		return ErrNoDeployment
	}
	return nil
}
