package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	Region  string
	BaseURL string // overrides the region-derived endpoint

	// Voice configuration
	Language string
	VoiceID  string
	Gender   string

	// Audio output
	OutputFormat Encoding

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the subscription key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithRegion sets the Azure region, e.g. "westeurope".
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithVoice sets the voice name and its gender.
func WithVoice(voiceID, gender string) Option {
	return func(c *Config) {
		c.VoiceID = voiceID
		c.Gender = gender
	}
}

// WithLanguage sets the xml:lang of the SSML document.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithOutputFormat sets the audio output format.
func WithOutputFormat(format Encoding) Option {
	return func(c *Config) {
		c.OutputFormat = format
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the device voice: US English, Christopher, 16kHz MP3.
func DefaultConfig() *Config {
	return &Config{
		Language:     "en-US",
		VoiceID:      "en-US-ChristopherNeural",
		Gender:       "Male",
		OutputFormat: EncodingMP3Mono16k,
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryDelay:   250 * time.Millisecond,
		Logger:       slog.Default(),
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
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.Region == "" && c.BaseURL == "" {
		return ErrNoRegion
	}
	if c.VoiceID == "" {
		return ErrNoVoice
	}
	return nil
}
