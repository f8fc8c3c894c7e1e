// Package config loads go-sight settings from the environment.
//
// An optional .env file is read first; real environment variables always win.
// Missing required keys are a startup error, never a runtime one.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Required environment keys.
const (
	EnvVisionEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvVisionAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvVisionDeployment = "AZURE_OPENAI_DEPLOYMENT"
	EnvSpeechKey        = "SPEECH_KEY"
	EnvSpeechRegion     = "SPEECH_REGION"
)

// Defaults for optional settings.
const (
	DefaultAPIVersion     = "2023-12-01-preview"
	DefaultMaxTokens      = 2000
	DefaultSpeechLanguage = "en-US"
	DefaultSpeechVoice    = "en-US-ChristopherNeural"
	DefaultSpeechGender   = "Male"
	DefaultOutputFormat   = "audio-16khz-128kbitrate-mono-mp3"
	DefaultTouchPin       = "GPIO16"
	DefaultLEDPin         = "GPIO12"
	DefaultMotorPin       = "GPIO25"
	DefaultCameraWidth    = 1024
	DefaultCameraHeight   = 768
	DefaultImagePath      = "snapshots/snap.jpg"
	DefaultResponsePath   = "audio/response.mp3"
	DefaultClipsDir       = "includes/audio_snippets"
	DefaultFontPath       = "includes/fonts/PixelOperator.ttf"
	DefaultFontSize       = 16
	DefaultAudioPlayer    = "mpg123 -q"
	DefaultLogLevel       = "info"
)

// ConfigError reports every required key that was absent.
type ConfigError struct {
	Missing []string
	Invalid []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// Vision holds the Azure OpenAI settings.
type Vision struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	MaxTokens  int

	// Instruction overrides the default system instruction when set.
	Instruction string
}

// Speech holds the Azure Speech settings.
type Speech struct {
	Key          string
	Region       string
	Language     string
	Voice        string
	Gender       string
	OutputFormat string
}

// Hardware names the GPIO lines and camera used by the device.
type Hardware struct {
	TouchPin       string
	TouchActiveLow bool
	LEDPin         string
	MotorPin       string
	CameraDevice   int
	CameraWidth    int
	CameraHeight   int
}

// Paths are the filesystem locations the device reads and overwrites.
type Paths struct {
	Image    string
	Response string
	ClipsDir string
	Font     string
}

// Config is the full device configuration, built once at startup.
type Config struct {
	Vision      Vision
	Speech      Speech
	Hardware    Hardware
	Paths       Paths
	FontSize    float64
	AudioPlayer []string
	LogLevel    string
}

// DefaultEnvFile is read by Load when no env file is named.
const DefaultEnvFile = ".env"

// Load reads envFile and then the process environment. An empty envFile
// means DefaultEnvFile, which may be absent. A named file must exist.
func Load(envFile string) (*Config, error) {
	optional := envFile == ""
	if optional {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !optional || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	cfg := &Config{
		Vision: Vision{
			Endpoint:   strings.TrimSuffix(r.required(EnvVisionEndpoint), "/"),
			APIKey:     r.required(EnvVisionAPIKey),
			Deployment: r.required(EnvVisionDeployment),
			APIVersion: r.str("AZURE_OPENAI_API_VERSION", DefaultAPIVersion),
			MaxTokens:  r.int("VISION_MAX_TOKENS", DefaultMaxTokens),

			Instruction: r.str("VISION_INSTRUCTION", ""),
		},
		Speech: Speech{
			Key:          r.required(EnvSpeechKey),
			Region:       r.required(EnvSpeechRegion),
			Language:     r.str("SPEECH_LANGUAGE", DefaultSpeechLanguage),
			Voice:        r.str("SPEECH_VOICE", DefaultSpeechVoice),
			Gender:       r.str("SPEECH_GENDER", DefaultSpeechGender),
			OutputFormat: r.str("SPEECH_OUTPUT_FORMAT", DefaultOutputFormat),
		},
		Hardware: Hardware{
			TouchPin:       r.str("TOUCH_PIN", DefaultTouchPin),
			TouchActiveLow: r.bool("TOUCH_ACTIVE_LOW", false),
			LEDPin:         r.str("LED_PIN", DefaultLEDPin),
			MotorPin:       r.str("MOTOR_PIN", DefaultMotorPin),
			CameraDevice:   r.int("CAMERA_DEVICE", 0),
			CameraWidth:    r.int("CAMERA_WIDTH", DefaultCameraWidth),
			CameraHeight:   r.int("CAMERA_HEIGHT", DefaultCameraHeight),
		},
		Paths: Paths{
			Image:    r.str("IMAGE_PATH", DefaultImagePath),
			Response: r.str("RESPONSE_AUDIO_PATH", DefaultResponsePath),
			ClipsDir: r.str("CLIPS_DIR", DefaultClipsDir),
			Font:     r.str("FONT_PATH", DefaultFontPath),
		},
		FontSize:    float64(r.int("FONT_SIZE", DefaultFontSize)),
		AudioPlayer: strings.Fields(r.str("AUDIO_PLAYER", DefaultAudioPlayer)),
		LogLevel:    r.str("LOG_LEVEL", DefaultLogLevel),
	}

	if cfg.Vision.MaxTokens <= 0 {
		r.invalid = append(r.invalid, "VISION_MAX_TOKENS")
	}
	if len(cfg.AudioPlayer) == 0 {
		r.invalid = append(r.invalid, "AUDIO_PLAYER")
	}

	if len(r.missing) > 0 || len(r.invalid) > 0 {
		return nil, &ConfigError{Missing: r.missing, Invalid: r.invalid}
	}
	return cfg, nil
}

type reader struct {
	lookup  func(string) (string, bool)
	missing []string
	invalid []string
}

func (r *reader) get(key string) string {
	v, ok := r.lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func (r *reader) required(key string) string {
	v := r.get(key)
	if v == "" {
		r.missing = append(r.missing, key)
	}
	return v
}

func (r *reader) str(key, def string) string {
	if v := r.get(key); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := r.get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.invalid = append(r.invalid, key)
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v := r.get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.invalid = append(r.invalid, key)
		return def
	}
	return b
}
