// Package tts turns description text into spoken audio.
//
// The Azure provider wraps the text in an SSML document naming the language
// and voice, asks the Speech REST endpoint for compressed mono audio and
// returns the raw bytes. Persisting and playing the bytes is the caller's job.
//
// Example usage:
//
//	provider, _ := tts.NewAzure(
//	    tts.WithAPIKey(os.Getenv("SPEECH_KEY")),
//	    tts.WithRegion(os.Getenv("SPEECH_REGION")),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "A red mug on a wooden table.")
//	// result.Audio contains MP3 bytes
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data in the specified format.
	Audio []byte

	// Format describes the audio encoding and sample rate.
	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the total request time in milliseconds.
	LatencyMs int64
}

// AudioFormat describes the audio encoding parameters.
type AudioFormat struct {
	// Encoding is the provider output format name.
	Encoding Encoding

	// SampleRate in Hz.
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int

	// Extension is the file extension players expect, without the dot.
	Extension string
}

// Encoding names an Azure Speech output format.
type Encoding string

const (
	EncodingMP3Mono16k  Encoding = "audio-16khz-128kbitrate-mono-mp3"
	EncodingMP3Mono24k  Encoding = "audio-24khz-96kbitrate-mono-mp3"
	EncodingMP3Mono48k  Encoding = "audio-48khz-192kbitrate-mono-mp3"
	EncodingOpusMono16k Encoding = "ogg-16khz-16bit-mono-opus"
	EncodingOpusMono24k Encoding = "ogg-24khz-16bit-mono-opus"
	EncodingWAVMono16k  Encoding = "riff-16khz-16bit-mono-pcm"
	EncodingWAVMono24k  Encoding = "riff-24khz-16bit-mono-pcm"
)

// FormatFor describes a known encoding. Unknown encodings report 16kHz mono
// with a "bin" extension.
func FormatFor(enc Encoding) AudioFormat {
	switch enc {
	case EncodingMP3Mono16k:
		return AudioFormat{Encoding: enc, SampleRate: 16000, Channels: 1, Extension: "mp3"}
	case EncodingMP3Mono24k:
		return AudioFormat{Encoding: enc, SampleRate: 24000, Channels: 1, Extension: "mp3"}
	case EncodingMP3Mono48k:
		return AudioFormat{Encoding: enc, SampleRate: 48000, Channels: 1, Extension: "mp3"}
	case EncodingOpusMono16k:
		return AudioFormat{Encoding: enc, SampleRate: 16000, Channels: 1, Extension: "ogg"}
	case EncodingOpusMono24k:
		return AudioFormat{Encoding: enc, SampleRate: 24000, Channels: 1, Extension: "ogg"}
	case EncodingWAVMono16k:
		return AudioFormat{Encoding: enc, SampleRate: 16000, Channels: 1, Extension: "wav"}
	case EncodingWAVMono24k:
		return AudioFormat{Encoding: enc, SampleRate: 24000, Channels: 1, Extension: "wav"}
	default:
		return AudioFormat{Encoding: enc, SampleRate: 16000, Channels: 1, Extension: "bin"}
	}
}

// EstimateDuration gives a rough playback length for bytes of a constant
// bitrate MP3 format. Other formats return zero.
func EstimateDuration(res *AudioResult) time.Duration {
	var kbps int
	switch res.Format.Encoding {
	case EncodingMP3Mono16k:
		kbps = 128
	case EncodingMP3Mono24k:
		kbps = 96
	case EncodingMP3Mono48k:
		kbps = 192
	default:
		return 0
	}
	bits := int64(len(res.Audio)) * 8
	return time.Duration(bits * int64(time.Second) / int64(kbps*1000))
}
