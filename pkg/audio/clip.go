package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Clip names a pre-recorded cue in the clips directory.
type Clip string

// Cues played by the device.
const (
	DeviceReady Clip = "device_ready"
	HoldStill   Clip = "hold_still"
	AnalyzeView Clip = "analyze_view"
)

// Clips lists every cue the device expects to find on disk.
var Clips = []Clip{DeviceReady, HoldStill, AnalyzeView}

// File returns the clip's file name.
func (c Clip) File() string {
	return string(c) + ".mp3"
}

// Sentinel errors.
var (
	ErrNoCommand   = errors.New("audio: no player command configured")
	ErrEmptyAudio  = errors.New("audio: empty audio data")
	ErrClipMissing = errors.New("audio: clip not found")
)

// CheckClips reports every clip missing from dir in a single error.
func CheckClips(dir string) error {
	var missing []string
	for _, c := range Clips {
		if _, err := os.Stat(filepath.Join(dir, c.File())); err != nil {
			missing = append(missing, c.File())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in %s: %s", ErrClipMissing, dir, strings.Join(missing, ", "))
	}
	return nil
}
