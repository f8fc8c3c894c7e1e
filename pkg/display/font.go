package display

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Face is a font face that knows which runes it can draw.
type Face struct {
	font.Face
	covers func(r rune) bool
}

// Covers reports whether r has a glyph in the face.
func (f *Face) Covers(r rune) bool {
	if f.covers == nil {
		return true
	}
	return f.covers(r)
}

// LineHeight returns the distance between baselines in pixels.
func (f *Face) LineHeight() int {
	return f.Metrics().Height.Ceil()
}

// Ascent returns the baseline offset from the top of a line in pixels.
func (f *Face) Ascent() int {
	return f.Metrics().Ascent.Ceil()
}

// LoadFace parses a TrueType/OpenType font at the given pixel size.
func LoadFace(path string, size float64) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return ParseFace(data, size)
}

// ParseFace builds a face from font file contents.
func ParseFace(data []byte, size float64) (*Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	return &Face{
		Face: face,
		covers: func(r rune) bool {
			idx, err := f.GlyphIndex(nil, r)
			return err == nil && idx != sfnt.GlyphIndex(0)
		},
	}, nil
}

// BasicFace returns the built-in 7x13 bitmap face.
func BasicFace() *Face {
	bf := basicfont.Face7x13
	return &Face{
		Face: bf,
		covers: func(r rune) bool {
			for _, rng := range bf.Ranges {
				if r >= rng.Low && r < rng.High {
					return true
				}
			}
			return false
		},
	}
}
