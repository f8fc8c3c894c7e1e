package display

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Sanitize drops runes the face cannot draw. Whitespace becomes a plain
// space so wrapping still sees word boundaries.
func Sanitize(face *Face, text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case !unicode.IsPrint(r), !face.Covers(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Wrap splits text into lines no wider than width pixels. Words wider than
// a full line are broken between runes.
func Wrap(face *Face, text string, width int) []string {
	maxW := fixed.I(width)
	space := font.MeasureString(face, " ")

	var lines []string
	var cur strings.Builder
	var curW fixed.Int26_6

	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curW = 0
		}
	}

	for _, word := range strings.Fields(Sanitize(face, text)) {
		w := font.MeasureString(face, word)

		if w > maxW {
			flush()
			parts := breakWord(face, word, maxW)
			lines = append(lines, parts[:len(parts)-1]...)
			last := parts[len(parts)-1]
			cur.WriteString(last)
			curW = font.MeasureString(face, last)
			continue
		}

		if cur.Len() > 0 && curW+space+w > maxW {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
			curW += space
		}
		cur.WriteString(word)
		curW += w
	}
	flush()
	return lines
}

func breakWord(face *Face, word string, maxW fixed.Int26_6) []string {
	var parts []string
	var cur []rune
	var curW fixed.Int26_6
	for _, r := range word {
		adv, _ := face.GlyphAdvance(r)
		if len(cur) > 0 && curW+adv > maxW {
			parts = append(parts, string(cur))
			cur, curW = cur[:0], 0
		}
		cur = append(cur, r)
		curW += adv
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

// TextHeight is the scroll extent of n lines: line height times n plus
// bottom padding.
func TextHeight(lines, lineHeight, padding int) int {
	return lines*lineHeight + padding
}

// ScrollOffsets returns the vertical offsets of a scroll that starts at the
// top and moves up by step until the end of the text is on screen.
// It is empty when the text fits in the viewport.
func ScrollOffsets(total, viewport int, step float64) []int {
	if total <= viewport || step <= 0 {
		return nil
	}
	limit := float64(viewport - total)
	offsets := make([]int, 0, int(math.Ceil(-limit/step))+1)
	for y := 0.0; y > limit; y -= step {
		offsets = append(offsets, int(y))
	}
	return offsets
}
