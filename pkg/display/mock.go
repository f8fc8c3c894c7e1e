package display

import (
	"image"
	"image/draw"
	"sync"
)

// MockSurface records every frame drawn to it.
type MockSurface struct {
	bounds image.Rectangle

	mu     sync.Mutex
	frames []*image.Gray
	Err    error
}

// NewMockSurface creates a surface of the given size.
func NewMockSurface(width, height int) *MockSurface {
	return &MockSurface{bounds: image.Rect(0, 0, width, height)}
}

// Bounds returns the surface size.
func (m *MockSurface) Bounds() image.Rectangle {
	return m.bounds
}

// Draw copies the frame.
func (m *MockSurface) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	frame := image.NewGray(m.bounds)
	draw.Draw(frame, r, src, sp, draw.Src)
	m.frames = append(m.frames, frame)
	return nil
}

// Frames returns the recorded frames.
func (m *MockSurface) Frames() []*image.Gray {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*image.Gray(nil), m.frames...)
}

// FrameCount returns the number of frames drawn.
func (m *MockSurface) FrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// Last returns the most recent frame, or nil.
func (m *MockSurface) Last() *image.Gray {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.frames) == 0 {
		return nil
	}
	return m.frames[len(m.frames)-1]
}

// Lit counts non-black pixels in a frame.
func Lit(frame *image.Gray) int {
	n := 0
	for _, v := range frame.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Verify MockSurface implements Surface at compile time.
var _ Surface = (*MockSurface)(nil)
