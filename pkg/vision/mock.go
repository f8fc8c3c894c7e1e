package vision

import (
	"context"
	"sync"
)

// Mock implements Describer for testing.
type Mock struct {
	// DescribeFunc is called when Describe is invoked.
	// If nil, returns a fixed description.
	DescribeFunc func(ctx context.Context, image []byte) (*Result, error)

	// HealthFunc is called when Health is invoked.
	HealthFunc func(ctx context.Context) error

	mu     sync.Mutex
	images [][]byte
}

// NewMock returns a mock that always answers with text.
func NewMock(text string) *Mock {
	return &Mock{
		DescribeFunc: func(ctx context.Context, image []byte) (*Result, error) {
			return &Result{Text: text, FinishReason: "stop"}, nil
		},
	}
}

// WithError returns a mock whose Describe and Health fail with err.
func WithError(err error) *Mock {
	return &Mock{
		DescribeFunc: func(ctx context.Context, image []byte) (*Result, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
	}
}

// Describe records the image and calls DescribeFunc.
func (m *Mock) Describe(ctx context.Context, image []byte) (*Result, error) {
	m.mu.Lock()
	m.images = append(m.images, append([]byte(nil), image...))
	m.mu.Unlock()

	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, image)
	}
	return &Result{Text: "Nothing to see.", FinishReason: "stop"}, nil
}

// Health calls HealthFunc.
func (m *Mock) Health(ctx context.Context) error {
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Close is a no-op.
func (m *Mock) Close() error { return nil }

// Images returns copies of every image passed to Describe.
func (m *Mock) Images() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.images))
	copy(out, m.images)
	return out
}

// CallCount returns the number of Describe calls.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.images)
}

// Verify Mock implements Describer at compile time.
var _ Describer = (*Mock)(nil)
