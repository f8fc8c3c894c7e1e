package peripheral

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-sight/internal/artifact"
)

// CameraConfig selects the capture device and still settings.
type CameraConfig struct {
	Device  int
	Width   int
	Height  int
	Quality int // JPEG quality 1-100

	// Settle is how long frames are drained after start so exposure and
	// white balance converge before the still is taken.
	Settle time.Duration
}

// DefaultCameraConfig matches the device preview configuration.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Device:  0,
		Width:   1024,
		Height:  768,
		Quality: 90,
		Settle:  time.Second,
	}
}

// GoCVCamera captures stills through OpenCV. The device is opened for
// each capture and released afterwards so it is idle between sessions.
type GoCVCamera struct {
	cfg    CameraConfig
	logger *slog.Logger
}

// NewGoCVCamera creates a camera. Nothing is opened until Capture.
func NewGoCVCamera(cfg CameraConfig, logger *slog.Logger) *GoCVCamera {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 90
	}
	return &GoCVCamera{cfg: cfg, logger: logger.With("component", "peripheral.camera")}
}

// Capture starts the camera, drains frames for the settle period, encodes
// one frame as JPEG to path and stops the camera.
func (c *GoCVCamera) Capture(ctx context.Context, path string) (*Frame, error) {
	vc, err := gocv.OpenVideoCapture(c.cfg.Device)
	if err != nil {
		if vc != nil {
			vc.Close()
		}
		return nil, Wrap("camera", "start", err)
	}
	defer vc.Close()

	if c.cfg.Width > 0 && c.cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
	}

	mat := gocv.NewMat()
	defer mat.Close()

	deadline := time.Now().Add(c.cfg.Settle)
	drained := 0
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, Wrap("camera", "settle", err)
		}
		if vc.Read(&mat) {
			drained++
			continue
		}
		time.Sleep(10 * time.Millisecond)
	}

	if !vc.Read(&mat) || mat.Empty() {
		return nil, Wrap("camera", "capture", ErrNoFrame)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), c.cfg.Quality})
	if err != nil {
		return nil, Wrap("camera", "encode", err)
	}
	defer buf.Close()

	data := append([]byte(nil), buf.GetBytes()...)
	if err := artifact.Write(path, data); err != nil {
		return nil, Wrap("camera", "write", err)
	}

	c.logger.Debug("captured frame",
		"path", path,
		"bytes", len(data),
		"width", mat.Cols(),
		"height", mat.Rows(),
		"settle_frames", drained,
	)

	return &Frame{
		Path:       path,
		Data:       data,
		Width:      mat.Cols(),
		Height:     mat.Rows(),
		CapturedAt: time.Now(),
	}, nil
}

// String describes the camera for logs.
func (c *GoCVCamera) String() string {
	return fmt.Sprintf("gocv:%d@%dx%d", c.cfg.Device, c.cfg.Width, c.cfg.Height)
}

// Verify GoCVCamera implements Camera at compile time.
var _ Camera = (*GoCVCamera)(nil)
