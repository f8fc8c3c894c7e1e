// Package display renders status lines and scrolling descriptions onto a
// small monochrome screen.
package display

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
)

// Surface is a drawable screen. *ssd1306.Dev satisfies it.
type Surface interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// SSD1306 is an OLED panel on an I²C bus.
type SSD1306 struct {
	*ssd1306.Dev
	bus i2c.BusCloser
}

// OpenSSD1306 opens the panel on the named I²C bus ("" for the first one).
// The host drivers must already be initialized.
func OpenSSD1306(busName string, width, height int) (*SSD1306, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	opts := ssd1306.DefaultOpts
	if width > 0 && height > 0 {
		opts.W, opts.H = width, height
	}

	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("init ssd1306: %w", err)
	}
	return &SSD1306{Dev: dev, bus: bus}, nil
}

// Close blanks the panel and releases the bus.
func (s *SSD1306) Close() error {
	haltErr := s.Dev.Halt()
	if err := s.bus.Close(); err != nil {
		return err
	}
	return haltErr
}

// Verify SSD1306 implements Surface at compile time.
var _ Surface = (*SSD1306)(nil)
