package ledserver

// This file contains the output sink capability interface along with the
// pixel buffer shared by the sink implementations and an in memory sink used
// when no hardware is attached

import (
	"fmt"
	"math"
	"sync"

	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
)

// OutputSink accepts rendered pixels and presents them on a strip, simulator
// or remote device.  Indexes outside of the sink are ignored by SetPixel
type OutputSink interface {
	SetPixel(index int, c Color)
	Show() error
	SetBrightness(brightness float64) error
	Close() error
}

// PixelBuffer is the RGB buffer and brightness behind a sink
type PixelBuffer struct {
	pixels     []Color
	brightness float64
	sync.Mutex
}

// NewPixelBuffer returns an all black buffer at full brightness
func NewPixelBuffer(pixelCount int) *PixelBuffer {
	if pixelCount < 0 {
		pixelCount = 0
	}
	return &PixelBuffer{
		pixels:     make([]Color, pixelCount),
		brightness: 1.0,
	}
}

// Len returns the number of pixels held
func (buf *PixelBuffer) Len() int {
	return len(buf.pixels)
}

// SetPixel stores c at index
func (buf *PixelBuffer) SetPixel(index int, c Color) {
	buf.Lock()
	defer buf.Unlock()
	if index < 0 || index >= len(buf.pixels) {
		return
	}
	buf.pixels[index] = c
}

// SetBrightness sets the scaling applied to presented pixels, within [0, 1]
func (buf *PixelBuffer) SetBrightness(brightness float64) (err error) {
	if err = checkBrightness(brightness); err != nil {
		return err
	}
	buf.Lock()
	defer buf.Unlock()
	buf.brightness = brightness
	return nil
}

// Brightness returns the current brightness
func (buf *PixelBuffer) Brightness() float64 {
	buf.Lock()
	defer buf.Unlock()
	return buf.brightness
}

// Pixels returns a copy of the unscaled buffer
func (buf *PixelBuffer) Pixels() []Color {
	buf.Lock()
	defer buf.Unlock()
	return append([]Color(nil), buf.pixels...)
}

// Scaled returns a copy of the buffer with brightness applied
func (buf *PixelBuffer) Scaled() []Color {
	buf.Lock()
	defer buf.Unlock()
	out := make([]Color, len(buf.pixels))
	for i, c := range buf.pixels {
		out[i] = c.Scale(buf.brightness)
	}
	return out
}

// MockSink keeps frames in memory, standing in for a strip when none is attached
type MockSink struct {
	*PixelBuffer
	shows  int
	logger logxi.Logger
	mu     sync.Mutex
}

// NewMockSink creates an in memory sink with the given number of pixels
func NewMockSink(pixelCount int, logger logxi.Logger) *MockSink {
	if logger == nil {
		logger = logxi.NullLog
	}
	return &MockSink{
		PixelBuffer: NewPixelBuffer(pixelCount),
		logger:      logger,
	}
}

// Show records the presentation and traces the buffer
func (sink *MockSink) Show() error {
	sink.mu.Lock()
	sink.shows++
	sink.mu.Unlock()

	if sink.logger.IsTrace() {
		sink.logger.Trace("show", "pixels", fmt.Sprint(sink.Scaled()))
	}
	return nil
}

// Shows returns the number of frames presented so far
func (sink *MockSink) Shows() int {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	return sink.shows
}

// Close is a no-op for the in memory sink
func (sink *MockSink) Close() error {
	return nil
}

func checkBrightness(brightness float64) (err error) {
	if brightness < 0 || brightness > 1 || math.IsNaN(brightness) {
		return errors.Wrapf(ErrInvalidDescriptor, "brightness %v not within [0, 1]", brightness)
	}
	return nil
}
