// Package display provides the panel's framebuffer sink: a 128×64 1-bit
// SSD1306 OLED addressed over I2C, plus an in-memory implementation used
// by tests and off-hardware runs.
//
// The sink is single-writer by contract. Only the render coordinator holds
// a Sink; the invariant is structural rather than lock-enforced.
package display

import (
	"image"
	"image/draw"
	"sync"
)

// Width and Height are the fixed dimensions of the panel's display.
const (
	Width  = 128
	Height = 64
)

// Sink is a monochrome framebuffer the coordinator paints into. It matches
// the draw surface of periph.io display devices.
type Sink interface {
	// Bounds returns the drawable area.
	Bounds() image.Rectangle

	// Draw copies src (starting at sp) into the rectangle r of the display.
	Draw(r image.Rectangle, src image.Image, sp image.Point) error

	// Halt turns the display off and releases it.
	Halt() error
}

// Memory is an in-process Sink. It records every draw so tests can assert
// on the final frame, and stands in for the OLED when running with -sim.
type Memory struct {
	mu     sync.Mutex
	img    *image.Gray
	draws  int
	halted bool
}

// NewMemory returns a Memory sink with the standard panel dimensions.
func NewMemory() *Memory {
	return &Memory{
		img: image.NewGray(image.Rect(0, 0, Width, Height)),
	}
}

// Bounds returns the drawable area.
func (m *Memory) Bounds() image.Rectangle {
	return m.img.Bounds()
}

// Draw copies src into the sink.
func (m *Memory) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	draw.Draw(m.img, r, src, sp, draw.Src)
	m.draws++
	return nil
}

// Halt marks the sink as released.
func (m *Memory) Halt() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.halted = true
	return nil
}

// Image returns a copy of the current frame contents.
func (m *Memory) Image() *image.Gray {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := image.NewGray(m.img.Bounds())
	copy(cp.Pix, m.img.Pix)
	return cp
}

// Draws returns how many Draw calls the sink has received.
func (m *Memory) Draws() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draws
}

// Halted reports whether Halt has been called.
func (m *Memory) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}
