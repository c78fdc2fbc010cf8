package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"gitlab.com/tinyland/lab/statuspanel/pkg/display"
)

// Frame composes the 1-bit OLED image. All drawing is deterministic from a
// View, so repainting any region is idempotent.
type Frame struct {
	img  *image.Gray
	face font.Face
}

// NewFrame returns an all-black frame of the standard panel size.
func NewFrame() *Frame {
	return &Frame{
		img:  image.NewGray(image.Rect(0, 0, display.Width, display.Height)),
		face: basicfont.Face7x13,
	}
}

// Image exposes the backing image for pushing to the sink.
func (f *Frame) Image() *image.Gray {
	return f.img
}

// Redraw clears region and repaints every line band intersecting it from
// the given view.
func (f *Frame) Redraw(region image.Rectangle, v View) {
	f.clear(region)

	if region.Overlaps(RegionHostLine) {
		f.drawHostLine(v.Stats)
	}
	if region.Overlaps(RegionGaugeLine) {
		f.drawGaugeLine(v.Stats)
	}
	if region.Overlaps(RegionStatusLine) {
		f.drawStatusLine(v.Net)
	}
	if region.Overlaps(RegionModeLine) {
		f.drawModeLine(v.Mode)
	}
}

// Goodbye paints the shutdown frame.
func (f *Frame) Goodbye() {
	f.clear(RegionFull)
	f.text(28, 24, "Goodbye")
}

const (
	glyphW  = 7  // basicfont.Face7x13 advance
	textPad = 12 // x offset of text following an 8px icon
)

func (f *Frame) drawHostLine(s StatsView) {
	cpu := s.CPULoad
	cpuX := display.Width - glyphW*len(cpu)
	maxHost := (cpuX - textPad - glyphW) / glyphW

	f.drawIcon(0, 4, iconCPU)
	f.text(textPad, 0, truncate(s.Hostname, maxHost))
	f.text(cpuX, 0, cpu)
}

func (f *Frame) drawGaugeLine(s StatsView) {
	half := display.Width / 2
	f.drawIcon(0, 20, iconDisk)
	f.text(textPad, 16, truncate(s.Disk, (half-textPad)/glyphW))
	f.drawIcon(half, 20, iconTemp)
	f.text(half+textPad, 16, truncate(s.Temp, (half-textPad)/glyphW))
}

func (f *Frame) drawStatusLine(n NetView) {
	f.drawIcon(0, 36, linkIcon(n.Link))
	f.text(textPad, 32, truncate(n.Text, (display.Width-textPad)/glyphW))
}

func (f *Frame) drawModeLine(m ModeView) {
	marker := " "
	if m.Pressed {
		marker = "*"
	}
	page := fmt.Sprintf("%s%d", marker, m.Page)
	pageX := display.Width - glyphW*len(page)

	label := m.Label
	if m.Status != "" {
		label = m.Status
	}
	f.text(0, 48, truncate(label, (pageX-glyphW)/glyphW))
	f.text(pageX, 48, page)
}

// clear blanks a region of the frame.
func (f *Frame) clear(r image.Rectangle) {
	draw.Draw(f.img, r, image.NewUniform(color.Gray{Y: 0x00}), image.Point{}, draw.Src)
}

// text draws s with its line band starting at y (baseline at y+12).
func (f *Frame) text(x, y int, s string) {
	d := font.Drawer{
		Dst:  f.img,
		Src:  image.NewUniform(color.Gray{Y: 0xFF}),
		Face: f.face,
		Dot:  fixed.P(x, y+12),
	}
	d.DrawString(s)
}

// drawIcon blits an 8×8 glyph with its top-left corner at (x, y).
func (f *Frame) drawIcon(x, y int, ic icon) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if ic[row]&(1<<(7-col)) != 0 {
				f.img.SetGray(x+col, y+row, color.Gray{Y: 0xFF})
			}
		}
	}
}

// truncate cuts s to at most max characters. Display strings are ASCII.
func truncate(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	return s[:max]
}
