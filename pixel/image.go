package pixel

import (
	"image"
	"image/color"

	"github.com/BeatGlow/yuvfb/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by most image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	clear(p.Pix)
}

// BGRAImage is a 32-bits per pixel image with the blue byte first, matching the
// memory layout of most little-endian 32bpp framebuffers.
type BGRAImage struct {
	Buffer
}

// NewBGRAImage returns a new, transparent black BGRAImage with the given size.
func NewBGRAImage(w, h int) *BGRAImage {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &BGRAImage{
		Buffer: Buffer{
			Rect:   image.Rect(0, 0, w, h),
			Pix:    make([]byte, w*h*4),
			Stride: w * 4,
		},
	}
}

func (p *BGRAImage) ColorModel() color.Model {
	return BGRAModel
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *BGRAImage) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

func (p *BGRAImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}

	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	return BGRA{B: s[0], G: s[1], R: s[2], A: s[3]}
}

func (p *BGRAImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.SetBGRA(x, y, bgraModel(c).(BGRA))
}

func (p *BGRAImage) SetBGRA(x, y int, c BGRA) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}

	i := p.PixOffset(x, y)
	s := p.Pix[i : i+4 : i+4]
	s[0] = c.B
	s[1] = c.G
	s[2] = c.R
	s[3] = c.A
}

func (p *BGRAImage) Fill(c color.Color) {
	v := bgraModel(c).(BGRA)
	pix := [4]byte{v.B, v.G, v.R, v.A}
	w := p.Rect.Dx() * 4
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		row := p.Pix[p.PixOffset(p.Rect.Min.X, y):]
		for i := 0; i < w; i += 4 {
			copy(row[i:], pix[:])
		}
	}
}

// Row returns the bytes of pixel row y, or nil if y is out of bounds.
func (p *BGRAImage) Row(y int) []byte {
	if y < p.Rect.Min.Y || y >= p.Rect.Max.Y {
		return nil
	}
	i := p.PixOffset(p.Rect.Min.X, y)
	return p.Pix[i : i+p.Rect.Dx()*4]
}

// Interface checks.
var (
	_ Image = (*BGRAImage)(nil)
)
