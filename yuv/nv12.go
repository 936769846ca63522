// Package yuv implements the NV12 semi-planar YCbCr 4:2:0 frame format.
//
// An NV12 frame holds a full resolution luma (Y) plane followed by a half
// resolution plane of interleaved Cb, Cr samples:
//
//	YYYYYYYY
//	YYYYYYYY
//	UVUVUVUV
//
// A tightly packed frame is therefore width*height*3/2 bytes long.
package yuv

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
)

// Errors.
var (
	ErrDimensions = errors.New("yuv: frame dimensions must be positive and even")
	ErrFrameSize  = errors.New("yuv: frame size mismatch")
	ErrShortFrame = errors.New("yuv: short frame")
)

// FrameSize returns the number of bytes in a tightly packed NV12 frame of w by h pixels.
func FrameSize(w, h int) (int, error) {
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return 0, fmt.Errorf("%w: got %dx%d", ErrDimensions, w, h)
	}
	return w * h * 3 / 2, nil
}

// NV12 is an in-memory NV12 frame.
type NV12 struct {
	// Y are the luma samples, one per pixel.
	Y []byte

	// UV are the interleaved Cb, Cr samples, one pair per 2x2 pixel block.
	UV []byte

	// YStride is the Y stride (in bytes) between vertically adjacent pixels.
	YStride int

	// UVStride is the UV stride (in bytes) between vertically adjacent chroma rows.
	UVStride int

	// Rect is the frame bounding box.
	Rect image.Rectangle
}

// NewNV12 returns a new, tightly packed NV12 frame. The frame is video range
// black, that is luma 0x10 and chroma 0x80.
func NewNV12(r image.Rectangle) (*NV12, error) {
	size, err := FrameSize(r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}
	b := make([]byte, size)
	n := r.Dx() * r.Dy()
	for i := range b[:n] {
		b[i] = 0x10
	}
	for i := range b[n:] {
		b[n+i] = 0x80
	}
	return wrap(b, r), nil
}

// FromBytes interprets b as a tightly packed w by h NV12 frame. The frame
// shares memory with b.
func FromBytes(b []byte, w, h int) (*NV12, error) {
	size, err := FrameSize(w, h)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrFrameSize, w, h, size, len(b))
	}
	return wrap(b, image.Rect(0, 0, w, h)), nil
}

func wrap(b []byte, r image.Rectangle) *NV12 {
	n := r.Dx() * r.Dy()
	return &NV12{
		Y:        b[:n:n],
		UV:       b[n:],
		YStride:  r.Dx(),
		UVStride: r.Dx(),
		Rect:     r,
	}
}

// ReadFrame reads exactly one w by h frame from r.
func ReadFrame(r io.Reader, w, h int) (*NV12, error) {
	size, err := FrameSize(w, h)
	if err != nil {
		return nil, err
	}
	b := make([]byte, size)
	if n, err := io.ReadFull(r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: read %d of %d bytes", ErrShortFrame, n, size)
		}
		return nil, err
	}
	return wrap(b, image.Rect(0, 0, w, h)), nil
}

// ReadFile reads a w by h frame from the named file. The file must contain
// exactly one frame.
func ReadFile(name string, w, h int) (*NV12, error) {
	size, err := FrameSize(w, h)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	i, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if i.Mode().IsRegular() && i.Size() != int64(size) {
		return nil, fmt.Errorf("%w: %s is %d bytes, %dx%d needs %d", ErrFrameSize, name, i.Size(), w, h, size)
	}
	return ReadFrame(f, w, h)
}

func (p *NV12) ColorModel() color.Model {
	return color.YCbCrModel
}

func (p *NV12) Bounds() image.Rectangle {
	return p.Rect
}

func (p *NV12) At(x, y int) color.Color {
	return p.YCbCrAt(x, y)
}

func (p *NV12) YCbCrAt(x, y int) color.YCbCr {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.YCbCr{}
	}
	yi := p.YOffset(x, y)
	ci := p.UVOffset(x, y)
	return color.YCbCr{
		Y:  p.Y[yi],
		Cb: p.UV[ci],
		Cr: p.UV[ci+1],
	}
}

// YOffset returns the index of the first element of Y that corresponds to the
// pixel at (x, y).
func (p *NV12) YOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.YStride + (x - p.Rect.Min.X)
}

// UVOffset returns the index of the Cb element of UV that corresponds to the
// pixel at (x, y). The Cr element follows it.
func (p *NV12) UVOffset(x, y int) int {
	return (y-p.Rect.Min.Y)/2*p.UVStride + (x-p.Rect.Min.X)/2*2
}

// WriteTo writes the frame as tightly packed NV12, dropping any row padding.
func (p *NV12) WriteTo(w io.Writer) (n int64, err error) {
	var (
		width = p.Rect.Dx()
		m     int
	)
	for y := 0; y < p.Rect.Dy(); y++ {
		i := y * p.YStride
		m, err = w.Write(p.Y[i : i+width])
		if n += int64(m); err != nil {
			return
		}
	}
	for y := 0; y < p.Rect.Dy()/2; y++ {
		i := y * p.UVStride
		m, err = w.Write(p.UV[i : i+width])
		if n += int64(m); err != nil {
			return
		}
	}
	return
}

// YCbCr returns a planar 4:2:0 copy of the frame.
func (p *NV12) YCbCr() *image.YCbCr {
	var (
		w   = p.Rect.Dx()
		h   = p.Rect.Dy()
		dst = image.NewYCbCr(image.Rect(0, 0, w, h), image.YCbCrSubsampleRatio420)
	)
	for y := 0; y < h; y++ {
		copy(dst.Y[y*dst.YStride:y*dst.YStride+w], p.Y[y*p.YStride:])
	}
	for y := 0; y < h/2; y++ {
		var (
			row = p.UV[y*p.UVStride:]
			cb  = dst.Cb[y*dst.CStride:]
			cr  = dst.Cr[y*dst.CStride:]
		)
		for x := 0; x < w/2; x++ {
			cb[x] = row[x*2]
			cr[x] = row[x*2+1]
		}
	}
	return dst
}

var _ image.Image = (*NV12)(nil)
