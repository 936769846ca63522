// Package framebuffer provides access to the operating system's native framebuffer
//
// This requires framebuffer device support in the operating system. The framebuffer
// can be opened with the [Open] call, and will otherwise function like a regular
// display. Only 32 bits per pixel framebuffers with the blue byte first are
// supported, which is what most Linux graphics drivers expose.
//
// [OpenRaw] maps any file or device with a caller provided geometry, which is
// useful for drivers that do not implement the fbdev ioctls and for testing.
package framebuffer

import (
	"errors"
	"fmt"
	"image"

	display "github.com/BeatGlow/yuvfb"
	"github.com/BeatGlow/yuvfb/draw"
	"github.com/BeatGlow/yuvfb/pixel"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrColorModel   = errors.New("framebuffer: unsupported color model")
	ErrGeometry     = errors.New("framebuffer: invalid geometry")
)

// Device is a memory mapped framebuffer.
//
// The embedded image is the visible area of the screen, writes to it go
// straight to video memory.
type Device struct {
	*pixel.BGRAImage

	name   string
	id     string
	closer func() error
}

func (d *Device) String() string {
	size := d.Rect.Size()
	if d.id == "" {
		return fmt.Sprintf("framebuffer %s (%dx%d, %d bytes/line)", d.name, size.X, size.Y, d.Stride)
	}
	return fmt.Sprintf("framebuffer %s %q (%dx%d, %d bytes/line)", d.name, d.id, size.X, size.Y, d.Stride)
}

// Draw copies src onto the screen. Rows of a [pixel.BGRAImage] are copied
// byte for byte, other images are converted pixel by pixel.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if src == nil {
		return errors.New("framebuffer: nothing to draw")
	}
	clip(d.Rect, &r, src.Bounds(), &sp)
	if r.Empty() {
		return nil
	}

	if s, ok := src.(*pixel.BGRAImage); ok {
		n := r.Dx() * 4
		for y := 0; y < r.Dy(); y++ {
			var (
				i = d.PixOffset(r.Min.X, r.Min.Y+y)
				j = s.PixOffset(sp.X, sp.Y+y)
			)
			copy(d.Pix[i:i+n], s.Pix[j:j+n])
		}
		return nil
	}

	draw.Copy(d.BGRAImage, r.Min, src, image.Rectangle{Min: sp, Max: sp.Add(r.Size())}, draw.Src)
	return nil
}

// Halt blanks the screen.
func (d *Device) Halt() error {
	for y := d.Rect.Min.Y; y < d.Rect.Max.Y; y++ {
		clear(d.Row(y))
	}
	return nil
}

// Close unmaps the video memory and closes the device.
func (d *Device) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer()
	d.closer = nil
	d.BGRAImage = &pixel.BGRAImage{}
	return err
}

// clip clips r against each image's bounds, after translating into the
// destination image's coordinate space. It shifts sp by the same amount as
// the change in r.Min.
func clip(bounds image.Rectangle, r *image.Rectangle, src image.Rectangle, sp *image.Point) {
	orig := r.Min
	*r = r.Intersect(bounds)
	*r = r.Intersect(src.Add(orig.Sub(*sp)))
	dx := r.Min.X - orig.X
	dy := r.Min.Y - orig.Y
	if dx == 0 && dy == 0 {
		return
	}
	sp.X += dx
	sp.Y += dy
}

// Interface checks.
var (
	_ display.Display = (*Device)(nil)
)
