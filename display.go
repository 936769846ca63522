// Package display shows raw YUV frames on pixel displays such as the Linux framebuffer.
package display

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"

	pdisplay "periph.io/x/conn/v3/display"

	"github.com/BeatGlow/yuvfb/pixel"
	"github.com/BeatGlow/yuvfb/yuv"
)

var debug bool

func init() {
	debug = os.Getenv("DISPLAY_DEBUG") != ""
}

// Errors
var (
	ErrBounds = errors.New("display: out of display bounds")
)

// Display is a pixel display.
//
// Every Display is a periph.io [pdisplay.Drawer]: Draw copies pixels to the
// device and Halt blanks it.
type Display interface {
	pdisplay.Drawer

	// Close the display driver.
	Close() error
}

// Convert a frame to a BGRA image.
func Convert(frame *yuv.NV12, rng yuv.Range) *pixel.BGRAImage {
	if debug {
		log.Printf("display: convert %s frame (%s range)", frame.Bounds().Size(), rng)
	}
	return frame.BGRA(rng)
}

// Present draws img onto the display. An image smaller than the display is
// centered, an image larger than the display is rejected.
func Present(d Display, img image.Image) error {
	var (
		r    = img.Bounds()
		size = r.Size()
		b    = d.Bounds()
	)
	if size.X > b.Dx() || size.Y > b.Dy() {
		return fmt.Errorf("%w: %s image on %s display", ErrBounds, size, b.Size())
	}

	dst := image.Rectangle{Max: size}.Add(b.Min).Add(b.Size().Sub(size).Div(2))
	if debug {
		log.Printf("display: draw %s at %s on %s", size, dst, d)
	}
	return d.Draw(dst, img, r.Min)
}

// Show converts frame and presents it on the display.
func Show(d Display, frame *yuv.NV12, rng yuv.Range) error {
	return Present(d, Convert(frame, rng))
}
