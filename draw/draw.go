// Package draw provides image composition functions for framebuffer images.
//
// It re-exports the composition primitives of golang.org/x/image/draw and adds
// a few shape helpers used to render test patterns.
package draw

import (
	"image"

	"golang.org/x/image/draw"
)

// Image is an alias for [golang.org/x/image/draw.Image].
type Image = draw.Image

// Op is an alias for [golang.org/x/image/draw.Op].
type Op = draw.Op

const (
	// Over specifies ``(src in mask) over dst''.
	Over = draw.Over

	// Src specifies ``src in mask''.
	Src = draw.Src
)

// Draw calls [DrawMask] with a nil mask.
func Draw(dst Image, r image.Rectangle, src image.Image, sp image.Point, op Op) {
	DrawMask(dst, r, src, sp, nil, image.Point{}, op)
}

// DrawMask aligns r.Min in dst with sp in src and mp in mask and then replaces the rectangle r
// in dst with the result of a Porter-Duff composition. A nil mask is treated as opaque.
func DrawMask(dst Image, r image.Rectangle, src image.Image, sp image.Point, mask image.Image, mp image.Point, op Op) {
	draw.DrawMask(dst, r, src, sp, mask, mp, op)
}

// Copy copies the part of src within sr to dst with sr.Min aligned at dp.
func Copy(dst Image, dp image.Point, src image.Image, sr image.Rectangle, op Op) {
	draw.Copy(dst, dp, src, sr, op, nil)
}
