// Package pixel implements the BGRA color and image types used by 32-bit framebuffers.
//
// The types are compatible with Go's native [color.Color] and [image.Image] /
// [draw.Image] interfaces, so they can be used with image/draw and
// golang.org/x/image/draw directly.
package pixel
