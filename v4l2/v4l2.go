// Package v4l2 grabs single NV12 frames from Video4Linux2 multi-planar capture devices.
//
// Only memory mapped streaming I/O is implemented, with the NV12 (one plane)
// and NV12M (two planes) pixel formats. The device format is used as-is, use
// a tool such as v4l2-ctl to configure it beforehand.
package v4l2

import (
	"errors"
	"fmt"
	"image"

	"github.com/BeatGlow/yuvfb/yuv"
)

// Errors
var (
	ErrNotSupported = errors.New("v4l2: not supported")
	ErrCapability   = errors.New("v4l2: device can not stream multi-planar video capture")
	ErrFormat       = errors.New("v4l2: unsupported pixel format")
	ErrTimeout      = errors.New("v4l2: timeout waiting for frame")
)

// FourCC is a four character code identifying a pixel format.
type FourCC uint32

// Pixel formats.
const (
	PixelFormatNV12  FourCC = 'N' | 'V'<<8 | '1'<<16 | '2'<<24
	PixelFormatNV12M FourCC = 'N' | 'M'<<8 | '1'<<16 | '2'<<24
)

func (c FourCC) String() string {
	b := []byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
	for _, v := range b {
		if v < 0x20 || v > 0x7e {
			return fmt.Sprintf("FourCC(%#08x)", uint32(c))
		}
	}
	return string(b)
}

// PlaneFormat describes the memory layout of one plane.
type PlaneFormat struct {
	// BytesPerLine is the distance in bytes between the leftmost pixels of two adjacent lines.
	BytesPerLine int

	// SizeImage is the maximum number of bytes in the plane.
	SizeImage int
}

// Format is a capture format.
type Format struct {
	Width       int
	Height      int
	PixelFormat FourCC
	Planes      []PlaneFormat
}

func (f Format) String() string {
	return fmt.Sprintf("%dx%d %s (%d planes)", f.Width, f.Height, f.PixelFormat, len(f.Planes))
}

func (f Format) check() error {
	if _, err := yuv.FrameSize(f.Width, f.Height); err != nil {
		return err
	}
	switch {
	case f.PixelFormat == PixelFormatNV12 && len(f.Planes) == 1:
	case f.PixelFormat == PixelFormatNV12M && len(f.Planes) == 2:
	default:
		return fmt.Errorf("%w: %s", ErrFormat, f)
	}
	for i, p := range f.Planes {
		if p.BytesPerLine < f.Width {
			return fmt.Errorf("%w: plane %d has %d bytes per line for %d pixels", ErrFormat, i, p.BytesPerLine, f.Width)
		}
	}
	return nil
}

// copyFrame copies the plane data of a dequeued buffer into a new, tightly packed frame.
func copyFrame(f Format, planes [][]byte) (*yuv.NV12, error) {
	if err := f.check(); err != nil {
		return nil, err
	}
	if len(planes) != len(f.Planes) {
		return nil, fmt.Errorf("%w: expected %d planes, got %d", ErrFormat, len(f.Planes), len(planes))
	}

	var (
		w, h     = f.Width, f.Height
		yStride  = f.Planes[0].BytesPerLine
		yPlane   = planes[0]
		uvPlane  []byte
		uvStride int
	)
	if f.PixelFormat == PixelFormatNV12 {
		// Chroma follows the luma lines in the same plane.
		if n := yStride * h; len(yPlane) > n {
			uvPlane = yPlane[n:]
		}
		uvStride = yStride
	} else {
		uvPlane = planes[1]
		uvStride = f.Planes[1].BytesPerLine
	}

	if need := (h-1)*yStride + w; len(yPlane) < need {
		return nil, fmt.Errorf("%w: luma plane has %d of %d bytes", yuv.ErrShortFrame, len(yPlane), need)
	}
	if need := (h/2-1)*uvStride + w; len(uvPlane) < need {
		return nil, fmt.Errorf("%w: chroma plane has %d of %d bytes", yuv.ErrShortFrame, len(uvPlane), need)
	}

	frame, err := yuv.NewNV12(image.Rect(0, 0, w, h))
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		copy(frame.Y[y*frame.YStride:y*frame.YStride+w], yPlane[y*yStride:])
	}
	for y := 0; y < h/2; y++ {
		copy(frame.UV[y*frame.UVStride:y*frame.UVStride+w], uvPlane[y*uvStride:])
	}
	return frame, nil
}
