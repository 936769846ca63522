package framebuffer

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/BeatGlow/yuvfb/pixel"
)

const (
	// From <linux/fb.h>
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

type fixScreenInfo struct {
	ID           [16]byte  // Identification string eg "TT Builtin"
	SmemStart    uintptr   // Start of frame buffer mem
	SmemLen      uint32    // Length of frame buffer mem
	Type         uint32    // FB_TYPE_
	TypeAux      uint32    // Interleave for interleaved Planes
	Visual       uint32    // FB_VISUAL_
	Xpanstep     uint16    // Zero if no hardware panning
	Ypanstep     uint16    // Zero if no hardware panning
	Ywrapstep    uint16    // Zero if no hardware ywrap
	LineLength   uint32    // Length of a line in bytes
	MmioStart    uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen      uint32    // Length of Memory Mapped I/O
	Accel        uint32    // Type of acceleration available
	Capabilities uint16    // FB_CAP_
	Reserved     [2]uint16 // Reserved for future compatibility
}

func (info *fixScreenInfo) name() string {
	if i := bytes.IndexByte(info.ID[:], 0); i >= 0 {
		return string(info.ID[:i])
	}
	return string(info.ID[:])
}

// bitField for the color
type bitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// varScreenInfo contains device independent changeable information about a frame buffer device and a specific video mode.
type varScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha bitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

func parseColorModel(info *varScreenInfo) (color.Model, error) {
	if info == nil {
		return nil, fmt.Errorf("%w: no screen info", ErrColorModel)
	}

	switch info.BitsPerPixel {
	case 32:
		switch {
		case info.Blue.Offset == 0 &&
			info.Blue.Length == 8 &&
			info.Green.Offset == 8 &&
			info.Green.Length == 8 &&
			info.Red.Offset == 16 &&
			info.Red.Length == 8 &&
			(info.Alpha.Length == 0 || info.Alpha.Offset == 24 && info.Alpha.Length == 8):
			return pixel.BGRAModel, nil
		}
	}

	return nil, fmt.Errorf("%w: %d bpp, red %d@%d, green %d@%d, blue %d@%d, alpha %d@%d", ErrColorModel,
		info.BitsPerPixel,
		info.Red.Length, info.Red.Offset,
		info.Green.Length, info.Green.Offset,
		info.Blue.Length, info.Blue.Offset,
		info.Alpha.Length, info.Alpha.Offset)
}

// visible returns the byte offset of the first visible pixel and the number of
// bytes spanned by the visible area.
func (info *varScreenInfo) visible(stride int) (offset, size int, err error) {
	if info.Xres == 0 || info.Yres == 0 || stride < int(info.Xres)*4 {
		return 0, 0, fmt.Errorf("%w: %dx%d with %d bytes/line", ErrGeometry, info.Xres, info.Yres, stride)
	}
	offset = int(info.Yoffset)*stride + int(info.Xoffset)*4
	size = (int(info.Yres)-1)*stride + int(info.Xres)*4
	return offset, size, nil
}
