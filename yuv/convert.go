package yuv

import (
	"fmt"
	"image"
	"image/color"

	"github.com/BeatGlow/yuvfb/pixel"
)

// Range is the quantization range (and matrix) used to map YCbCr to RGB.
type Range uint8

const (
	// VideoRange is ITU-R BT.601 studio swing YCbCr, luma in [16,235] and
	// chroma in [16,240]. This is what most capture devices and encoders emit,
	// and the default.
	VideoRange Range = iota

	// FullRange is JFIF full swing YCbCr, as implemented by [color.YCbCrToRGB].
	FullRange
)

func (r Range) String() string {
	switch r {
	case FullRange:
		return "full"
	case VideoRange:
		return "video"
	default:
		return fmt.Sprintf("Range(%d)", uint8(r))
	}
}

// ParseRange parses "video" or "full" (also "bt601" and "jfif"). The empty
// string is [VideoRange].
func ParseRange(s string) (Range, error) {
	switch s {
	case "video", "bt601", "limited", "":
		return VideoRange, nil
	case "full", "jfif":
		return FullRange, nil
	default:
		return 0, fmt.Errorf("yuv: unknown range %q", s)
	}
}

// BT.601 studio swing coefficients in 20-bit fixed point.
const (
	bt601Shift = 20
	bt601Round = 1 << (bt601Shift - 1)
	bt601CY    = 1220542 // 1.164
	bt601CUB   = 2116026 // 2.018
	bt601CUG   = -409993 // -0.391
	bt601CVG   = -852492 // -0.813
	bt601CVR   = 1673527 // 1.596
)

// BGRA converts the frame to a new BGRA image.
func (p *NV12) BGRA(rng Range) *pixel.BGRAImage {
	dst := pixel.NewBGRAImage(p.Rect.Dx(), p.Rect.Dy())
	// Sizes match by construction.
	_ = ConvertBGRA(dst, p, rng)
	return dst
}

// ConvertBGRA converts src into dst. Both images must have the same size. The
// alpha channel of dst is set to opaque.
func ConvertBGRA(dst *pixel.BGRAImage, src *NV12, rng Range) error {
	if !dst.Rect.Size().Eq(src.Rect.Size()) {
		return fmt.Errorf("%w: converting %s frame into %s image", ErrFrameSize, src.Rect.Size(), dst.Rect.Size())
	}

	var (
		w = src.Rect.Dx()
		h = src.Rect.Dy()
	)
	for y := 0; y < h; y++ {
		var (
			yRow  = src.Y[y*src.YStride : y*src.YStride+w]
			uvRow = src.UV[y/2*src.UVStride:]
			out   = dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		)
		for x := 0; x < w; x++ {
			var (
				cb      = uvRow[x&^1]
				cr      = uvRow[x|1]
				r, g, b uint8
			)
			if rng == VideoRange {
				r, g, b = bt601ToRGB(yRow[x], cb, cr)
			} else {
				r, g, b = color.YCbCrToRGB(yRow[x], cb, cr)
			}
			o := out[x*4 : x*4+4 : x*4+4]
			o[0] = b
			o[1] = g
			o[2] = r
			o[3] = 0xff
		}
	}
	return nil
}

func bt601ToRGB(y, cb, cr uint8) (uint8, uint8, uint8) {
	var (
		yy = (max(int32(y), 16) - 16) * bt601CY
		u  = int32(cb) - 128
		v  = int32(cr) - 128
		r  = (yy + bt601CVR*v + bt601Round) >> bt601Shift
		g  = (yy + bt601CVG*v + bt601CUG*u + bt601Round) >> bt601Shift
		b  = (yy + bt601CUB*u + bt601Round) >> bt601Shift
	)
	return clamp8(r), clamp8(g), clamp8(b)
}

func rgbToBT601(r, g, b uint8) (uint8, uint8, uint8) {
	var (
		fr = float64(r)
		fg = float64(g)
		fb = float64(b)
		y  = 16 + 0.257*fr + 0.504*fg + 0.098*fb
		cb = 128 - 0.148*fr - 0.291*fg + 0.439*fb
		cr = 128 + 0.439*fr - 0.368*fg - 0.071*fb
	)
	return clamp8(int32(y + 0.5)), clamp8(int32(cb + 0.5)), clamp8(int32(cr + 0.5))
}

func clamp8(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 0xff {
		return 0xff
	}
	return uint8(v)
}

// Encode converts img to an NV12 frame. The image dimensions must be even;
// each chroma sample is the average of its 2x2 pixel block.
func Encode(img image.Image, rng Range) (*NV12, error) {
	var (
		r        = img.Bounds()
		dst, err = NewNV12(image.Rect(0, 0, r.Dx(), r.Dy()))
	)
	if err != nil {
		return nil, err
	}

	for y := 0; y < r.Dy(); y += 2 {
		for x := 0; x < r.Dx(); x += 2 {
			var cb, cr int
			for _, d := range [4]image.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
				c := color.NRGBAModel.Convert(img.At(r.Min.X+x+d.X, r.Min.Y+y+d.Y)).(color.NRGBA)
				var yy, u, v uint8
				if rng == VideoRange {
					yy, u, v = rgbToBT601(c.R, c.G, c.B)
				} else {
					yy, u, v = color.RGBToYCbCr(c.R, c.G, c.B)
				}
				dst.Y[dst.YOffset(x+d.X, y+d.Y)] = yy
				cb += int(u)
				cr += int(v)
			}
			i := dst.UVOffset(x, y)
			dst.UV[i] = uint8((cb + 2) / 4)
			dst.UV[i+1] = uint8((cr + 2) / 4)
		}
	}
	return dst, nil
}
