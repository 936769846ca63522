package yuv

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/BeatGlow/yuvfb/pixel"
)

func solidFrame(t *testing.T, w, h int, y, cb, cr uint8) *NV12 {
	t.Helper()
	p, err := NewNV12(image.Rect(0, 0, w, h))
	if err != nil {
		t.Fatal(err)
	}
	for i := range p.Y {
		p.Y[i] = y
	}
	for i := 0; i < len(p.UV); i += 2 {
		p.UV[i] = cb
		p.UV[i+1] = cr
	}
	return p
}

func TestConvertWhite(t *testing.T) {
	for _, rng := range []Range{FullRange, VideoRange} {
		t.Run(rng.String(), func(it *testing.T) {
			img := solidFrame(it, 16, 8, 0xff, 0x80, 0x80).BGRA(rng)
			for y := 0; y < 8; y++ {
				for x := 0; x < 16; x++ {
					c := img.At(x, y).(pixel.BGRA)
					if c.B < 0xf8 || c.G < 0xf8 || c.R < 0xf8 || c.A != 0xff {
						it.Fatalf("pixel (%d,%d) is %#+v, expected near white", x, y, c)
					}
				}
			}
		})
	}
}

func TestConvertBlack(t *testing.T) {
	tests := []struct {
		Range Range
		Y     uint8
	}{
		{FullRange, 0x00},
		{VideoRange, 0x10},
		{VideoRange, 0x00},
	}
	for _, test := range tests {
		t.Run(test.Range.String(), func(it *testing.T) {
			img := solidFrame(it, 4, 4, test.Y, 0x80, 0x80).BGRA(test.Range)
			if v := img.At(2, 2).(pixel.BGRA); v != (pixel.BGRA{A: 0xff}) {
				it.Errorf("expected opaque black, got %#+v", v)
			}
		})
	}
}

func TestConvertByteOrder(t *testing.T) {
	// Full range pure red.
	y, cb, cr := color.RGBToYCbCr(0xff, 0, 0)
	img := solidFrame(t, 2, 2, y, cb, cr).BGRA(FullRange)
	pix := img.Pix[:4]
	if pix[0] > 4 || pix[1] > 4 || pix[2] < 0xfb || pix[3] != 0xff {
		t.Errorf("expected B,G,R,A bytes close to 00 00 ff ff, got % x", pix)
	}
}

func TestConvertBGRASizeMismatch(t *testing.T) {
	src := solidFrame(t, 4, 4, 0, 0x80, 0x80)
	dst := pixel.NewBGRAImage(4, 2)
	if err := ConvertBGRA(dst, src, FullRange); !errors.Is(err, ErrFrameSize) {
		t.Errorf("expected %v, got %v", ErrFrameSize, err)
	}
}

func TestConvertStride(t *testing.T) {
	// 2x2 frame with one padding byte per row.
	p := &NV12{
		Y:        []byte{0xff, 0xff, 0x00, 0xff, 0xff, 0x00},
		UV:       []byte{0x80, 0x80, 0x00},
		YStride:  3,
		UVStride: 3,
		Rect:     image.Rect(0, 0, 2, 2),
	}
	img := p.BGRA(FullRange)
	for _, v := range img.Pix {
		if v != 0xff {
			t.Fatalf("expected all white, got % x", img.Pix)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// Flat 2x2 blocks survive chroma subsampling, so only rounding remains.
	colors := []color.RGBA{
		{0xff, 0xff, 0xff, 0xff},
		{0xbf, 0xbf, 0x00, 0xff},
		{0x00, 0xbf, 0xbf, 0xff},
		{0x00, 0xbf, 0x00, 0xff},
		{0xbf, 0x00, 0xbf, 0xff},
		{0xbf, 0x00, 0x00, 0xff},
		{0x00, 0x00, 0xbf, 0xff},
		{0x00, 0x00, 0x00, 0xff},
	}
	src := image.NewRGBA(image.Rect(0, 0, len(colors)*4, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < src.Rect.Dx(); x++ {
			src.SetRGBA(x, y, colors[x/4])
		}
	}

	for _, rng := range []Range{FullRange, VideoRange} {
		t.Run(rng.String(), func(it *testing.T) {
			frame, err := Encode(src, rng)
			if err != nil {
				it.Fatal(err)
			}
			out := frame.BGRA(rng)
			for y := 0; y < 8; y++ {
				for x := 0; x < src.Rect.Dx(); x++ {
					var (
						want = src.RGBAAt(x, y)
						got  = out.At(x, y).(pixel.BGRA)
					)
					if !near(got.R, want.R, 3) || !near(got.G, want.G, 3) || !near(got.B, want.B, 3) {
						it.Fatalf("pixel (%d,%d) is %#+v, expected close to %#+v", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestRoundTripSubsampled(t *testing.T) {
	// A per-pixel gradient loses chroma detail, but luma keeps it close.
	src := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			src.SetRGBA(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 0x80, 0xff})
		}
	}
	frame, err := Encode(src, FullRange)
	if err != nil {
		t.Fatal(err)
	}
	out := frame.BGRA(FullRange)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			var (
				want = src.RGBAAt(x, y)
				got  = out.At(x, y).(pixel.BGRA)
			)
			if !near(got.R, want.R, 16) || !near(got.G, want.G, 16) || !near(got.B, want.B, 16) {
				t.Fatalf("pixel (%d,%d) is %#+v, expected close to %#+v", x, y, got, want)
			}
		}
	}
}

func TestEncodeOddSize(t *testing.T) {
	if _, err := Encode(image.NewRGBA(image.Rect(0, 0, 3, 2)), FullRange); !errors.Is(err, ErrDimensions) {
		t.Errorf("expected %v, got %v", ErrDimensions, err)
	}
}

func TestParseRange(t *testing.T) {
	for _, s := range []string{"full", "video"} {
		r, err := ParseRange(s)
		if err != nil {
			t.Fatal(err)
		}
		if r.String() != s {
			t.Errorf("expected %q, got %q", s, r)
		}
	}
	if r, err := ParseRange(""); err != nil || r != VideoRange {
		t.Errorf("expected empty range to parse as %s, got %s (%v)", VideoRange, r, err)
	}
	if _, err := ParseRange("hdr"); err == nil {
		t.Error("expected error for unknown range")
	}
}

func near(a, b, d uint8) bool {
	if a > b {
		return a-b <= d
	}
	return b-a <= d
}
