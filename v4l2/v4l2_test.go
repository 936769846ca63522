package v4l2

import (
	"errors"
	"testing"

	"github.com/BeatGlow/yuvfb/yuv"
)

func TestFourCC(t *testing.T) {
	tests := []struct {
		Code FourCC
		Want string
	}{
		{PixelFormatNV12, "NV12"},
		{PixelFormatNV12M, "NM12"},
		{0x3231564e, "NV12"},
		{0, "FourCC(0x00000000)"},
	}
	for _, test := range tests {
		if v := test.Code.String(); v != test.Want {
			t.Errorf("expected %q, got %q", test.Want, v)
		}
	}
}

func TestFormatCheck(t *testing.T) {
	tests := []struct {
		Name   string
		Format Format
		Err    error
	}{
		{"nv12", Format{4, 2, PixelFormatNV12, []PlaneFormat{{4, 12}}}, nil},
		{"nv12m", Format{4, 2, PixelFormatNV12M, []PlaneFormat{{8, 16}, {8, 8}}}, nil},
		{"nv12 planes", Format{4, 2, PixelFormatNV12, []PlaneFormat{{4, 8}, {4, 4}}}, ErrFormat},
		{"yuyv", Format{4, 2, 'Y' | 'U'<<8 | 'Y'<<16 | 'V'<<24, []PlaneFormat{{8, 16}}}, ErrFormat},
		{"odd", Format{3, 2, PixelFormatNV12, []PlaneFormat{{4, 12}}}, yuv.ErrDimensions},
		{"stride", Format{4, 2, PixelFormatNV12, []PlaneFormat{{2, 12}}}, ErrFormat},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if err := test.Format.check(); !errors.Is(err, test.Err) {
				it.Errorf("expected %v, got %v", test.Err, err)
			}
		})
	}
}

func TestCopyFrameNV12(t *testing.T) {
	// 4x2 frame, 6 bytes per line, chroma directly after the luma lines.
	f := Format{4, 2, PixelFormatNV12, []PlaneFormat{{6, 18}}}
	data := []byte{
		1, 2, 3, 4, 0, 0,
		5, 6, 7, 8, 0, 0,
		9, 10, 11, 12, 0, 0,
	}

	frame, err := copyFrame(f, [][]byte{data})
	if err != nil {
		t.Fatal(err)
	}
	if want := "\x01\x02\x03\x04\x05\x06\x07\x08"; string(frame.Y) != want {
		t.Errorf("expected luma % x, got % x", want, frame.Y)
	}
	if want := "\x09\x0a\x0b\x0c"; string(frame.UV) != want {
		t.Errorf("expected chroma % x, got % x", want, frame.UV)
	}
}

func TestCopyFrameNV12M(t *testing.T) {
	f := Format{2, 2, PixelFormatNV12M, []PlaneFormat{{4, 8}, {2, 2}}}
	planes := [][]byte{
		{1, 2, 0, 0, 3, 4, 0, 0},
		{5, 6},
	}

	frame, err := copyFrame(f, planes)
	if err != nil {
		t.Fatal(err)
	}
	if want := "\x01\x02\x03\x04"; string(frame.Y) != want {
		t.Errorf("expected luma % x, got % x", want, frame.Y)
	}
	if want := "\x05\x06"; string(frame.UV) != want {
		t.Errorf("expected chroma % x, got % x", want, frame.UV)
	}
}

func TestCopyFrameShort(t *testing.T) {
	tests := []struct {
		Name   string
		Format Format
		Planes [][]byte
		Err    error
	}{
		{"luma", Format{4, 2, PixelFormatNV12, []PlaneFormat{{4, 12}}}, [][]byte{make([]byte, 6)}, yuv.ErrShortFrame},
		{"chroma", Format{4, 2, PixelFormatNV12, []PlaneFormat{{4, 12}}}, [][]byte{make([]byte, 10)}, yuv.ErrShortFrame},
		{"nv12m", Format{4, 2, PixelFormatNV12M, []PlaneFormat{{4, 8}, {4, 4}}}, [][]byte{make([]byte, 8), make([]byte, 3)}, yuv.ErrShortFrame},
		{"planes", Format{4, 2, PixelFormatNV12M, []PlaneFormat{{4, 8}, {4, 4}}}, [][]byte{make([]byte, 8)}, ErrFormat},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if _, err := copyFrame(test.Format, test.Planes); !errors.Is(err, test.Err) {
				it.Errorf("expected %v, got %v", test.Err, err)
			}
		})
	}
}
