package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/BeatGlow/yuvfb/yuv"
)

func testShowConfig(t *testing.T, fb, input string) *config {
	t.Helper()
	c, _, err := parseConfig(flag.NewFlagSet("yuvfb", flag.ContinueOnError),
		[]string{"-raw", "-fb", fb, "-input", input, "-width", "4", "-height", "2"})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestShow(t *testing.T) {
	var (
		dir   = t.TempDir()
		fb    = filepath.Join(dir, "fb")
		input = filepath.Join(dir, "frame.yuv")
	)
	if err := os.WriteFile(fb, bytes.Repeat([]byte{0xaa}, 4*2*4), 0o600); err != nil {
		t.Fatal(err)
	}

	// Video range black: luma 0x10, chroma 0x80.
	frame := append(bytes.Repeat([]byte{0x10}, 4*2), bytes.Repeat([]byte{0x80}, 4)...)
	if err := os.WriteFile(input, frame, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := show(testShowConfig(t, fb, input), nil); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(fb)
	if err != nil {
		t.Fatal(err)
	}
	if want := bytes.Repeat([]byte{0x00, 0x00, 0x00, 0xff}, 4*2); !bytes.Equal(b, want) {
		t.Errorf("expected framebuffer % x, got % x", want, b)
	}
}

func TestShowFrameSize(t *testing.T) {
	var (
		dir   = t.TempDir()
		fb    = filepath.Join(dir, "fb")
		input = filepath.Join(dir, "frame.yuv")
		blank = bytes.Repeat([]byte{0xaa}, 4*2*4)
	)
	if err := os.WriteFile(fb, blank, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(input, make([]byte, 11), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := show(testShowConfig(t, fb, input), nil); !errors.Is(err, yuv.ErrFrameSize) {
		t.Fatalf("expected %v, got %v", yuv.ErrFrameSize, err)
	}

	b, err := os.ReadFile(fb)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, blank) {
		t.Errorf("expected framebuffer to be untouched, got % x", b)
	}
}
