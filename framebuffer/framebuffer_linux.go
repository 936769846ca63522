package framebuffer

import (
	"fmt"
	"image"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"

	"github.com/BeatGlow/yuvfb/internal/ioctl"
	"github.com/BeatGlow/yuvfb/pixel"
)

// Open a Linux FrameBuffer device (fbdev) by name, typically /dev/fb[0..x].
func Open(name string) (*Device, error) {
	f, err := fs.Open(name, os.O_RDWR)
	if err != nil {
		return nil, err
	}

	var (
		info       fixScreenInfo
		screenInfo varScreenInfo
	)
	if err = ioctl.Do(f, fbioGetFScreenInfo, unsafe.Pointer(&info)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: %w", name, err)
	}

	// Request virtual screen info.
	if err = ioctl.Do(f, fbioGetVScreenInfo, unsafe.Pointer(&screenInfo)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: %w", name, err)
	}
	if _, err = parseColorModel(&screenInfo); err != nil {
		_ = f.Close()
		return nil, err
	}

	stride := int(info.LineLength)
	offset, size, err := screenInfo.visible(stride)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if offset+size > int(info.SmemLen) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: visible area of %d bytes at %d exceeds %d bytes of video memory",
			ErrGeometry, size, offset, info.SmemLen)
	}

	// Map pixel buffer.
	mem, err := unix.Mmap(int(f.Fd()), 0, int(info.SmemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, &os.SyscallError{Syscall: "mmap", Err: err}
	}

	return newDevice(name, info.name(), f, mem, offset, stride,
		image.Rect(0, 0, int(screenInfo.Xres), int(screenInfo.Yres))), nil
}

// OpenRaw maps a file or device by name as a w by h BGRA framebuffer without
// querying its geometry. A regular file shorter than w*h*4 bytes is grown.
func OpenRaw(name string, w, h int) (*Device, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrGeometry, w, h)
	}

	f, err := fs.Open(name, os.O_RDWR|os.O_CREATE)
	if err != nil {
		return nil, err
	}

	size := w * h * 4
	if i, err := f.Stat(); err != nil {
		_ = f.Close()
		return nil, err
	} else if i.Mode().IsRegular() && i.Size() < int64(size) {
		if err = f.Truncate(int64(size)); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, &os.SyscallError{Syscall: "mmap", Err: err}
	}

	return newDevice(name, "", f, mem, 0, w*4, image.Rect(0, 0, w, h)), nil
}

func newDevice(name, id string, f *fs.File, mem []byte, offset, stride int, r image.Rectangle) *Device {
	return &Device{
		BGRAImage: &pixel.BGRAImage{
			Buffer: pixel.Buffer{
				Rect:   r,
				Pix:    mem[offset:],
				Stride: stride,
			},
		},
		name: name,
		id:   id,
		closer: func() error {
			if err := unix.Munmap(mem); err != nil {
				_ = f.Close()
				return &os.SyscallError{Syscall: "munmap", Err: err}
			}
			return f.Close()
		},
	}
}
