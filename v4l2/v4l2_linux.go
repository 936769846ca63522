package v4l2

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/fs"

	"github.com/BeatGlow/yuvfb/internal/ioctl"
	"github.com/BeatGlow/yuvfb/yuv"
)

// From <linux/videodev2.h>
const (
	capVideoCaptureMplane = 0x00001000
	capStreaming          = 0x04000000
	capDeviceCaps         = 0x80000000

	bufTypeVideoCaptureMplane = 9
	memoryMmap                = 1
	maxPlanes                 = 8
)

const bufferCount = 4

var (
	vidiocQueryCap  = ioctl.Pointer(ioctl.Read, 'V', 0, new(capability))
	vidiocGFmt      = ioctl.Pointer(ioctl.ReadWrite, 'V', 4, new(format))
	vidiocReqBufs   = ioctl.Pointer(ioctl.ReadWrite, 'V', 8, new(requestBuffers))
	vidiocQueryBuf  = ioctl.Pointer(ioctl.ReadWrite, 'V', 9, new(buffer))
	vidiocQBuf      = ioctl.Pointer(ioctl.ReadWrite, 'V', 15, new(buffer))
	vidiocDQBuf     = ioctl.Pointer(ioctl.ReadWrite, 'V', 17, new(buffer))
	vidiocStreamOn  = ioctl.Pointer(ioctl.Write, 'V', 18, new(int32))
	vidiocStreamOff = ioctl.Pointer(ioctl.Write, 'V', 19, new(int32))
)

type capability struct {
	Driver       [16]byte
	Card         [32]byte
	BusInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

type planePixFormat struct {
	SizeImage    uint32
	BytesPerLine uint32
	Reserved     [6]uint16
}

type pixFormatMplane struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	Field        uint32
	Colorspace   uint32
	PlaneFmt     [maxPlanes]planePixFormat
	NumPlanes    uint8
	Flags        uint8
	YcbcrEnc     uint8
	Quantization uint8
	XferFunc     uint8
	Reserved     [7]uint8
}

// format is struct v4l2_format, the union contains pointers so it is pointer aligned.
type format struct {
	Type uint32
	Fmt  [200 / unsafe.Sizeof(uintptr(0))]uintptr
}

func (f *format) pixMp() *pixFormatMplane {
	return (*pixFormatMplane)(unsafe.Pointer(&f.Fmt[0]))
}

type requestBuffers struct {
	Count        uint32
	Type         uint32
	Memory       uint32
	Capabilities uint32
	Flags        uint8
	Reserved     [3]uint8
}

type timecode struct {
	Type     uint32
	Flags    uint32
	Frames   uint8
	Seconds  uint8
	Minutes  uint8
	Hours    uint8
	Userbits [4]uint8
}

type plane struct {
	BytesUsed  uint32
	Length     uint32
	M          uintptr // mem_offset for memory mapped buffers
	DataOffset uint32
	Reserved   [11]uint32
}

type buffer struct {
	Index     uint32
	Type      uint32
	BytesUsed uint32
	Flags     uint32
	Field     uint32
	Timestamp unix.Timeval
	Timecode  timecode
	Sequence  uint32
	Memory    uint32
	Planes    *plane
	Length    uint32
	Reserved2 uint32
	RequestFD int32
}

// Device is a V4L2 capture device.
type Device struct {
	f      *fs.File
	name   string
	card   string
	driver string
	format Format
}

// Open a capture device by name, typically /dev/video[0..x].
func Open(name string) (*Device, error) {
	f, err := fs.Open(name, os.O_RDWR|unix.O_NONBLOCK)
	if err != nil {
		return nil, err
	}

	d := &Device{
		f:    f,
		name: name,
	}
	if err = d.init(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("v4l2: %s: %w", name, err)
	}
	return d, nil
}

func (d *Device) init() error {
	var c capability
	if err := ioctl.Do(d.f, vidiocQueryCap, unsafe.Pointer(&c)); err != nil {
		return err
	}
	d.card = cString(c.Card[:])
	d.driver = cString(c.Driver[:])

	caps := c.Capabilities
	if caps&capDeviceCaps != 0 {
		caps = c.DeviceCaps
	}
	if caps&capVideoCaptureMplane == 0 || caps&capStreaming == 0 {
		return fmt.Errorf("%w (capabilities %#08x)", ErrCapability, caps)
	}

	f := format{Type: bufTypeVideoCaptureMplane}
	if err := ioctl.Do(d.f, vidiocGFmt, unsafe.Pointer(&f)); err != nil {
		return err
	}
	pix := f.pixMp()
	d.format = Format{
		Width:       int(pix.Width),
		Height:      int(pix.Height),
		PixelFormat: FourCC(pix.PixelFormat),
	}
	for i := 0; i < int(pix.NumPlanes) && i < maxPlanes; i++ {
		d.format.Planes = append(d.format.Planes, PlaneFormat{
			BytesPerLine: int(pix.PlaneFmt[i].BytesPerLine),
			SizeImage:    int(pix.PlaneFmt[i].SizeImage),
		})
	}
	return d.format.check()
}

func (d *Device) String() string {
	return fmt.Sprintf("v4l2 %s %q (%s)", d.name, d.card, d.driver)
}

// Format returns the current capture format.
func (d *Device) Format() Format {
	return d.format
}

// Capture streams until one frame is received and returns a copy of it. If no
// frame arrives within timeout, ErrTimeout is returned.
func (d *Device) Capture(timeout time.Duration) (frame *yuv.NV12, err error) {
	req := requestBuffers{
		Count:  bufferCount,
		Type:   bufTypeVideoCaptureMplane,
		Memory: memoryMmap,
	}
	if err = ioctl.Do(d.f, vidiocReqBufs, unsafe.Pointer(&req)); err != nil {
		return nil, err
	}
	if req.Count == 0 {
		return nil, errors.New("v4l2: driver allocated no buffers")
	}

	maps := make([][][]byte, req.Count)
	defer func() {
		for _, planes := range maps {
			for _, mem := range planes {
				_ = unix.Munmap(mem)
			}
		}
		free := requestBuffers{
			Type:   bufTypeVideoCaptureMplane,
			Memory: memoryMmap,
		}
		_ = ioctl.Do(d.f, vidiocReqBufs, unsafe.Pointer(&free))
	}()

	numPlanes := len(d.format.Planes)
	for i := range maps {
		planes := make([]plane, numPlanes)
		b := d.newBuffer(uint32(i), planes)
		if err = ioctl.Do(d.f, vidiocQueryBuf, unsafe.Pointer(&b)); err != nil {
			return nil, err
		}
		for _, p := range planes {
			mem, err := unix.Mmap(int(d.f.Fd()), int64(uint32(p.M)), int(p.Length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
			if err != nil {
				return nil, &os.SyscallError{Syscall: "mmap", Err: err}
			}
			maps[i] = append(maps[i], mem)
		}
		if err = d.queue(uint32(i)); err != nil {
			return nil, err
		}
	}

	typ := int32(bufTypeVideoCaptureMplane)
	if err = ioctl.Do(d.f, vidiocStreamOn, unsafe.Pointer(&typ)); err != nil {
		return nil, err
	}
	defer func() {
		if serr := ioctl.Do(d.f, vidiocStreamOff, unsafe.Pointer(&typ)); serr != nil && err == nil {
			err = serr
		}
	}()

	if err = d.wait(timeout); err != nil {
		return nil, err
	}

	planes := make([]plane, numPlanes)
	b := d.newBuffer(0, planes)
	if err = ioctl.Do(d.f, vidiocDQBuf, unsafe.Pointer(&b)); err != nil {
		return nil, err
	}
	runtime.KeepAlive(planes)
	if int(b.Index) >= len(maps) {
		return nil, fmt.Errorf("v4l2: dequeued unknown buffer %d", b.Index)
	}

	data := make([][]byte, numPlanes)
	for i, p := range planes {
		mem := maps[b.Index][i]
		end := int(p.BytesUsed)
		if end == 0 || end > len(mem) {
			end = len(mem)
		}
		start := int(p.DataOffset)
		if start > end {
			start = end
		}
		data[i] = mem[start:end]
	}
	if frame, err = copyFrame(d.format, data); err != nil {
		return nil, err
	}
	if err = d.queue(b.Index); err != nil {
		return nil, err
	}
	return frame, nil
}

func (d *Device) newBuffer(index uint32, planes []plane) buffer {
	return buffer{
		Index:  index,
		Type:   bufTypeVideoCaptureMplane,
		Memory: memoryMmap,
		Planes: &planes[0],
		Length: uint32(len(planes)),
	}
}

func (d *Device) queue(index uint32) error {
	planes := make([]plane, len(d.format.Planes))
	b := d.newBuffer(index, planes)
	err := ioctl.Do(d.f, vidiocQBuf, unsafe.Pointer(&b))
	runtime.KeepAlive(planes)
	return err
}

// wait until the device has a filled buffer ready for dequeueing.
func (d *Device) wait(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		ms := int(time.Until(deadline).Milliseconds())
		if ms < 0 {
			ms = 0
		}
		fds := []unix.PollFd{{Fd: int32(d.f.Fd()), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, ms)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return &os.SyscallError{Syscall: "poll", Err: err}
		case n == 0:
			return fmt.Errorf("%w after %s", ErrTimeout, timeout)
		case fds[0].Revents&unix.POLLERR != 0:
			return fmt.Errorf("v4l2: %s: poll error", d.name)
		default:
			return nil
		}
	}
}

// Close the device.
func (d *Device) Close() error {
	return d.f.Close()
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
