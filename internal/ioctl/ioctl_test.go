package ioctl

import (
	"errors"
	"syscall"
	"testing"
	"unsafe"
)

type fakeIoctler struct {
	op   uint
	data uintptr
	err  error
}

func (f *fakeIoctler) Ioctl(op uint, data uintptr) error {
	f.op, f.data = op, data
	return f.err
}

func TestEncode(t *testing.T) {
	tests := []struct {
		Name string
		Got  Command
		Want Command
	}{
		{"VIDIOC_QUERYCAP", Pointer(Read, 'V', 0, new([104]byte)), 0x80685600},
		{"VIDIOC_ENUM_FMT", Pointer(ReadWrite, 'V', 2, new([64]byte)), 0xc0405602},
		{"VIDIOC_QUERYBUF/64", Pointer(ReadWrite, 'V', 9, new([88]byte)), 0xc0585609},
		{"VIDIOC_QBUF/64", Pointer(ReadWrite, 'V', 15, new([88]byte)), 0xc058560f},
		{"VIDIOC_STREAMON", Pointer(Write, 'V', 18, new(int32)), 0x40045612},
		{"VIDIOC_SUBSCRIBE_EVENT", Encode(Write, 'V', 90, 32), 0x4020565a},
		{"plain", Encode(None, 'F', 1, 0), 0x4601},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if test.Got != test.Want {
				it.Errorf("expected %#08x, got %#08x", uint(test.Want), uint(test.Got))
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		Command Command
		Want    string
	}{
		{0x4600, "ioctl 0x4600"},
		{0x80685600, `ioctl read 'V' #0 (104 bytes)`},
		{0xc0585609, `ioctl write read 'V' #9 (88 bytes)`},
		{0x40045612, `ioctl write 'V' #18 (4 bytes)`},
	}
	for _, test := range tests {
		if v := test.Command.String(); v != test.Want {
			t.Errorf("expected %q, got %q", test.Want, v)
		}
	}
}

func TestDo(t *testing.T) {
	var (
		f   = new(fakeIoctler)
		arg uint32
	)
	if err := Do(f, 0x4600, unsafe.Pointer(&arg)); err != nil {
		t.Fatal(err)
	}
	if f.op != 0x4600 {
		t.Errorf("expected op 0x4600, got %#x", f.op)
	}
	if f.data != uintptr(unsafe.Pointer(&arg)) {
		t.Error("expected argument pointer to be passed through")
	}

	f.err = syscall.ENOTTY
	err := Do(f, 0x4602, unsafe.Pointer(&arg))
	if !errors.Is(err, syscall.ENOTTY) {
		t.Fatalf("expected %v, got %v", syscall.ENOTTY, err)
	}
	var ierr *Error
	if !errors.As(err, &ierr) || ierr.Command != 0x4602 {
		t.Errorf("expected *Error for command 0x4602, got %#v", err)
	}
}
