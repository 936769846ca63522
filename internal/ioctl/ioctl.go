// Package ioctl encodes Linux ioctl requests and issues them on periph file handles.
package ioctl

import (
	"fmt"
	"reflect"
	"unsafe"

	"periph.io/x/host/v3/fs"
)

// Mode is the IOCTL direction, seen from user space.
type Mode uint8

// Modes
const (
	None Mode = iota
	Write
	Read
	ReadWrite = Read | Write
)

// Command to be sent over ioctl.
type Command uint

func (c Command) String() string {
	var (
		mode = Mode(c >> 30 & 0x03)
		size = c >> 16 & 0x3fff
		typ  = c >> 8 & 0xff
		nr   = c & 0xff
		str  string
	)
	if mode == None && size == 0 {
		// Legacy request numbers, such as FBIOGET_VSCREENINFO.
		return fmt.Sprintf("ioctl %#04x", uint(c))
	}
	if mode&Write > 0 {
		str += " write"
	}
	if mode&Read > 0 {
		str += " read"
	}
	return fmt.Sprintf("ioctl%s %q #%d (%d bytes)", str, rune(typ), uint(nr), uint(size))
}

// Error is returned when an ioctl call fails.
type Error struct {
	Command Command
	Err     error
}

func (err *Error) Error() string {
	return err.Command.String() + " failed: " + err.Err.Error()
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Do executes the ioctl call with arg pointing to the request data.
func Do(f fs.Ioctler, command Command, arg unsafe.Pointer) error {
	if err := f.Ioctl(uint(command), uintptr(arg)); err != nil {
		return &Error{Command: command, Err: err}
	}
	return nil
}

// Encode an ioctl command.
func Encode(mode Mode, typ byte, nr uint8, size uint16) Command {
	switch mode {
	case Read:
		return Command(fs.IOR(uint(typ), uint(nr), uint(size)))
	case Write:
		return Command(fs.IOW(uint(typ), uint(nr), uint(size)))
	case ReadWrite:
		return Command(fs.IOWR(uint(typ), uint(nr), uint(size)))
	default:
		return Command(fs.IO(uint(typ), uint(nr)))
	}
}

// Pointer encodes a command whose argument has the type ref points to.
func Pointer(mode Mode, typ byte, nr uint8, ref interface{}) Command {
	size := uint16(reflect.TypeOf(ref).Elem().Size())
	return Encode(mode, typ, nr, size)
}
