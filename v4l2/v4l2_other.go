//go:build !linux

package v4l2

import (
	"time"

	"github.com/BeatGlow/yuvfb/yuv"
)

// Device is a V4L2 capture device.
type Device struct{}

func Open(_ string) (*Device, error) {
	return nil, ErrNotSupported
}

func (d *Device) String() string                             { return "v4l2" }
func (d *Device) Format() Format                             { return Format{} }
func (d *Device) Capture(_ time.Duration) (*yuv.NV12, error) { return nil, ErrNotSupported }
func (d *Device) Close() error                               { return nil }
