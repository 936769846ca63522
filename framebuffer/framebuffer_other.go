//go:build !linux

package framebuffer

func Open(_ string) (*Device, error) {
	return nil, ErrNotSupported
}

func OpenRaw(_ string, _, _ int) (*Device, error) {
	return nil, ErrNotSupported
}
