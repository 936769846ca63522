package pixel

import "image/color"

// BGRAModel is the color model for 32-bit BGRA framebuffers.
var BGRAModel color.Model = color.ModelFunc(bgraModel)

// BGRA represents a 32-bit color stored in blue, green, red, alpha byte order.
//
// Like [color.NRGBA], the components are not alpha-premultiplied.
type BGRA struct {
	B, G, R, A uint8
}

func (c BGRA) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	r *= uint32(c.A)
	r /= 0xff
	g = uint32(c.G)
	g |= g << 8
	g *= uint32(c.A)
	g /= 0xff
	b = uint32(c.B)
	b |= b << 8
	b *= uint32(c.A)
	b /= 0xff
	a = uint32(c.A)
	a |= a << 8
	return
}

func bgraModel(c color.Color) color.Color {
	if _, ok := c.(BGRA); ok {
		return c
	}
	r, g, b, a := c.RGBA()
	switch a {
	case 0xffff:
		return BGRA{B: uint8(b >> 8), G: uint8(g >> 8), R: uint8(r >> 8), A: 0xff}
	case 0:
		return BGRA{}
	}
	// Undo premultiplication.
	r = (r * 0xffff) / a
	g = (g * 0xffff) / a
	b = (b * 0xffff) / a
	return BGRA{B: uint8(b >> 8), G: uint8(g >> 8), R: uint8(r >> 8), A: uint8(a >> 8)}
}
