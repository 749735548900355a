package pixel

import "image/color"

// Color is a 24-bit RGB color. It implements color.Color.
type Color struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xFFFF
}

// RGB565 packs the color into a 16-bit RGB565 word using the standard
// 5/6/5 truncation. The low 3 (red, blue) and 2 (green) bits are dropped.
func (c Color) RGB565() uint16 {
	return uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B)>>3
}

// FromRGB565 unpacks a 16-bit RGB565 word into a 24-bit color, zero-filling
// the dropped low bits. The result re-encodes to the same 565 word, but a
// channel may sit up to 7 (red, blue) or 3 (green) below the value it was
// encoded from.
func FromRGB565(v uint16) Color {
	return Color{
		R: uint8(v >> 11 << 3),
		G: uint8(v >> 5 << 2),
		B: uint8(v << 3),
	}
}

// FromRGB is shorthand for building a Color from 8-bit channels.
func FromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

func toColor(c color.Color) color.Color {
	if p, ok := c.(Color); ok {
		return p
	}
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// Model converts any color.Color to Color.
var Model = color.ModelFunc(toColor)

// Named palette. Every entry carries both encodings: the struct fields are
// the 24-bit form, RGB565() the 16-bit form. The 565 words match the values
// the panels were tuned with (Black 0x0000, Red 0xF800, Green 0x07E0, ...).
var (
	Black     = Color{0x00, 0x00, 0x00}
	White     = Color{0xFF, 0xFF, 0xFF}
	Red       = Color{0xFF, 0x00, 0x00}
	Green     = Color{0x00, 0xFF, 0x00}
	Blue      = Color{0x00, 0x00, 0xFF}
	Cyan      = Color{0x00, 0xFF, 0xFF}
	Magenta   = Color{0xFF, 0x00, 0xFF}
	Yellow    = Color{0xFF, 0xFF, 0x00}
	Orange    = Color{0xFF, 0xA4, 0x00}
	Purple    = Color{0x80, 0x00, 0x80}
	Gray      = Color{0x80, 0x80, 0x80}
	DarkGray  = Color{0x40, 0x40, 0x40}
	LightGray = Color{0xC0, 0xC0, 0xC0}
)
