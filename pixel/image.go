package pixel

import (
	"image"
	"image/color"
)

// Image is an RGB565 framebuffer with pixels packed big-endian, the byte
// order the panel controllers consume. It implements draw.Image, so the
// standard library and golang.org/x/image can render straight into it, and
// Pix can be streamed to a controller without re-encoding.
type Image struct {
	Pix    []byte          // Pixel data, 2 bytes per pixel, high byte first
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage creates an RGB565 image with the specified bounds, initialized
// to black.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	stride := w * 2
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
func (p *Image) At(x, y int) color.Color {
	return FromRGB565(p.RGB565At(x, y))
}

// RGB565At returns the packed pixel word at (x, y), or 0 when out of bounds.
func (p *Image) RGB565At(x, y int) uint16 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.pixOffset(x, y)
	return uint16(p.Pix[i])<<8 | uint16(p.Pix[i+1])
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB565(x, y, Model.Convert(c).(Color).RGB565())
}

// SetColor sets the pixel at (x, y) without a color model round trip.
func (p *Image) SetColor(x, y int, c Color) {
	p.SetRGB565(x, y, c.RGB565())
}

// SetRGB565 stores a pre-packed pixel word at (x, y). Out-of-bounds
// coordinates are dropped.
func (p *Image) SetRGB565(x, y int, v uint16) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i := p.pixOffset(x, y)
	p.Pix[i] = byte(v >> 8)
	p.Pix[i+1] = byte(v)
}

// Fill sets every pixel to c without per-pixel bounds checks.
func (p *Image) Fill(c Color) {
	v := c.RGB565()
	hi, lo := byte(v>>8), byte(v)
	for i := 0; i < len(p.Pix); i += 2 {
		p.Pix[i] = hi
		p.Pix[i+1] = lo
	}
}

func (p *Image) pixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}
