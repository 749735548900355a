package gfx

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/pockettft/gfx/pixel"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Controller is the chip-level contract the rendering strategies draw
// through. All four panel drivers in this module satisfy it.
//
// SetWindow selects a RAM region and WritePixels streams packed pixel data
// into it, PixelBytes() bytes per pixel, left to right and top to bottom.
type Controller interface {
	conn.Resource

	Bounds() image.Rectangle
	PixelBytes() int
	SetWindow(r image.Rectangle) error
	WritePixels(p []byte) error
	Sleep() error
	Wake() error
	Invert(on bool) error
}

// brightener is the optional capability of controllers that expose a
// brightness register, such as AMOLED panels.
type brightener interface {
	SetBrightness(level int) error
}

// Surface is the drawing API shared by both rendering strategies.
//
// Coordinates are in pixels with the origin at the top-left. Primitives
// clip silently against Bounds; an error reports a bus failure, never an
// out-of-range coordinate. On a buffered surface nothing reaches the panel
// until Flush; on a direct surface every call draws immediately and Flush
// is a no-op.
type Surface interface {
	conn.Resource

	ColorModel() color.Model
	Bounds() image.Rectangle
	Draw(dst image.Rectangle, src image.Image, sp image.Point) error

	FillScreen(c pixel.Color) error
	Pixel(x, y int, c pixel.Color) error
	HLine(x, y, w int, c pixel.Color) error
	VLine(x, y, h int, c pixel.Color) error
	Line(x0, y0, x1, y1 int, c pixel.Color) error
	Rect(x, y, w, h int, c pixel.Color) error
	FillRect(x, y, w, h int, c pixel.Color) error
	Circle(x, y, r int, c pixel.Color) error
	FillCircle(x, y, r int, c pixel.Color) error
	Text(s string, x, y int, c pixel.Color) error
	TextScaled(s string, x, y, scale int, c pixel.Color) error
	Flush() error

	Sleep() error
	Wake() error
	Invert(on bool) error
	SetBrightness(level int) error
}

// Both strategies satisfy Surface, and Surface blits like any periph
// display.
var (
	_ Surface        = (*Buffered)(nil)
	_ Surface        = (*Direct)(nil)
	_ display.Drawer = (Surface)(nil)
)

// base carries the pieces both strategies share: the controller and the
// brightness path resolved at construction.
type base struct {
	ctrl   Controller
	bright func(level int) error // nil when the hardware has no control
}

func (b *base) Bounds() image.Rectangle {
	return b.ctrl.Bounds()
}

func (b *base) ColorModel() color.Model {
	return pixel.Model
}

func (b *base) Sleep() error {
	return b.ctrl.Sleep()
}

func (b *base) Wake() error {
	return b.ctrl.Wake()
}

func (b *base) Invert(on bool) error {
	return b.ctrl.Invert(on)
}

func (b *base) Halt() error {
	return b.ctrl.Halt()
}

// SetBrightness scales panel luminance as a percentage clamped to 0..100.
// The path is fixed at construction: a controller register when the chip
// has one, otherwise PWM on the backlight pin.
func (b *base) SetBrightness(level int) error {
	if b.bright == nil {
		return errors.New("gfx: no brightness control on this panel")
	}
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}
	return b.bright(level)
}

// resolveBrightness picks the brightness path for ctrl. A register beats
// the backlight pin: dimming an AMOLED backlight that does not exist is
// not an option, and panels with a register ship without PWM wiring.
func resolveBrightness(ctrl Controller, backlight gpio.PinOut) func(int) error {
	if br, ok := ctrl.(brightener); ok {
		return br.SetBrightness
	}
	if backlight != nil {
		return func(level int) error {
			duty := gpio.Duty(int64(level) * int64(gpio.DutyMax) / 100)
			if err := backlight.PWM(duty, 1*physic.KiloHertz); err != nil {
				return fmt.Errorf("gfx: backlight pwm: %w", err)
			}
			return nil
		}
	}
	return nil
}

// encodePixel packs c for a controller taking bpp bytes per pixel into
// buf, which must hold at least bpp bytes. Two-byte panels take big-endian
// RGB565; three-byte panels take R, G, B.
func encodePixel(buf []byte, c pixel.Color, bpp int) {
	if bpp == 3 {
		buf[0], buf[1], buf[2] = c.R, c.G, c.B
		return
	}
	v := c.RGB565()
	buf[0], buf[1] = byte(v>>8), byte(v)
}

// clipRect clamps an x/y/w/h rectangle to bounds, mirroring how the
// firmware drivers clipped before windowing. Empty results mean nothing
// to draw.
func clipRect(x, y, w, h int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(x, y, x+w, y+h).Intersect(bounds)
}
