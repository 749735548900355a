// Package co5300 controls a CO5300 AMOLED panel via SPI.
//
// The CO5300 drives the 410x502 AMOLED found on the Waveshare
// ESP32-S3-Touch-AMOLED-2.06. Unlike the TFT controllers in sibling
// packages it takes 24-bit RGB888 pixels, and its brightness is a
// controller register rather than a backlight line: an AMOLED has no
// backlight to dim.
package co5300

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/pockettft/gfx/dcbus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	cmdSWRESET = 0x01
	cmdSLPIN   = 0x10
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
	cmdWRDISBV = 0x51 // Write Display Brightness
)

// Native panel dimensions in the upright orientation.
const (
	Width  = 410
	Height = 502
)

// DefaultFrequency is the SPI clock used when Opts.Frequency is zero.
const DefaultFrequency = 40 * physic.MegaHertz

const (
	madMY  = 0x80
	madMX  = 0x40
	madMV  = 0x20
	madBGR = 0x08
)

var madctl = map[int]byte{
	0:   madMX | madBGR,
	90:  madMV | madBGR,
	180: madMY | madBGR,
	270: madMX | madMY | madMV | madBGR,
}

// Opts is the configuration for the CO5300 panel.
type Opts struct {
	// Rotation is the panel orientation in degrees: 0, 90, 180 or 270.
	// Landscape orientations swap the reported width and height.
	Rotation int

	// Frequency overrides the SPI clock. Zero selects DefaultFrequency.
	Frequency physic.Frequency

	// CS is an optional software chip-select line.
	CS gpio.PinOut

	// RST is the optional hardware reset line.
	RST gpio.PinOut
}

// Dev is a handle to an initialized CO5300 panel.
type Dev struct {
	bus    *dcbus.Bus
	rst    gpio.PinOut
	rect   image.Rectangle
	asleep bool
	halted bool
}

// New opens the panel on p and runs its power-on sequence. The panel comes
// up at full brightness.
func New(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if _, ok := madctl[opts.Rotation]; !ok {
		return nil, fmt.Errorf("co5300: invalid rotation %d", opts.Rotation)
	}
	f := opts.Frequency
	if f == 0 {
		f = DefaultFrequency
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("co5300: %w", err)
	}
	w, h := Width, Height
	if opts.Rotation == 90 || opts.Rotation == 270 {
		w, h = h, w
	}
	d := &Dev{
		bus:  dcbus.New(c, dc, opts.CS),
		rst:  opts.RST,
		rect: image.Rect(0, 0, w, h),
	}
	if err := d.init(opts.Rotation); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init(rotation int) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("co5300: reset high: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("co5300: reset low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("co5300: reset high: %w", err)
		}
		time.Sleep(120 * time.Millisecond)
	}

	if err := d.bus.Command(cmdSWRESET); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)
	if err := d.bus.Command(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)

	steps := []struct {
		cmd  byte
		args []byte
	}{
		{cmdCOLMOD, []byte{0x77}}, // 24-bit RGB888
		{cmdMADCTL, []byte{madctl[rotation]}},
		{cmdNORON, nil},
		{cmdDISPON, nil},
	}
	for _, s := range steps {
		if err := d.bus.Command(s.cmd, s.args...); err != nil {
			return err
		}
	}
	time.Sleep(10 * time.Millisecond)
	return d.SetBrightness(100)
}

// Bounds returns the addressable pixel area after rotation.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// PixelBytes returns the size of one pixel on the wire.
func (d *Dev) PixelBytes() int {
	return 3
}

// SetWindow selects the RAM region the next WritePixels fills.
func (d *Dev) SetWindow(r image.Rectangle) error {
	if d.halted {
		return errors.New("co5300: halted")
	}
	if !r.In(d.rect) || r.Empty() {
		return fmt.Errorf("co5300: window %v outside %v", r, d.rect)
	}
	x0, x1 := r.Min.X, r.Max.X-1
	y0, y1 := r.Min.Y, r.Max.Y-1
	if err := d.bus.Command(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.bus.Command(cmdRASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.bus.Command(cmdRAMWR)
}

// WritePixels streams packed RGB888 pixel data into the current window,
// three bytes per pixel in R, G, B order.
func (d *Dev) WritePixels(p []byte) error {
	if d.halted {
		return errors.New("co5300: halted")
	}
	return d.bus.Data(p)
}

// SetBrightness scales panel luminance. level is a percentage clamped to
// 0..100 and maps linearly onto the controller's 8-bit brightness register.
func (d *Dev) SetBrightness(level int) error {
	if d.halted {
		return errors.New("co5300: halted")
	}
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}
	return d.bus.Command(cmdWRDISBV, byte(level*255/100))
}

// Sleep blanks the panel and enters the controller low-power state. On an
// AMOLED this is where the real power savings are.
func (d *Dev) Sleep() error {
	if d.halted {
		return errors.New("co5300: halted")
	}
	if d.asleep {
		return nil
	}
	if err := d.bus.Command(cmdDISPOFF); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.bus.Command(cmdSLPIN); err != nil {
		return err
	}
	d.asleep = true
	return nil
}

// Wake restores the panel from Sleep.
func (d *Dev) Wake() error {
	if d.halted {
		return errors.New("co5300: halted")
	}
	if !d.asleep {
		return nil
	}
	if err := d.bus.Command(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.bus.Command(cmdDISPON); err != nil {
		return err
	}
	d.asleep = false
	return nil
}

// Invert toggles color inversion.
func (d *Dev) Invert(on bool) error {
	if d.halted {
		return errors.New("co5300: halted")
	}
	if on {
		return d.bus.Command(cmdINVON)
	}
	return d.bus.Command(cmdINVOFF)
}

// Halt turns the display off. The device stops accepting commands until it
// is re-initialized with New.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	return d.bus.Command(cmdDISPOFF)
}

func (d *Dev) String() string {
	return fmt.Sprintf("co5300.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
