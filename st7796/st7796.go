// Package st7796 controls a ST7796 TFT panel via SPI.
//
// The ST7796 drives 320x480 panels such as the 3.5" GeeekPi module. Pixels
// are big-endian RGB565. The controller hides its extended register set
// behind a command-set-control lock; init unlocks it, programs power and
// gamma, then locks it again.
package st7796

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
	cmdPASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
	cmdDFC     = 0xB6 // Display Function Control
	cmdPWR2    = 0xC1 // Power Control 2
	cmdPWR3    = 0xC2 // Power Control 3
	cmdVCMPCTL = 0xC5 // VCOM Control
	cmdPGC     = 0xE0 // Positive Gamma Control
	cmdNGC     = 0xE1 // Negative Gamma Control
	cmdCSC     = 0xF0 // Command Set Control
)

// Native panel dimensions in the upright orientation.
const (
	Width  = 320
	Height = 480
)

// DefaultFrequency is the SPI clock used when Opts.Frequency is zero. The
// 3.5" module misbehaves above 40MHz on typical wiring.
const DefaultFrequency = 40 * physic.MegaHertz

// MADCTL bits.
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

// Opts is the configuration for the ST7796 panel.
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

// Dev is a handle to an initialized ST7796 panel.
type Dev struct {
	bus    *dcbus.Bus
	rst    gpio.PinOut
	rect   image.Rectangle
	asleep bool
	halted bool
}

// New opens the panel on p and runs its power-on sequence.
func New(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if _, ok := madctl[opts.Rotation]; !ok {
		return nil, fmt.Errorf("st7796: invalid rotation %d", opts.Rotation)
	}
	f := opts.Frequency
	if f == 0 {
		f = DefaultFrequency
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7796: %w", err)
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
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("st7796: reset low: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("st7796: reset high: %w", err)
		}
		time.Sleep(120 * time.Millisecond)
	}

	if err := d.bus.Command(cmdSWRESET); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.bus.Command(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)

	steps := []struct {
		cmd  byte
		args []byte
	}{
		// Unlock command set 2 then 3.
		{cmdCSC, []byte{0xC3}},
		{cmdCSC, []byte{0x96}},
		{cmdMADCTL, []byte{madctl[rotation]}},
		{cmdCOLMOD, []byte{0x55}}, // 16-bit RGB565
		{cmdDFC, []byte{0x80, 0x02, 0x3B}},
		{cmdPWR2, []byte{0x13}},
		{cmdPWR3, []byte{0xA7}},
		{cmdVCMPCTL, []byte{0x0E}},
		{cmdPGC, []byte{0xF0, 0x09, 0x13, 0x12, 0x12, 0x2B, 0x3C, 0x44, 0x4B, 0x1B, 0x18, 0x17, 0x1D, 0x21}},
		{cmdNGC, []byte{0xF0, 0x09, 0x13, 0x0C, 0x0D, 0x27, 0x3B, 0x44, 0x4D, 0x0B, 0x17, 0x17, 0x1D, 0x21}},
		// Relock.
		{cmdCSC, []byte{0x3C}},
		{cmdCSC, []byte{0x69}},
		{cmdNORON, nil},
		{cmdDISPON, nil},
	}
	for _, s := range steps {
		if err := d.bus.Command(s.cmd, s.args...); err != nil {
			return err
		}
	}
	time.Sleep(120 * time.Millisecond)
	return nil
}

// Bounds returns the addressable pixel area after rotation.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// PixelBytes returns the size of one pixel on the wire.
func (d *Dev) PixelBytes() int {
	return 2
}

// SetWindow selects the RAM region the next WritePixels fills.
func (d *Dev) SetWindow(r image.Rectangle) error {
	if d.halted {
		return errors.New("st7796: halted")
	}
	if !r.In(d.rect) || r.Empty() {
		return fmt.Errorf("st7796: window %v outside %v", r, d.rect)
	}
	x0, x1 := r.Min.X, r.Max.X-1
	y0, y1 := r.Min.Y, r.Max.Y-1
	if err := d.bus.Command(cmdCASET, byte(x0>>8), byte(x0), byte(x1>>8), byte(x1)); err != nil {
		return err
	}
	if err := d.bus.Command(cmdPASET, byte(y0>>8), byte(y0), byte(y1>>8), byte(y1)); err != nil {
		return err
	}
	return d.bus.Command(cmdRAMWR)
}

// WritePixels streams big-endian RGB565 pixel data into the current window.
func (d *Dev) WritePixels(p []byte) error {
	if d.halted {
		return errors.New("st7796: halted")
	}
	return d.bus.Data(p)
}

// Sleep blanks the panel and enters the controller low-power state.
func (d *Dev) Sleep() error {
	if d.halted {
		return errors.New("st7796: halted")
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
		return errors.New("st7796: halted")
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
		return errors.New("st7796: halted")
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
	return fmt.Sprintf("st7796.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
