// Package ili9488 controls an ILI9488 TFT panel via SPI.
//
// The ILI9488 drives the 320x320 IPS panel used by PicoCalc-style
// handhelds. Over SPI the controller accepts 16-bit RGB565 writes even
// though its RAM is 18 bits deep; pixels are sent big-endian.
package ili9488

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
	cmdINVOFF  = 0x20
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdPASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdPIXFMT  = 0x3A
	cmdFRMCTR1 = 0xB1
	cmdDFUNCTR = 0xB6
	cmdPWCTR1  = 0xC0
	cmdPWCTR2  = 0xC1
	cmdVMCTR1  = 0xC5
	cmdGMCTRP1 = 0xE0
	cmdGMCTRN1 = 0xE1
)

// Panel dimensions. The PicoCalc panel is square, so rotation never swaps
// the reported bounds.
const (
	Width  = 320
	Height = 320
)

// DefaultFrequency is the SPI clock used when Opts.Frequency is zero.
const DefaultFrequency = 62500 * physic.KiloHertz

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

// Opts is the configuration for the ILI9488 panel.
type Opts struct {
	// Rotation is the panel orientation in degrees: 0, 90, 180 or 270.
	Rotation int

	// Frequency overrides the SPI clock. Zero selects DefaultFrequency.
	Frequency physic.Frequency

	// CS is an optional software chip-select line.
	CS gpio.PinOut

	// RST is the optional hardware reset line.
	RST gpio.PinOut
}

// Dev is a handle to an initialized ILI9488 panel.
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
		return nil, fmt.Errorf("ili9488: invalid rotation %d", opts.Rotation)
	}
	f := opts.Frequency
	if f == 0 {
		f = DefaultFrequency
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ili9488: %w", err)
	}
	d := &Dev{
		bus:  dcbus.New(c, dc, opts.CS),
		rst:  opts.RST,
		rect: image.Rect(0, 0, Width, Height),
	}
	if err := d.init(opts.Rotation); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) init(rotation int) error {
	if d.rst != nil {
		// The panel wants a rising edge after a defined low pulse.
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9488: reset high: %w", err)
		}
		time.Sleep(5 * time.Millisecond)
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("ili9488: reset low: %w", err)
		}
		time.Sleep(20 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("ili9488: reset high: %w", err)
		}
		time.Sleep(150 * time.Millisecond)
	}

	if err := d.bus.Command(cmdSWRESET); err != nil {
		return err
	}
	time.Sleep(150 * time.Millisecond)

	steps := []struct {
		cmd  byte
		args []byte
	}{
		{cmdPWCTR1, []byte{0x17, 0x15}},
		{cmdPWCTR2, []byte{0x41}},
		{cmdVMCTR1, []byte{0x00, 0x12, 0x80}},
		{cmdMADCTL, []byte{madctl[rotation]}},
		{cmdPIXFMT, []byte{0x55}}, // 16-bit RGB565 over SPI
		{cmdFRMCTR1, []byte{0xA0}},
		{cmdDFUNCTR, []byte{0x02, 0x02, 0x3B}},
		{cmdGMCTRP1, []byte{
			0x00, 0x03, 0x09, 0x08, 0x16, 0x0A, 0x3F, 0x78,
			0x4C, 0x09, 0x0A, 0x08, 0x16, 0x1A, 0x0F,
		}},
		{cmdGMCTRN1, []byte{
			0x00, 0x16, 0x19, 0x03, 0x0F, 0x05, 0x32, 0x45,
			0x46, 0x04, 0x0E, 0x0D, 0x35, 0x37, 0x0F,
		}},
	}
	for _, s := range steps {
		if err := d.bus.Command(s.cmd, s.args...); err != nil {
			return err
		}
	}

	if err := d.bus.Command(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.bus.Command(cmdDISPON); err != nil {
		return err
	}
	time.Sleep(25 * time.Millisecond)
	return nil
}

// Bounds returns the addressable pixel area.
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
		return errors.New("ili9488: halted")
	}
	if !r.In(d.rect) || r.Empty() {
		return fmt.Errorf("ili9488: window %v outside %v", r, d.rect)
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
		return errors.New("ili9488: halted")
	}
	return d.bus.Data(p)
}

// Sleep blanks the panel and enters the controller low-power state.
func (d *Dev) Sleep() error {
	if d.halted {
		return errors.New("ili9488: halted")
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
		return errors.New("ili9488: halted")
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
		return errors.New("ili9488: halted")
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
	return fmt.Sprintf("ili9488.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
