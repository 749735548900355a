// Package st7789 controls a ST7789 TFT panel via SPI.
//
// The ST7789 drives 240x240 IPS panels such as the Waveshare Pico-LCD-1.3.
// It speaks the MIPI display command set over a 4-wire SPI bus and stores
// pixels as big-endian RGB565.
package st7789

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

// MIPI DCS commands used by this driver.
const (
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
)

// Panel dimensions. The 1.3" module exposes exactly the 240x240 subset of
// the controller RAM, so width and height are not configurable.
const (
	Width  = 240
	Height = 240
)

// DefaultFrequency is the SPI clock used when Opts.Frequency is zero. The
// panel is stable at 62.5MHz even on short jumper wiring.
const DefaultFrequency = 62500 * physic.KiloHertz

// MADCTL values per rotation. The module is mounted with the connector at
// the bottom, so the upright orientation already needs a row/column swap.
var madctl = map[int]byte{
	0:   0x70, // MY | MX | MV
	90:  0x00,
	180: 0xB0, // MY | MV | ML
	270: 0xC0, // MY | MX
}

// Opts is the configuration for the ST7789 panel.
type Opts struct {
	// Rotation is the panel orientation in degrees: 0, 90, 180 or 270.
	Rotation int

	// Frequency overrides the SPI clock. Zero selects DefaultFrequency.
	Frequency physic.Frequency

	// CS is an optional software chip-select line. Leave nil when the SPI
	// port asserts chip select in hardware.
	CS gpio.PinOut

	// RST is the optional hardware reset line.
	RST gpio.PinOut
}

// Dev is a handle to an initialized ST7789 panel.
type Dev struct {
	bus    *dcbus.Bus
	rst    gpio.PinOut
	rect   image.Rectangle
	asleep bool
	halted bool
}

// New opens the panel on p and runs its power-on sequence. dc is the
// data/command line and is required. opts may be nil for an upright panel
// at the default SPI clock.
func New(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	if _, ok := madctl[opts.Rotation]; !ok {
		return nil, fmt.Errorf("st7789: invalid rotation %d", opts.Rotation)
	}
	f := opts.Frequency
	if f == 0 {
		f = DefaultFrequency
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7789: %w", err)
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

// init runs the panel power-on sequence. The long SLPOUT delay is required
// by the controller before any RAM access is legal.
func (d *Dev) init(rotation int) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("st7789: reset low: %w", err)
		}
		time.Sleep(100 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("st7789: reset high: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	if err := d.bus.Command(cmdSLPOUT); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)

	steps := []struct {
		cmd  byte
		args []byte
	}{
		{cmdCOLMOD, []byte{0x55}}, // 16-bit RGB565
		{cmdMADCTL, []byte{madctl[rotation]}},
		{cmdCASET, []byte{0x00, 0x00, 0x00, Width - 1}},
		{cmdRASET, []byte{0x00, 0x00, 0x00, Height - 1}},
		{cmdINVON, nil}, // panel is an inverted IPS stack
		{cmdNORON, nil},
		{cmdDISPON, nil},
	}
	for _, s := range steps {
		if err := d.bus.Command(s.cmd, s.args...); err != nil {
			return err
		}
	}
	time.Sleep(100 * time.Millisecond)
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

// SetWindow selects the RAM region the next WritePixels fills. Pixels
// stream left to right, top to bottom, wrapping at the window edge.
func (d *Dev) SetWindow(r image.Rectangle) error {
	if d.halted {
		return errors.New("st7789: halted")
	}
	if !r.In(d.rect) || r.Empty() {
		return fmt.Errorf("st7789: window %v outside %v", r, d.rect)
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

// WritePixels streams big-endian RGB565 pixel data into the current window.
func (d *Dev) WritePixels(p []byte) error {
	if d.halted {
		return errors.New("st7789: halted")
	}
	return d.bus.Data(p)
}

// Sleep blanks the panel and puts the controller in its low-power state.
// Calling Sleep on a sleeping panel is a no-op.
func (d *Dev) Sleep() error {
	if d.halted {
		return errors.New("st7789: halted")
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

// Wake restores the panel from Sleep. RAM contents survive sleep, so the
// previous frame reappears. Calling Wake on an awake panel is a no-op.
func (d *Dev) Wake() error {
	if d.halted {
		return errors.New("st7789: halted")
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

// Invert toggles color inversion. The panel initializes inverted, so
// Invert(true) here means inverted relative to that baseline.
func (d *Dev) Invert(on bool) error {
	if d.halted {
		return errors.New("st7789: halted")
	}
	if on {
		return d.bus.Command(cmdINVOFF)
	}
	return d.bus.Command(cmdINVON)
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
	return fmt.Sprintf("st7789.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
