package gfx

import (
	"errors"
	"fmt"

	"github.com/pockettft/gfx/co5300"
	"github.com/pockettft/gfx/ili9488"
	"github.com/pockettft/gfx/st7789"
	"github.com/pockettft/gfx/st7796"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Driver names a supported panel controller.
type Driver int

const (
	DriverST7789 Driver = iota // 240x240 IPS, RGB565
	DriverST7796               // 320x480 TFT, RGB565
	DriverILI9488              // 320x320 IPS, RGB565
	DriverCO5300               // 410x502 AMOLED, RGB888
)

func (d Driver) String() string {
	switch d {
	case DriverST7789:
		return "st7789"
	case DriverST7796:
		return "st7796"
	case DriverILI9488:
		return "ili9488"
	case DriverCO5300:
		return "co5300"
	}
	return fmt.Sprintf("Driver(%d)", int(d))
}

// Strategy selects how drawing reaches the panel.
type Strategy int

const (
	// StrategyAuto keeps a full framebuffer when it fits the budget of a
	// small microcontroller, and falls back to direct writes otherwise.
	StrategyAuto Strategy = iota

	// StrategyBuffered mirrors the panel in memory. Primitives mutate the
	// mirror and Flush streams the whole frame in one window. Best
	// throughput and no tearing, at the cost of width*height*PixelBytes
	// of RAM.
	StrategyBuffered

	// StrategyDirect writes each primitive straight to the panel through
	// its own window. Constant memory, immediate visibility, slower for
	// dense scenes.
	StrategyDirect
)

func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyBuffered:
		return "buffered"
	case StrategyDirect:
		return "direct"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// bufferBudget is the largest framebuffer StrategyAuto will allocate.
// Sized so a 320x320 RGB565 frame fits but a 320x480 one does not,
// matching what the target handhelds can spare.
const bufferBudget = 256 << 10

// Pins groups the GPIO lines a panel may use beyond the SPI port itself.
type Pins struct {
	// DC is the data/command line. Required.
	DC gpio.PinOut

	// CS is a software chip-select line. Leave nil when the SPI port
	// asserts chip select in hardware.
	CS gpio.PinOut

	// RST is the hardware reset line, if wired.
	RST gpio.PinOut

	// Backlight is the backlight control line of TFT panels. When the
	// controller has no brightness register, SetBrightness dims via PWM
	// on this pin.
	Backlight gpio.PinOut
}

// Config selects and configures a panel.
type Config struct {
	Driver   Driver
	Rotation int // 0, 90, 180 or 270 degrees

	// Strategy picks the rendering path. StrategyAuto decides from the
	// panel's framebuffer size.
	Strategy Strategy

	// Frequency overrides the SPI clock. Zero keeps the driver default.
	Frequency physic.Frequency

	Pins Pins
}

// New opens the configured panel on p and returns a drawing surface for
// it. The panel is initialized and left displaying whatever its RAM held;
// callers usually start with FillScreen.
func New(p spi.Port, cfg Config) (Surface, error) {
	if cfg.Pins.DC == nil {
		return nil, errors.New("gfx: data/command pin is required")
	}

	var ctrl Controller
	var err error
	switch cfg.Driver {
	case DriverST7789:
		ctrl, err = st7789.New(p, cfg.Pins.DC, &st7789.Opts{
			Rotation:  cfg.Rotation,
			Frequency: cfg.Frequency,
			CS:        cfg.Pins.CS,
			RST:       cfg.Pins.RST,
		})
	case DriverST7796:
		ctrl, err = st7796.New(p, cfg.Pins.DC, &st7796.Opts{
			Rotation:  cfg.Rotation,
			Frequency: cfg.Frequency,
			CS:        cfg.Pins.CS,
			RST:       cfg.Pins.RST,
		})
	case DriverILI9488:
		ctrl, err = ili9488.New(p, cfg.Pins.DC, &ili9488.Opts{
			Rotation:  cfg.Rotation,
			Frequency: cfg.Frequency,
			CS:        cfg.Pins.CS,
			RST:       cfg.Pins.RST,
		})
	case DriverCO5300:
		ctrl, err = co5300.New(p, cfg.Pins.DC, &co5300.Opts{
			Rotation:  cfg.Rotation,
			Frequency: cfg.Frequency,
			CS:        cfg.Pins.CS,
			RST:       cfg.Pins.RST,
		})
	default:
		return nil, fmt.Errorf("gfx: unknown driver %v", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return newSurface(ctrl, cfg.Strategy, cfg.Pins.Backlight)
}

// newSurface wraps an already initialized controller in the requested
// strategy. Split from New so tests can drive a fake controller.
func newSurface(ctrl Controller, s Strategy, backlight gpio.PinOut) (Surface, error) {
	bright := resolveBrightness(ctrl, backlight)
	if s == StrategyAuto {
		b := ctrl.Bounds()
		if b.Dx()*b.Dy()*ctrl.PixelBytes() <= bufferBudget {
			s = StrategyBuffered
		} else {
			s = StrategyDirect
		}
	}
	switch s {
	case StrategyBuffered:
		return newBuffered(ctrl, bright), nil
	case StrategyDirect:
		return newDirect(ctrl, bright), nil
	}
	return nil, fmt.Errorf("gfx: unknown strategy %v", s)
}
