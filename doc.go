// Package gfx is a 2D drawing layer for the SPI display panels used by
// pocket handhelds.
//
// One Surface API covers four controllers — ST7789 (240×240), ST7796
// (320×480), ILI9488 (320×320) and the CO5300 AMOLED (410×502) — behind
// two rendering strategies picked per panel.
//
// # Rendering Strategies
//
// StrategyBuffered mirrors the panel in an in-memory RGB565 framebuffer.
// Primitives mutate the mirror and Flush streams the whole frame through a
// single addressing window: fast, tear-free, and width×height×2 bytes of
// RAM.
//
// StrategyDirect draws each primitive straight to the panel through its
// own window with a fixed 1KiB staging buffer. Memory use is constant and
// results are immediately visible, which suits the larger panels on boards
// that cannot hold a full frame.
//
// StrategyAuto picks buffered when the frame fits a small
// microcontroller's RAM budget and direct otherwise.
//
// # Basic Usage
//
//	port, _ := spireg.Open("")
//	dc := gpioreg.ByName("GPIO8")
//	s, err := gfx.New(port, gfx.Config{
//		Driver: gfx.DriverST7789,
//		Pins:   gfx.Pins{DC: dc},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	s.FillScreen(pixel.Black)
//	s.Text("Hello", 10, 10, pixel.White)
//	s.Flush()
//
// Colors are pixel.Color RGB values; TFT panels quantize them to RGB565 on
// the wire while the AMOLED receives all 24 bits.
//
// # Brightness
//
// SetBrightness takes a 0-100 percentage. Panels with a brightness
// register (the AMOLED) use it; TFT panels dim their backlight by PWM when
// Pins.Backlight is wired. The path is fixed when the surface is built.
package gfx
