// Package dcbus frames SPI transfers for 4-wire display controllers.
//
// The panels share one protocol shape: a data/command line selects whether
// the controller latches the next bytes into its command register or as
// parameter/pixel data, and an optional chip-select line brackets every
// transfer. A chip select left asserted corrupts every later transaction on
// a shared bus, so both lines are scoped to exactly one transfer and the
// select is released on every path, error paths included.
package dcbus

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// Bus frames command and data writes over an SPI connection.
type Bus struct {
	c  conn.Conn
	dc gpio.PinOut
	cs gpio.PinOut // nil when chip select is wired to the SPI peripheral
}

// New returns a Bus writing through c, using dc as the data/command line.
// cs may be nil if the hardware asserts chip select itself.
func New(c conn.Conn, dc, cs gpio.PinOut) *Bus {
	return &Bus{c: c, dc: dc, cs: cs}
}

// Command sends a command byte followed by its parameter bytes, if any.
// The whole sequence happens under one chip-select assertion. A failed
// write is returned as-is; the controller may be mid-command, which only a
// reset can clear, so no retry is attempted.
func (b *Bus) Command(cmd byte, args ...byte) (err error) {
	if release, cerr := b.assert(); cerr != nil {
		return cerr
	} else {
		defer release(&err)
	}
	if err = b.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("dcbus: data/command low: %w", err)
	}
	if err = b.c.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("dcbus: command 0x%02X: %w", cmd, err)
	}
	if len(args) == 0 {
		return nil
	}
	if err = b.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("dcbus: data/command high: %w", err)
	}
	if err = b.c.Tx(args, nil); err != nil {
		return fmt.Errorf("dcbus: command 0x%02X args: %w", cmd, err)
	}
	return nil
}

// Data sends a payload with the data/command line high, under one
// chip-select assertion.
func (b *Bus) Data(p []byte) (err error) {
	if release, cerr := b.assert(); cerr != nil {
		return cerr
	} else {
		defer release(&err)
	}
	if err = b.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("dcbus: data/command high: %w", err)
	}
	if err = b.c.Tx(p, nil); err != nil {
		return fmt.Errorf("dcbus: data: %w", err)
	}
	return nil
}

// assert drives chip select low and returns the matching release. The
// release reports its own failure only when the transfer itself succeeded.
func (b *Bus) assert() (func(*error), error) {
	if b.cs == nil {
		return func(*error) {}, nil
	}
	if err := b.cs.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("dcbus: chip select assert: %w", err)
	}
	return func(errp *error) {
		if err := b.cs.Out(gpio.High); err != nil && *errp == nil {
			*errp = fmt.Errorf("dcbus: chip select release: %w", err)
		}
	}, nil
}
