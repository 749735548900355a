package co5300

import (
	"bytes"
	"image"
	"testing"

	"github.com/pockettft/gfx/dcbus"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testDev() (*Dev, *conntest.Record) {
	rec := &conntest.Record{}
	return &Dev{
		bus:  dcbus.New(rec, &gpiotest.Pin{N: "dc"}, nil),
		rect: image.Rect(0, 0, Width, Height),
	}, rec
}

func flatten(rec *conntest.Record) []byte {
	var b []byte
	for _, op := range rec.Ops {
		b = append(b, op.W...)
	}
	return b
}

func TestInitSequence(t *testing.T) {
	d, rec := testDev()
	if err := d.init(0); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		cmdSWRESET,
		cmdSLPOUT,
		cmdCOLMOD, 0x77,
		cmdMADCTL, 0x48,
		cmdNORON,
		cmdDISPON,
		cmdWRDISBV, 0xFF, // full brightness
	}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("init stream\ngot  % X\nwant % X", got, want)
	}
}

func TestSetBrightness(t *testing.T) {
	d, rec := testDev()
	for _, tc := range []struct {
		level int
		want  byte
	}{
		{0, 0x00},
		{30, 76},   // power save preset
		{50, 127},
		{100, 255},
		{-5, 0x00}, // clamped
		{150, 255}, // clamped
	} {
		rec.Ops = nil
		if err := d.SetBrightness(tc.level); err != nil {
			t.Fatal(err)
		}
		want := []byte{cmdWRDISBV, tc.want}
		if got := flatten(rec); !bytes.Equal(got, want) {
			t.Errorf("SetBrightness(%d) sent % X, want % X", tc.level, got, want)
		}
	}
}

func TestSetWindowAddresses(t *testing.T) {
	d, rec := testDev()
	// Full panel: both end addresses exceed one byte.
	if err := d.SetWindow(d.Bounds()); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		cmdCASET, 0x00, 0x00, 0x01, 0x99, // 0..409
		cmdRASET, 0x00, 0x00, 0x01, 0xF5, // 0..501
		cmdRAMWR,
	}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("window stream\ngot  % X\nwant % X", got, want)
	}
}

func TestPixelBytes(t *testing.T) {
	d, _ := testDev()
	if got := d.PixelBytes(); got != 3 {
		t.Fatalf("PixelBytes = %d, want 3", got)
	}
}

func TestSleepWakeIdempotent(t *testing.T) {
	d, rec := testDev()
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if err := d.Wake(); err != nil {
		t.Fatal(err)
	}
	if err := d.Wake(); err != nil {
		t.Fatal(err)
	}
	want := []byte{cmdDISPOFF, cmdSLPIN, cmdSLPOUT, cmdDISPON}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("sleep/wake sent % X, want % X", got, want)
	}
}

func TestHaltedRejectsCommands(t *testing.T) {
	d, _ := testDev()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetBrightness(50); err == nil {
		t.Error("SetBrightness after Halt: expected error")
	}
	if err := d.SetWindow(image.Rect(0, 0, 10, 10)); err == nil {
		t.Error("SetWindow after Halt: expected error")
	}
}
