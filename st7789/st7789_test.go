package st7789

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

// flatten joins all recorded SPI writes into one stream. The data/command
// line is not visible to the recorder, so tests assert on command and
// parameter bytes in wire order.
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
		cmdSLPOUT,
		cmdCOLMOD, 0x55,
		cmdMADCTL, 0x70,
		cmdCASET, 0x00, 0x00, 0x00, 0xEF,
		cmdRASET, 0x00, 0x00, 0x00, 0xEF,
		cmdINVON,
		cmdNORON,
		cmdDISPON,
	}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("init stream\ngot  % X\nwant % X", got, want)
	}
}

func TestMADCTLRotations(t *testing.T) {
	for _, tc := range []struct {
		rotation int
		want     byte
	}{
		{0, 0x70},
		{90, 0x00},
		{180, 0xB0},
		{270, 0xC0},
	} {
		if got := madctl[tc.rotation]; got != tc.want {
			t.Errorf("rotation %d: MADCTL = 0x%02X, want 0x%02X", tc.rotation, got, tc.want)
		}
	}
}

func TestSetWindow(t *testing.T) {
	d, rec := testDev()
	if err := d.SetWindow(image.Rect(10, 20, 110, 60)); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		cmdCASET, 0x00, 10, 0x00, 109,
		cmdRASET, 0x00, 20, 0x00, 59,
		cmdRAMWR,
	}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("window stream\ngot  % X\nwant % X", got, want)
	}
}

func TestSetWindowRejectsOutOfBounds(t *testing.T) {
	d, _ := testDev()
	for _, r := range []image.Rectangle{
		image.Rect(-1, 0, 10, 10),
		image.Rect(0, 0, Width+1, 10),
		image.Rect(5, 5, 5, 5), // empty
	} {
		if err := d.SetWindow(r); err == nil {
			t.Errorf("SetWindow(%v): expected error", r)
		}
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
	want := []byte{cmdDISPOFF, cmdSLPIN}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("double sleep sent % X, want % X", got, want)
	}

	rec.Ops = nil
	if err := d.Wake(); err != nil {
		t.Fatal(err)
	}
	if err := d.Wake(); err != nil {
		t.Fatal(err)
	}
	want = []byte{cmdSLPOUT, cmdDISPON}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("double wake sent % X, want % X", got, want)
	}
}

func TestInvert(t *testing.T) {
	d, rec := testDev()
	// The panel baseline is INVON; logical inversion flips to INVOFF.
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	want := []byte{cmdINVOFF, cmdINVON}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("invert sent % X, want % X", got, want)
	}
}

func TestHaltedRejectsCommands(t *testing.T) {
	d, _ := testDev()
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := d.SetWindow(image.Rect(0, 0, 10, 10)); err == nil {
		t.Error("SetWindow after Halt: expected error")
	}
	if err := d.WritePixels([]byte{0x00, 0x00}); err == nil {
		t.Error("WritePixels after Halt: expected error")
	}
	if err := d.Sleep(); err == nil {
		t.Error("Sleep after Halt: expected error")
	}
	// Second Halt stays quiet.
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
}

func TestPixelBytes(t *testing.T) {
	d, _ := testDev()
	if got := d.PixelBytes(); got != 2 {
		t.Fatalf("PixelBytes = %d, want 2", got)
	}
	if got := d.Bounds(); got != image.Rect(0, 0, 240, 240) {
		t.Fatalf("Bounds = %v", got)
	}
}
