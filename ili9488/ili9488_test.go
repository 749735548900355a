package ili9488

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
		cmdPWCTR1, 0x17, 0x15,
		cmdPWCTR2, 0x41,
		cmdVMCTR1, 0x00, 0x12, 0x80,
		cmdMADCTL, 0x48,
		cmdPIXFMT, 0x55,
		cmdFRMCTR1, 0xA0,
		cmdDFUNCTR, 0x02, 0x02, 0x3B,
		cmdGMCTRP1,
		0x00, 0x03, 0x09, 0x08, 0x16, 0x0A, 0x3F, 0x78,
		0x4C, 0x09, 0x0A, 0x08, 0x16, 0x1A, 0x0F,
		cmdGMCTRN1,
		0x00, 0x16, 0x19, 0x03, 0x0F, 0x05, 0x32, 0x45,
		0x46, 0x04, 0x0E, 0x0D, 0x35, 0x37, 0x0F,
		cmdSLPOUT,
		cmdDISPON,
	}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("init stream\ngot  % X\nwant % X", got, want)
	}
}

func TestBoundsSquare(t *testing.T) {
	// The panel is square: rotation changes MADCTL only, never the bounds.
	d, _ := testDev()
	if got := d.Bounds(); got != image.Rect(0, 0, 320, 320) {
		t.Fatalf("Bounds = %v", got)
	}
	for r, m := range map[int]byte{0: 0x48, 90: 0x28, 180: 0x88, 270: 0xE8} {
		if madctl[r] != m {
			t.Errorf("rotation %d: MADCTL = 0x%02X, want 0x%02X", r, madctl[r], m)
		}
	}
}

func TestSetWindow(t *testing.T) {
	d, rec := testDev()
	if err := d.SetWindow(image.Rect(100, 100, 320, 320)); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		cmdCASET, 0x00, 0x64, 0x01, 0x3F,
		cmdPASET, 0x00, 0x64, 0x01, 0x3F,
		cmdRAMWR,
	}
	if got := flatten(rec); !bytes.Equal(got, want) {
		t.Fatalf("window stream\ngot  % X\nwant % X", got, want)
	}
	if err := d.SetWindow(image.Rect(0, 0, 321, 10)); err == nil {
		t.Error("expected out of bounds error")
	}
}

func TestSleepWakeIdempotent(t *testing.T) {
	d, rec := testDev()
	for i := 0; i < 3; i++ {
		if err := d.Sleep(); err != nil {
			t.Fatal(err)
		}
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
	if err := d.WritePixels([]byte{0xFF, 0xFF}); err == nil {
		t.Error("WritePixels after Halt: expected error")
	}
	if err := d.Wake(); err == nil {
		t.Error("Wake after Halt: expected error")
	}
}
