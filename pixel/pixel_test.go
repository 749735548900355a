package pixel

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestPaletteRGB565Words(t *testing.T) {
	tests := []struct {
		name string
		c    Color
		want uint16
	}{
		{"black", Black, 0x0000},
		{"white", White, 0xFFFF},
		{"red", Red, 0xF800},
		{"green", Green, 0x07E0},
		{"blue", Blue, 0x001F},
		{"cyan", Cyan, 0x07FF},
		{"magenta", Magenta, 0xF81F},
		{"yellow", Yellow, 0xFFE0},
		{"orange", Orange, 0xFD20},
		{"purple", Purple, 0x8010},
		{"gray", Gray, 0x8410},
		{"dark gray", DarkGray, 0x4208},
		{"light gray", LightGray, 0xC618},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.RGB565(); got != tt.want {
				t.Errorf("RGB565() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

// The 565 encoding is lossy in one direction only: decoding zero-fills the
// dropped bits, so re-encoding the decoded color must reproduce the same
// word, while the decoded channels may sit below the originals by up to the
// truncated bit span (7 for red/blue, 3 for green).
func TestRGB565RoundTripStability(t *testing.T) {
	for r := 0; r < 256; r += 5 {
		for g := 0; g < 256; g += 5 {
			for b := 0; b < 256; b += 5 {
				c := Color{uint8(r), uint8(g), uint8(b)}
				v := c.RGB565()
				back := FromRGB565(v)
				if got := back.RGB565(); got != v {
					t.Fatalf("re-encode of (%d,%d,%d): 0x%04X, want 0x%04X", r, g, b, got, v)
				}
				if d := int(c.R) - int(back.R); d < 0 || d > 7 {
					t.Fatalf("red error %d for input %d", d, r)
				}
				if d := int(c.G) - int(back.G); d < 0 || d > 3 {
					t.Fatalf("green error %d for input %d", d, g)
				}
				if d := int(c.B) - int(back.B); d < 0 || d > 7 {
					t.Fatalf("blue error %d for input %d", d, b)
				}
			}
		}
	}
}

func TestRGB565PerChannelExhaustive(t *testing.T) {
	for v := 0; v < 256; v++ {
		c := Color{R: uint8(v)}
		if got := FromRGB565(c.RGB565()).R; got != uint8(v)&0xF8 {
			t.Fatalf("red %d decoded to %d, want %d", v, got, v&0xF8)
		}
		c = Color{G: uint8(v)}
		if got := FromRGB565(c.RGB565()).G; got != uint8(v)&0xFC {
			t.Fatalf("green %d decoded to %d, want %d", v, got, v&0xFC)
		}
		c = Color{B: uint8(v)}
		if got := FromRGB565(c.RGB565()).B; got != uint8(v)&0xF8 {
			t.Fatalf("blue %d decoded to %d, want %d", v, got, v&0xF8)
		}
	}
}

func TestModelConvert(t *testing.T) {
	got := Model.Convert(color.RGBA{R: 0xFF, G: 0x80, B: 0x00, A: 0xFF})
	want := Color{0xFF, 0x80, 0x00}
	if got != want {
		t.Errorf("Convert() = %v, want %v", got, want)
	}
	// Converting a Color is the identity.
	if got := Model.Convert(Orange); got != Orange {
		t.Errorf("Convert(Orange) = %v, want %v", got, Orange)
	}
}

func TestImageSetAt(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 8, 4))
	img.SetColor(3, 2, Green)

	if got := img.RGB565At(3, 2); got != 0x07E0 {
		t.Errorf("RGB565At(3,2) = 0x%04X, want 0x07E0", got)
	}
	if got := img.RGB565At(4, 2); got != 0 {
		t.Errorf("neighbor pixel = 0x%04X, want 0", got)
	}

	// Big-endian packing: high byte first.
	i := 2*img.Stride + 3*2
	if img.Pix[i] != 0x07 || img.Pix[i+1] != 0xE0 {
		t.Errorf("packed bytes = %02X %02X, want 07 E0", img.Pix[i], img.Pix[i+1])
	}

	// Out-of-bounds writes are dropped, reads return zero.
	img.SetColor(-1, 0, White)
	img.SetColor(8, 0, White)
	if got := img.RGB565At(-1, 0); got != 0 {
		t.Errorf("out-of-bounds At = 0x%04X, want 0", got)
	}
}

func TestImageFill(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 5, 5))
	img.Fill(Red)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if got := img.RGB565At(x, y); got != 0xF800 {
				t.Fatalf("pixel (%d,%d) = 0x%04X, want 0xF800", x, y, got)
			}
		}
	}
}

func TestImageDrawInterop(t *testing.T) {
	img := NewImage(image.Rect(0, 0, 10, 10))
	draw.Draw(img, image.Rect(2, 2, 6, 6), image.NewUniform(Blue), image.Point{}, draw.Src)

	if got := img.RGB565At(2, 2); got != 0x001F {
		t.Errorf("inside rect = 0x%04X, want 0x001F", got)
	}
	if got := img.RGB565At(6, 6); got != 0 {
		t.Errorf("outside rect = 0x%04X, want 0", got)
	}
}
