package gfx

import (
	"fmt"
	"image"
	"math"

	"github.com/pockettft/gfx/font5x8"
	"github.com/pockettft/gfx/pixel"
)

// Direct renders every primitive straight to the panel: clip, open a
// window, stream pixels. Nothing is held in memory beyond a small staging
// buffer, which is what lets the 320x480 and AMOLED panels run on boards
// that cannot afford a framebuffer.
type Direct struct {
	base
	stage []byte // reused for pixel streaming, bounds SPI transfer size
	px    []byte // one encoded pixel
}

func newDirect(ctrl Controller, bright func(int) error) *Direct {
	return &Direct{
		base:  base{ctrl: ctrl, bright: bright},
		stage: make([]byte, 0, 1024),
		px:    make([]byte, ctrl.PixelBytes()),
	}
}

func (s *Direct) String() string {
	return fmt.Sprintf("gfx.Direct{%s}", s.ctrl)
}

// Flush is a no-op: every primitive already reached the panel.
func (s *Direct) Flush() error {
	return nil
}

// fillWindow opens r and streams it full of c through the staging buffer.
func (s *Direct) fillWindow(r image.Rectangle, c pixel.Color) error {
	if err := s.ctrl.SetWindow(r); err != nil {
		return err
	}
	bpp := s.ctrl.PixelBytes()
	encodePixel(s.px, c, bpp)
	total := r.Dx() * r.Dy()
	s.stage = s.stage[:0]
	for i := 0; i < total; i++ {
		s.stage = append(s.stage, s.px[:bpp]...)
		if len(s.stage)+bpp > cap(s.stage) {
			if err := s.ctrl.WritePixels(s.stage); err != nil {
				return err
			}
			s.stage = s.stage[:0]
		}
	}
	if len(s.stage) > 0 {
		return s.ctrl.WritePixels(s.stage)
	}
	return nil
}

func (s *Direct) FillScreen(c pixel.Color) error {
	return s.fillWindow(s.ctrl.Bounds(), c)
}

func (s *Direct) Pixel(x, y int, c pixel.Color) error {
	pt := image.Rect(x, y, x+1, y+1)
	if !pt.In(s.ctrl.Bounds()) {
		return nil
	}
	if err := s.ctrl.SetWindow(pt); err != nil {
		return err
	}
	encodePixel(s.px, c, s.ctrl.PixelBytes())
	return s.ctrl.WritePixels(s.px)
}

func (s *Direct) HLine(x, y, w int, c pixel.Color) error {
	return s.FillRect(x, y, w, 1, c)
}

func (s *Direct) VLine(x, y, h int, c pixel.Color) error {
	return s.FillRect(x, y, 1, h, c)
}

func (s *Direct) FillRect(x, y, w, h int, c pixel.Color) error {
	r := clipRect(x, y, w, h, s.ctrl.Bounds())
	if r.Empty() {
		return nil
	}
	return s.fillWindow(r, c)
}

func (s *Direct) Rect(x, y, w, h int, c pixel.Color) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	if err := s.FillRect(x, y, w, 1, c); err != nil {
		return err
	}
	if err := s.FillRect(x, y+h-1, w, 1, c); err != nil {
		return err
	}
	if err := s.FillRect(x, y, 1, h, c); err != nil {
		return err
	}
	return s.FillRect(x+w-1, y, 1, h, c)
}

func (s *Direct) Line(x0, y0, x1, y1 int, c pixel.Color) error {
	var err error
	drawLine(x0, y0, x1, y1, func(x, y int) {
		if err != nil {
			return
		}
		err = s.Pixel(x, y, c)
	})
	return err
}

// Circle approximates the outline by plotting points every two degrees.
// Coarser than the midpoint walk the buffered strategy uses, but each
// plotted point is a full window transaction here, so fewer points win.
func (s *Direct) Circle(x, y, r int, c pixel.Color) error {
	if r < 0 {
		return nil
	}
	for angle := 0; angle < 360; angle += 2 {
		rad := float64(angle) * math.Pi / 180
		px := x + int(float64(r)*math.Cos(rad))
		py := y + int(float64(r)*math.Sin(rad))
		if err := s.Pixel(px, py, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Direct) FillCircle(x, y, r int, c pixel.Color) error {
	if r < 0 {
		return nil
	}
	for dy := -r; dy <= r; dy++ {
		dx := int(math.Sqrt(float64(r*r - dy*dy)))
		if err := s.HLine(x-dx, y+dy, 2*dx+1, c); err != nil {
			return err
		}
	}
	return nil
}

// Text renders s with the 5x8 panel font on a black background.
func (s *Direct) Text(str string, x, y int, c pixel.Color) error {
	return s.TextScaled(str, x, y, 1, c)
}

// TextScaled renders str one glyph column per window: a column of the 5x8
// font becomes a scale-wide strip of 8*scale rows, streamed in a single
// transaction with unset bits written as black. Text costs five windows
// per character; the inter-glyph gap is never written.
func (s *Direct) TextScaled(str string, x, y, scale int, c pixel.Color) error {
	if scale < 1 {
		return nil
	}
	bounds := s.ctrl.Bounds()
	bpp := s.ctrl.PixelBytes()
	encodePixel(s.px, c, bpp)
	var bg [3]byte
	pen := x
	for _, r := range str {
		cols, ok := font5x8.Glyph(r)
		if !ok {
			pen += font5x8.Advance * scale
			continue
		}
		for i, col := range cols {
			strip := image.Rect(pen+i*scale, y, pen+(i+1)*scale, y+font5x8.Height*scale)
			vis := strip.Intersect(bounds)
			if vis.Empty() {
				continue
			}
			if err := s.ctrl.SetWindow(vis); err != nil {
				return err
			}
			s.stage = s.stage[:0]
			for py := vis.Min.Y; py < vis.Max.Y; py++ {
				row := (py - y) / scale
				for px := vis.Min.X; px < vis.Max.X; px++ {
					if col&(1<<row) != 0 {
						s.stage = append(s.stage, s.px[:bpp]...)
					} else {
						s.stage = append(s.stage, bg[:bpp]...)
					}
					if len(s.stage)+bpp > cap(s.stage) {
						if err := s.ctrl.WritePixels(s.stage); err != nil {
							return err
						}
						s.stage = s.stage[:0]
					}
				}
			}
			if len(s.stage) > 0 {
				if err := s.ctrl.WritePixels(s.stage); err != nil {
					return err
				}
				s.stage = s.stage[:0]
			}
		}
		pen += font5x8.Advance * scale
	}
	return nil
}

// Draw streams src into the panel region dst without buffering the frame.
func (s *Direct) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	dst = dst.Intersect(s.ctrl.Bounds())
	if dst.Empty() {
		return nil
	}
	if err := s.ctrl.SetWindow(dst); err != nil {
		return err
	}
	bpp := s.ctrl.PixelBytes()
	s.stage = s.stage[:0]
	for y := 0; y < dst.Dy(); y++ {
		for x := 0; x < dst.Dx(); x++ {
			c := pixel.Model.Convert(src.At(sp.X+x, sp.Y+y)).(pixel.Color)
			encodePixel(s.px, c, bpp)
			s.stage = append(s.stage, s.px[:bpp]...)
			if len(s.stage)+bpp > cap(s.stage) {
				if err := s.ctrl.WritePixels(s.stage); err != nil {
					return err
				}
				s.stage = s.stage[:0]
			}
		}
	}
	if len(s.stage) > 0 {
		err := s.ctrl.WritePixels(s.stage)
		s.stage = s.stage[:0]
		return err
	}
	return nil
}
