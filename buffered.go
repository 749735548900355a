package gfx

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/pockettft/gfx/font5x8"
	"github.com/pockettft/gfx/pixel"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Buffered renders through a full in-memory mirror of the panel.
// Primitives mutate the mirror only; Flush streams the whole frame through
// a single window. The panel never shows a half-drawn scene.
type Buffered struct {
	base
	fb *pixel.Image
}

func newBuffered(ctrl Controller, bright func(int) error) *Buffered {
	return &Buffered{
		base: base{ctrl: ctrl, bright: bright},
		fb:   pixel.NewImage(ctrl.Bounds()),
	}
}

// Framebuffer exposes the mirror for direct composition with the image
// packages. Changes become visible on the next Flush.
func (s *Buffered) Framebuffer() *pixel.Image {
	return s.fb
}

func (s *Buffered) String() string {
	return fmt.Sprintf("gfx.Buffered{%s}", s.ctrl)
}

// Flush streams the framebuffer to the panel.
func (s *Buffered) Flush() error {
	if err := s.ctrl.SetWindow(s.fb.Rect); err != nil {
		return err
	}
	return s.writePixels(s.fb.Rect)
}

// writePixels streams the framebuffer rows covering r, which must match
// the current window. Panels taking RGB565 get the backing array as-is;
// wider formats are expanded through a bounded staging buffer.
func (s *Buffered) writePixels(r image.Rectangle) error {
	bpp := s.ctrl.PixelBytes()
	if bpp == 2 && r == s.fb.Rect {
		return s.ctrl.WritePixels(s.fb.Pix)
	}
	stage := make([]byte, 0, 1024)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if bpp == 2 {
				v := s.fb.RGB565At(x, y)
				stage = append(stage, byte(v>>8), byte(v))
			} else {
				c := pixel.FromRGB565(s.fb.RGB565At(x, y))
				stage = append(stage, c.R, c.G, c.B)
			}
			if len(stage)+bpp > cap(stage) {
				if err := s.ctrl.WritePixels(stage); err != nil {
					return err
				}
				stage = stage[:0]
			}
		}
	}
	if len(stage) > 0 {
		return s.ctrl.WritePixels(stage)
	}
	return nil
}

// Draw composites src into the framebuffer and pushes only the covered
// region to the panel, so partial updates stay cheap.
func (s *Buffered) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	dst = dst.Intersect(s.fb.Rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(s.fb, dst, src, sp, draw.Src)
	if err := s.ctrl.SetWindow(dst); err != nil {
		return err
	}
	return s.writePixels(dst)
}

func (s *Buffered) FillScreen(c pixel.Color) error {
	s.fb.Fill(c)
	return nil
}

func (s *Buffered) Pixel(x, y int, c pixel.Color) error {
	s.fb.SetColor(x, y, c)
	return nil
}

func (s *Buffered) HLine(x, y, w int, c pixel.Color) error {
	return s.FillRect(x, y, w, 1, c)
}

func (s *Buffered) VLine(x, y, h int, c pixel.Color) error {
	return s.FillRect(x, y, 1, h, c)
}

func (s *Buffered) FillRect(x, y, w, h int, c pixel.Color) error {
	r := clipRect(x, y, w, h, s.fb.Rect)
	v := c.RGB565()
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			s.fb.SetRGB565(px, py, v)
		}
	}
	return nil
}

func (s *Buffered) Rect(x, y, w, h int, c pixel.Color) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	s.FillRect(x, y, w, 1, c)
	s.FillRect(x, y+h-1, w, 1, c)
	s.FillRect(x, y, 1, h, c)
	s.FillRect(x+w-1, y, 1, h, c)
	return nil
}

func (s *Buffered) Line(x0, y0, x1, y1 int, c pixel.Color) error {
	drawLine(x0, y0, x1, y1, func(x, y int) {
		s.fb.SetColor(x, y, c)
	})
	return nil
}

// Circle draws a one-pixel outline using the midpoint algorithm.
func (s *Buffered) Circle(x, y, r int, c pixel.Color) error {
	if r < 0 {
		return nil
	}
	plot := func(px, py int) { s.fb.SetColor(px, py, c) }
	plot(x, y+r)
	plot(x, y-r)
	plot(x+r, y)
	plot(x-r, y)
	f := 1 - r
	dx, dy := 1, -2*r
	px, py := 0, r
	for px < py {
		if f >= 0 {
			py--
			dy += 2
			f += dy
		}
		px++
		dx += 2
		f += dx
		plot(x+px, y+py)
		plot(x-px, y+py)
		plot(x+px, y-py)
		plot(x-px, y-py)
		plot(x+py, y+px)
		plot(x-py, y+px)
		plot(x+py, y-px)
		plot(x-py, y-px)
	}
	return nil
}

func (s *Buffered) FillCircle(x, y, r int, c pixel.Color) error {
	if r < 0 {
		return nil
	}
	for dy := -r; dy <= r; dy++ {
		dx := int(math.Sqrt(float64(r*r - dy*dy)))
		s.HLine(x-dx, y+dy, 2*dx+1, c)
	}
	return nil
}

// Text renders s with the 7x13 fixed face at (x, y) as the top-left
// corner. The face is larger and better hinted than the panel font the
// direct strategy uses; a framebuffer can afford it.
func (s *Buffered) Text(str string, x, y int, c pixel.Color) error {
	d := font.Drawer{
		Dst:  s.fb,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(str)
	return nil
}

// TextScaled renders s with the 5x8 panel font, each font pixel drawn as a
// scale-sized square.
func (s *Buffered) TextScaled(str string, x, y, scale int, c pixel.Color) error {
	if scale < 1 {
		return nil
	}
	pen := x
	for _, r := range str {
		cols, ok := font5x8.Glyph(r)
		if ok {
			for i, col := range cols {
				for row := 0; row < font5x8.Height; row++ {
					if col&(1<<row) == 0 {
						continue
					}
					s.FillRect(pen+i*scale, y+row*scale, scale, scale, c)
				}
			}
		}
		pen += font5x8.Advance * scale
	}
	return nil
}

// drawLine walks the Bresenham line from (x0, y0) to (x1, y1), calling
// plot for every point including both endpoints.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
