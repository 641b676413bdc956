// Package render draws a scene into an image in software.
package render

import (
	"fmt"
	"image"
	"image/color"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/ximage/xcursor"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const cursorSize = 32

// Image is implemented by buffers whose pixels can be read.
type Image interface {
	Image() image.Image
}

// Opaquer is implemented by buffers that know their alpha channel is
// meaningless.
type Opaquer interface {
	Opaque() bool
}

// Renderer draws views, bottom to top, into an image.
type Renderer struct {
	log        zerolog.Logger
	background image.Image

	cursor    image.Image
	cursorHot image.Point
}

func New(log zerolog.Logger) *Renderer {
	return &Renderer{
		log:        log,
		background: image.NewUniform(color.RGBA{R: 0x20, G: 0x20, B: 0x28, A: 0xff}),
	}
}

// SetBackground sets the color that is drawn under everything else.
func (r *Renderer) SetBackground(c color.Color) {
	r.background = image.NewUniform(c)
}

// LoadCursor loads the left_ptr cursor from an XCursor theme. It is
// drawn at the pointer whenever no client has set a cursor. An empty
// theme name loads the default theme.
func (r *Renderer) LoadCursor(theme string) error {
	t, err := xcursor.LoadTheme(theme)
	if err != nil {
		return fmt.Errorf("load cursor theme %q: %w", theme, err)
	}

	cursors, ok := t.Cursors["left_ptr"]
	if !ok {
		return fmt.Errorf("no left_ptr cursor in theme %q", theme)
	}
	cimg := cursors.Images[cursors.BestSize(cursorSize)][0]

	r.SetCursor(cimg.Image, cimg.Hot)
	return nil
}

// SetCursor sets the fallback cursor image directly.
func (r *Renderer) SetCursor(img image.Image, hot image.Point) {
	r.cursor = img
	r.cursorHot = hot
}

// Render draws views into dst in order and returns the surfaces that
// were drawn. Views that are disabled, that have nothing committed, or
// whose buffer can't be read are skipped. If none of the views belongs
// to a cursor, the fallback cursor is drawn at pointer.
func (r *Renderer) Render(dst draw.Image, views []*compositor.View, pointer image.Point) []*compositor.Surface {
	draw.Draw(dst, dst.Bounds(), r.background, image.Point{}, draw.Src)

	var drawn []*compositor.Surface
	var hasCursor bool
	for _, v := range views {
		if !v.Drawable() || !v.Enabled() {
			continue
		}

		s := v.Surface()
		buf, ok := s.Buffer().(Image)
		if !ok {
			r.log.Debug().Stringer("surface", s).Msg("buffer is not readable")
			continue
		}

		op := draw.Over
		if o, ok := s.Buffer().(Opaquer); ok && o.Opaque() {
			op = draw.Src
		}

		drawView(dst, v, buf.Image(), op)
		drawn = append(drawn, s)
		if s.Role().Kind == compositor.RoleCursor {
			hasCursor = true
		}
	}

	if !hasCursor && (r.cursor != nil) {
		at := pointer.Sub(r.cursorHot)
		draw.Draw(dst, r.cursor.Bounds().Sub(r.cursor.Bounds().Min).Add(at), r.cursor, r.cursor.Bounds().Min, draw.Over)
	}

	return drawn
}

func drawView(dst draw.Image, v *compositor.View, src image.Image, op draw.Op) {
	s := v.Surface()
	pos := v.Position()
	m := s.Transform()
	scale := s.Scale()

	if (m == compositor.Identity) && (scale == 1) {
		b := src.Bounds()
		draw.Draw(dst, b.Sub(b.Min).Add(pos), src, b.Min, op)
		return
	}

	draw.NearestNeighbor.Transform(dst, sourceToDest(src.Bounds(), pos, m, scale), src, src.Bounds(), op, nil)
}

// sourceToDest builds the affine transformation from buffer pixels to
// output pixels. The buffer is scaled down, oriented by m, and then
// shifted so that its top-left corner lands on pos.
func sourceToDest(b image.Rectangle, pos image.Point, m f64.Mat3, scale int32) f64.Aff3 {
	k := float64(scale)
	a, bb, c, d := m[0]/k, m[1]/k, m[3]/k, m[4]/k

	corners := [...]image.Point{b.Min, {b.Max.X, b.Min.Y}, {b.Min.X, b.Max.Y}, b.Max}
	minX, minY := 0.0, 0.0
	for i, p := range corners {
		x := a*float64(p.X) + bb*float64(p.Y)
		y := c*float64(p.X) + d*float64(p.Y)
		if (i == 0) || (x < minX) {
			minX = x
		}
		if (i == 0) || (y < minY) {
			minY = y
		}
	}

	return f64.Aff3{
		a, bb, float64(pos.X) - minX,
		c, d, float64(pos.Y) - minY,
	}
}
