package compositor

import (
	"fmt"
	"image"

	"golang.org/x/image/math/f64"
)

// View is a placement of a surface into the scene. A surface may have
// any number of views, such as one per seat for a cursor surface or one
// per parent view for a sub-surface.
type View struct {
	surface *Surface
	parent  *View
	offset  image.Point
	enabled bool
}

func (v *View) String() string {
	return fmt.Sprintf("view(%v)", v.surface)
}

func (v *View) Surface() *Surface {
	return v.surface
}

// Parent returns the view that v is stacked relative to, or nil for
// top-level views.
func (v *View) Parent() *View {
	return v.parent
}

// Drawable reports whether the view's surface has committed content and
// has not been destroyed.
func (v *View) Drawable() bool {
	return (v.surface.Buffer() != nil) && !v.surface.Destroyed()
}

func (v *View) Enabled() bool {
	return v.enabled
}

func (v *View) SetEnabled(enabled bool) {
	v.enabled = enabled
}

// Offset returns the view's own offset from its surface's position.
func (v *View) Offset() image.Point {
	return v.offset
}

// SetOffset moves the view relative to its surface's position without
// affecting other views of the same surface.
func (v *View) SetOffset(offset image.Point) {
	v.offset = offset
}

// Position returns the global position of the view's top-left corner.
func (v *View) Position() image.Point {
	p := v.surface.Position().Add(v.offset)
	if v.parent != nil {
		p = p.Add(v.parent.Position())
	}
	return p
}

// Local converts global coordinates into the view's surface-local
// coordinates.
func (v *View) Local(global image.Point) image.Point {
	return global.Sub(v.Position())
}

// Global converts surface-local coordinates into global ones.
func (v *View) Global(local image.Point) image.Point {
	return local.Add(v.Position())
}

// Transform returns the affine transformation from global to
// surface-local coordinates.
func (v *View) Transform() f64.Aff3 {
	p := v.Position()
	return f64.Aff3{
		1, 0, float64(-p.X),
		0, 1, float64(-p.Y),
	}
}
