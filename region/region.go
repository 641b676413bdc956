// Package region implements the rectangle-set areas used for surface
// damage and for input and opaque masks.
package region

import "image"

// op is a single step in building a region. If other is non-nil, the
// step adds all of other.
type op struct {
	rect  image.Rectangle
	sub   bool
	other *Region
}

// Region is an area built up from a sequence of added and subtracted
// rectangles. The zero value is an empty region.
type Region struct {
	infinite bool
	ops      []op
}

// New returns a new, empty region.
func New() *Region {
	return &Region{}
}

// Infinite returns a region that contains every point. Adding to or
// subtracting from it has no effect.
func Infinite() *Region {
	return &Region{infinite: true}
}

// IsInfinite reports whether r contains every point.
func (r *Region) IsInfinite() bool {
	return r.infinite
}

// Add adds rect to the region.
func (r *Region) Add(rect image.Rectangle) {
	if r.infinite {
		return
	}
	rect = rect.Canon()
	if rect.Empty() {
		return
	}
	r.ops = append(r.ops, op{rect: rect})
}

// Subtract removes rect from the region.
func (r *Region) Subtract(rect image.Rectangle) {
	if r.infinite {
		return
	}
	rect = rect.Canon()
	if rect.Empty() || len(r.ops) == 0 {
		return
	}
	r.ops = append(r.ops, op{rect: rect, sub: true})
}

// Union adds all of other to r.
func (r *Region) Union(other *Region) {
	if (other == nil) || r.infinite {
		return
	}
	if other.infinite {
		r.infinite = true
		r.ops = nil
		return
	}
	if len(other.ops) == 0 {
		return
	}
	r.ops = append(r.ops, op{other: other.Clone()})
}

// Clone returns an independent copy of r.
func (r *Region) Clone() *Region {
	c := Region{infinite: r.infinite}
	if len(r.ops) > 0 {
		c.ops = make([]op, len(r.ops))
		copy(c.ops, r.ops)
	}
	return &c
}

// Contains reports whether p is inside of the region.
func (r *Region) Contains(p image.Point) bool {
	if r.infinite {
		return true
	}

	for i := len(r.ops) - 1; i >= 0; i-- {
		op := r.ops[i]
		if op.other != nil {
			if op.other.Contains(p) {
				return true
			}
			continue
		}
		if p.In(op.rect) {
			return !op.sub
		}
	}
	return false
}

// ContainsIn reports whether p is inside of both the region and clip.
// An infinite region clipped this way covers exactly clip.
func (r *Region) ContainsIn(clip image.Rectangle, p image.Point) bool {
	return p.In(clip) && r.Contains(p)
}

// Bounds returns the smallest rectangle containing every added
// rectangle. Subtractions are not taken into account, so the result
// may be larger than the actual region.
func (r *Region) Bounds() image.Rectangle {
	var b image.Rectangle
	for _, op := range r.ops {
		switch {
		case op.other != nil:
			b = b.Union(op.other.Bounds())
		case !op.sub:
			b = b.Union(op.rect)
		}
	}
	return b
}

// Empty reports whether the region is guaranteed to contain no points.
func (r *Region) Empty() bool {
	return !r.infinite && r.Bounds().Empty()
}

// Rects returns the rectangles that were added to the region, in
// order. Subtracted rectangles are not included.
func (r *Region) Rects() []image.Rectangle {
	rects := make([]image.Rectangle, 0, len(r.ops))
	for _, op := range r.ops {
		switch {
		case op.other != nil:
			rects = append(rects, op.other.Rects()...)
		case !op.sub:
			rects = append(rects, op.rect)
		}
	}
	return rects
}
