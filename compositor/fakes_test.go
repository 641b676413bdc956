package compositor

import "image"

type fakeBuffer struct {
	rect     image.Rectangle
	released int
	order    *[]string
	name     string
}

func newBuffer(w, h int) *fakeBuffer {
	return &fakeBuffer{rect: image.Rect(0, 0, w, h)}
}

func (b *fakeBuffer) Bounds() image.Rectangle { return b.rect }

func (b *fakeBuffer) Release() {
	b.released++
	if b.order != nil {
		*b.order = append(*b.order, "release "+b.name)
	}
}

type fakeRenderer struct {
	requests []*Surface
	order    *[]string
}

func (r *fakeRenderer) RequestRender(s *Surface) {
	r.requests = append(r.requests, s)
	if r.order != nil {
		*r.order = append(*r.order, "render")
	}
}

// window creates a committed surface of the given size at p.
func window(id uint32, r image.Rectangle) *Surface {
	s := NewSurface(id, nil)
	s.AttachBuffer(newBuffer(r.Dx(), r.Dy()), r.Min.X, r.Min.Y)
	s.Commit()
	return s
}
