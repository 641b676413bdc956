package compositor

import (
	"fmt"
	"image"

	"deedles.dev/wlcomp/internal/xslices"
	"deedles.dev/wlcomp/region"
	"golang.org/x/image/math/f64"
)

// state is the double-buffered part of a surface.
type state struct {
	opaque    *region.Region
	input     *region.Region
	damage    *region.Region
	buffer    Buffer
	offset    image.Point
	transform f64.Mat3
	scale     int32
}

// Surface is a client-owned drawable with double-buffered state.
// Requests from the client modify the pending state, which is only made
// visible to the rest of the compositor by Commit.
type Surface struct {
	id       uint32
	renderer RenderRequester

	pending state

	committed state
	position  image.Point
	destroyed bool

	callbacks []Callback
	role      Role

	views     []*View
	siblings  []*Surface
	parent    *Surface
	sub       *Subsurface
	onDestroy []func()
}

// NewSurface creates a new surface. The ID is the protocol object ID
// that the client knows the surface by. Each commit is reported to r,
// which may be nil.
func NewSurface(id uint32, r RenderRequester) *Surface {
	s := Surface{
		id:       id,
		renderer: r,
		pending: state{
			transform: Identity,
			scale:     1,
		},
		committed: state{
			transform: Identity,
			scale:     1,
		},
	}
	s.siblings = []*Surface{&s}
	return &s
}

func (s *Surface) ID() uint32 {
	return s.id
}

func (s *Surface) String() string {
	return fmt.Sprintf("surface@%v", s.id)
}

// MarkDamaged adds rect to the pending damage.
func (s *Surface) MarkDamaged(rect image.Rectangle) error {
	if (rect.Dx() < 0) || (rect.Dy() < 0) {
		return fmt.Errorf("%w: %v", ErrInvalidDamage, rect)
	}

	if s.pending.damage == nil {
		s.pending.damage = region.New()
	}
	s.pending.damage.Add(rect)
	return nil
}

// AttachBuffer sets the pending buffer. The offset is the position of
// the new buffer's top-left corner relative to the current one.
func (s *Surface) AttachBuffer(b Buffer, dx, dy int) {
	s.pending.buffer = b
	s.pending.offset = image.Pt(dx, dy)
}

// DetachBuffer clears the pending buffer, damage, and offset. Every
// commit does this afterwards, so a commit without a new attach leaves
// the surface without content.
func (s *Surface) DetachBuffer() {
	s.pending.buffer = nil
	s.pending.damage = nil
	s.pending.offset = image.Point{}
}

func (s *Surface) SetOpaqueRegion(r *region.Region) {
	s.pending.opaque = r.Clone()
}

func (s *Surface) RemoveOpaqueRegion() {
	s.pending.opaque = nil
}

func (s *Surface) SetInputRegion(r *region.Region) {
	s.pending.input = r.Clone()
}

func (s *Surface) RemoveInputRegion() {
	s.pending.input = nil
}

func (s *Surface) SetTransform(m f64.Mat3) {
	s.pending.transform = m
}

// RemoveTransform resets the pending transform to identity.
func (s *Surface) RemoveTransform() {
	s.pending.transform = Identity
}

// SetBufferTransform sets the pending transform from one of the
// wl_output transforms.
func (s *Surface) SetBufferTransform(t OutputTransform) error {
	m, err := t.Matrix()
	if err != nil {
		return err
	}
	s.SetTransform(m)
	return nil
}

// SetScale sets the pending buffer scale.
func (s *Surface) SetScale(scale int32) error {
	if scale <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	s.pending.scale = scale
	return nil
}

// Commit atomically applies the pending state. The previously
// committed buffer, if any, is released before the pending one replaces
// it.
func (s *Surface) Commit() {
	s.committed.transform = s.pending.transform
	s.committed.scale = s.pending.scale
	if s.committed.buffer != nil {
		s.committed.buffer.Release()
	}
	s.committed.buffer = s.pending.buffer
	s.position = s.position.Add(s.pending.offset)
	s.committed.damage = s.pending.damage
	s.committed.input = s.pending.input
	s.committed.opaque = s.pending.opaque

	for _, sibling := range s.siblings {
		if (sibling != s) && (sibling.sub != nil) {
			sibling.sub.apply()
		}
	}

	s.DetachBuffer()

	if s.renderer != nil {
		s.renderer.RequestRender(s)
	}
}

// AddCallback queues a callback to be fired when the surface's next
// frame has been drawn.
func (s *Surface) AddCallback(cb Callback) {
	s.callbacks = append(s.callbacks, cb)
}

// Callbacks returns the number of queued frame callbacks.
func (s *Surface) Callbacks() int {
	return len(s.callbacks)
}

// FirePaintCallbacks fires and removes every queued frame callback.
// Callbacks queued while firing belong to the next frame.
func (s *Surface) FirePaintCallbacks(serial uint32) {
	callbacks := s.callbacks
	s.callbacks = nil
	for _, cb := range callbacks {
		cb.Done(serial)
	}
}

// SetRole binds role to the surface. Setting the role that the surface
// already has does nothing. Setting a different one fails with a
// *RoleConflictError and leaves the existing role in place.
func (s *Surface) SetRole(role Role) error {
	switch s.role {
	case role:
		return nil
	case Role{}:
		s.role = role
		return nil
	default:
		return &RoleConflictError{Have: s.role, Want: role}
	}
}

func (s *Surface) Role() Role {
	return s.role
}

// RelativeCoordinate converts a point in global coordinates into
// surface-local ones using the committed position.
func (s *Surface) RelativeCoordinate(p image.Point) image.Point {
	return p.Sub(s.position)
}

// Position is the committed position of the surface. For sub-surfaces
// it is relative to the parent.
func (s *Surface) Position() image.Point {
	return s.position
}

// SetPosition moves the surface immediately, bypassing the pending
// state. It is used by interactive grabs.
func (s *Surface) SetPosition(p image.Point) {
	s.position = p
	if s.renderer != nil {
		s.renderer.RequestRender(s)
	}
}

// Size is the committed size of the surface in surface coordinates.
func (s *Surface) Size() image.Rectangle {
	if s.committed.buffer == nil {
		return image.Rectangle{}
	}

	b := s.committed.buffer.Bounds()
	w, h := b.Dx()/int(s.committed.scale), b.Dy()/int(s.committed.scale)
	if swapsAxes(s.committed.transform) {
		w, h = h, w
	}
	return image.Rect(0, 0, w, h)
}

// Buffer returns the committed buffer, or nil if there is none.
func (s *Surface) Buffer() Buffer {
	return s.committed.buffer
}

// Damage returns the damage that was committed with the current
// buffer, or nil.
func (s *Surface) Damage() *region.Region {
	return s.committed.damage
}

// InputRegion returns the committed input region, or nil if the whole
// surface accepts input.
func (s *Surface) InputRegion() *region.Region {
	return s.committed.input
}

// OpaqueRegion returns the committed opaque region, or nil.
func (s *Surface) OpaqueRegion() *region.Region {
	return s.committed.opaque
}

func (s *Surface) Transform() f64.Mat3 {
	return s.committed.transform
}

func (s *Surface) Scale() int32 {
	return s.committed.scale
}

func (s *Surface) Destroyed() bool {
	return s.destroyed
}

// OnDestroy registers f to be called when the surface is destroyed.
func (s *Surface) OnDestroy(f func()) {
	s.onDestroy = append(s.onDestroy, f)
}

// Destroy marks the surface as destroyed, runs the destroy hooks, and
// drops its views. It is safe to call more than once.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true

	hooks := s.onDestroy
	s.onDestroy = nil
	for _, f := range hooks {
		f()
	}

	if s.sub != nil {
		s.sub.Destroy()
	}
	for _, sibling := range s.siblings {
		if sibling.sub != nil && sibling != s {
			sibling.sub.unlink()
		}
	}
	s.views = nil
}

// NewView creates a view of the surface, along with views of each of
// its sub-surfaces under it.
func (s *Surface) NewView(parent *View) *View {
	v := View{surface: s, parent: parent, enabled: true}
	s.views = append(s.views, &v)

	for _, sibling := range s.siblings {
		if (sibling != s) && (sibling.sub != nil) {
			sibling.NewView(&v)
		}
	}

	return &v
}

// RemoveView drops v from the surface's views along with any sub-surface
// views created under it.
func (s *Surface) RemoveView(v *View) {
	s.views = xslices.Filter(s.views, func(view *View) bool { return view != v })
	for _, sibling := range s.siblings {
		if sibling == s {
			continue
		}
		for _, child := range sibling.Views() {
			if child.parent == v {
				sibling.RemoveView(child)
			}
		}
	}
}

// Views returns the views of the surface. The returned slice must not
// be modified.
func (s *Surface) Views() []*View {
	return s.views
}

// Siblings returns the surface itself and its sub-surfaces in stacking
// order. The returned slice must not be modified.
func (s *Surface) Siblings() []*Surface {
	return s.siblings
}

// Parent returns the surface that s is a sub-surface of, or nil.
func (s *Surface) Parent() *Surface {
	return s.parent
}
