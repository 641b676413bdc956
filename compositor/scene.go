package compositor

import (
	"image"

	"deedles.dev/wlcomp/region"
)

// Scene stacks the compositor's layers into a single order that input
// and rendering are resolved against. From bottom to top the normal
// layers are background, under, application, and over. An occupied
// fullscreen layer replaces all of them and an occupied lock layer
// replaces everything else. Cursors are drawn above all of that but are
// never picked.
type Scene struct {
	background  SingleViewLayer
	under       MultiViewLayer
	application MultiViewLayer
	over        MultiViewLayer
	fullscreen  SingleViewLayer
	lock        SingleViewLayer
	cursor      MultiViewLayer

	infinite *region.Region
}

func NewScene() *Scene {
	return &Scene{
		infinite: region.Infinite(),
	}
}

func (s *Scene) Background() *SingleViewLayer { return &s.background }
func (s *Scene) Under() *MultiViewLayer       { return &s.under }
func (s *Scene) Application() *MultiViewLayer { return &s.application }
func (s *Scene) Over() *MultiViewLayer        { return &s.over }
func (s *Scene) Fullscreen() *SingleViewLayer { return &s.fullscreen }
func (s *Scene) Lock() *SingleViewLayer       { return &s.lock }
func (s *Scene) Cursor() *MultiViewLayer      { return &s.cursor }

// Pick returns the topmost view whose input region contains the global
// point p.
func (s *Scene) Pick(p image.Point) (*View, bool) {
	views := s.pickable()
	for i := len(views) - 1; i >= 0; i-- {
		v := views[i]
		if !v.Drawable() || !v.Enabled() {
			continue
		}

		surface := v.Surface()
		input := surface.InputRegion()
		if input == nil {
			input = s.infinite
		}
		if input.ContainsIn(surface.Size(), v.Local(p)) {
			return v, true
		}
	}

	return nil, false
}

// Drawable returns every view that should be drawn, from bottom to top.
// Views are not filtered by their flags.
func (s *Scene) Drawable() []*View {
	views := s.pickable()
	for _, v := range s.cursor.Views() {
		views = append(views, s.WithSiblingViews(v)...)
	}
	return views
}

func (s *Scene) pickable() []*View {
	var top []*View
	switch {
	case s.lock.View() != nil:
		top = []*View{s.lock.View()}
	case s.fullscreen.View() != nil:
		top = []*View{s.fullscreen.View()}
	default:
		if v := s.background.View(); v != nil {
			top = append(top, v)
		}
		top = append(top, s.under.Views()...)
		top = append(top, s.application.Views()...)
		top = append(top, s.over.Views()...)
	}

	views := make([]*View, 0, len(top))
	for _, v := range top {
		views = append(views, s.WithSiblingViews(v)...)
	}
	return views
}

// WithSiblingViews expands v into itself followed by the views of its
// sub-surfaces, recursively, in stacking order.
func (s *Scene) WithSiblingViews(v *View) []*View {
	var views []*View
	parent := v.Surface()
	for _, sibling := range parent.Siblings() {
		if (sibling != parent) && sibling.Role().IsNone() {
			continue
		}

		for _, sv := range sibling.Views() {
			switch {
			case sv.Parent() == v:
				views = append(views, s.WithSiblingViews(sv)...)
			case sv == v:
				views = append([]*View{sv}, views...)
			}
		}
	}
	return views
}

// RemoveView removes v from whichever layer holds it.
func (s *Scene) RemoveView(v *View) {
	s.background.RemoveIfEqual(v)
	s.under.Remove(v)
	s.application.Remove(v)
	s.over.Remove(v)
	s.fullscreen.RemoveIfEqual(v)
	s.lock.RemoveIfEqual(v)
	s.cursor.Remove(v)
}

// RemoveAllViews removes every view of surface from the scene.
func (s *Scene) RemoveAllViews(surface *Surface) {
	for _, v := range surface.Views() {
		s.RemoveView(v)
	}
}
