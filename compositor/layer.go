package compositor

import "golang.org/x/exp/slices"

// SingleViewLayer is a z-order band that holds at most one view.
type SingleViewLayer struct {
	view *View
}

// View returns the view in the layer, or nil.
func (l *SingleViewLayer) View() *View {
	return l.view
}

// SetView replaces the view in the layer. A nil view empties it.
func (l *SingleViewLayer) SetView(v *View) {
	l.view = v
}

// RemoveIfEqual empties the layer if it holds v.
func (l *SingleViewLayer) RemoveIfEqual(v *View) bool {
	if (l.view == nil) || (l.view != v) {
		return false
	}
	l.view = nil
	return true
}

// MultiViewLayer is a z-order band that holds an ordered stack of
// views. The last view is on top.
type MultiViewLayer struct {
	views []*View
}

// Views returns the views in the layer from bottom to top. The returned
// slice must not be modified.
func (l *MultiViewLayer) Views() []*View {
	return l.views
}

// Add puts v on top of the layer. If v is already in the layer, it is
// not added a second time.
func (l *MultiViewLayer) Add(v *View) {
	if l.Contains(v) {
		return
	}
	l.views = append(l.views, v)
}

func (l *MultiViewLayer) Contains(v *View) bool {
	return slices.Contains(l.views, v)
}

// Remove removes v from the layer, reporting whether it was present.
func (l *MultiViewLayer) Remove(v *View) bool {
	i := slices.Index(l.views, v)
	if i < 0 {
		return false
	}
	l.views = slices.Delete(l.views, i, i+1)
	return true
}

// Raise moves v to the top of the layer. It does nothing if v is not in
// the layer.
func (l *MultiViewLayer) Raise(v *View) {
	if l.Remove(v) {
		l.views = append(l.views, v)
	}
}
