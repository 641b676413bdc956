package compositor

import (
	"fmt"
	"image"

	"deedles.dev/wlcomp/internal/xslices"
	"golang.org/x/exp/slices"
)

// Subsurface is the role state of a surface that is stacked and
// positioned relative to a parent surface.
type Subsurface struct {
	surface *Surface
	parent  *Surface

	pending    image.Point
	hasPending bool
}

// NewSubsurface makes s a sub-surface of parent. The new sub-surface is
// placed directly above the parent's existing siblings, and a view of it
// is created under every view of the parent. The parent may not be s
// or one of its descendants.
func NewSubsurface(s, parent *Surface) (*Subsurface, error) {
	if s.parent != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSibling, s)
	}
	for p := parent; p != nil; p = p.parent {
		if p == s {
			return nil, fmt.Errorf("%w: %v is an ancestor of %v", ErrBadSibling, s, parent)
		}
	}
	err := s.SetRole(Role{Kind: RoleSubsurface, ID: parent.ID()})
	if err != nil {
		return nil, err
	}

	sub := Subsurface{
		surface: s,
		parent:  parent,
	}
	s.sub = &sub
	s.parent = parent
	parent.siblings = append(parent.siblings, s)

	for _, v := range parent.Views() {
		s.NewView(v)
	}

	return &sub, nil
}

func (sub *Subsurface) Surface() *Surface {
	return sub.surface
}

func (sub *Subsurface) Parent() *Surface {
	return sub.parent
}

// SetPosition sets the position of the sub-surface relative to its
// parent. It takes effect when the parent is next committed.
func (sub *Subsurface) SetPosition(p image.Point) {
	sub.pending = p
	sub.hasPending = true
}

func (sub *Subsurface) apply() {
	if !sub.hasPending {
		return
	}
	sub.surface.position = sub.pending
	sub.hasPending = false
}

// PlaceAbove restacks the sub-surface directly above sibling, which
// must be the parent or another sub-surface of it.
func (sub *Subsurface) PlaceAbove(sibling *Surface) error {
	return sub.place(sibling, 1)
}

// PlaceBelow restacks the sub-surface directly below sibling.
func (sub *Subsurface) PlaceBelow(sibling *Surface) error {
	return sub.place(sibling, 0)
}

func (sub *Subsurface) place(sibling *Surface, offset int) error {
	if (sub.parent == nil) || (sibling == sub.surface) {
		return fmt.Errorf("%w: %v", ErrBadSibling, sibling)
	}

	siblings := sub.parent.siblings
	if !slices.Contains(siblings, sibling) {
		return fmt.Errorf("%w: %v", ErrBadSibling, sibling)
	}

	siblings = slices.Delete(siblings, slices.Index(siblings, sub.surface), slices.Index(siblings, sub.surface)+1)
	i := slices.Index(siblings, sibling) + offset
	sub.parent.siblings = slices.Insert(siblings, i, sub.surface)
	return nil
}

// Destroy detaches the sub-surface from its parent. The surface keeps
// its role, but is no longer part of the parent's tree.
func (sub *Subsurface) Destroy() {
	if sub.parent == nil {
		return
	}
	sub.parent.siblings = xslices.Filter(sub.parent.siblings, func(s *Surface) bool { return s != sub.surface })
	sub.unlink()
}

// unlink drops the references between the sub-surface and its parent.
func (sub *Subsurface) unlink() {
	parent := sub.parent
	if parent == nil {
		return
	}

	for _, pv := range parent.Views() {
		for _, v := range sub.surface.Views() {
			if v.parent == pv {
				sub.surface.RemoveView(v)
			}
		}
	}
	sub.surface.parent = nil
	sub.parent = nil
}
