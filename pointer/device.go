package pointer

import (
	"fmt"
	"image"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/internal/set"
	"github.com/rs/zerolog"
)

type grab struct {
	surface *compositor.Surface
	serial  uint32
	motion  func(Motion)
}

// Device is a single pointer. It tracks the pointer's position, the
// surface under it, held buttons, motion grabs, and the cursor surface.
type Device struct {
	id       uint32
	scene    *compositor.Scene
	serials  func() uint32
	log      zerolog.Logger
	listener Listener

	position    image.Point
	focus       *compositor.View
	pressed     set.Set[Button]
	pressSerial uint32
	grab        *grab

	cursor  *compositor.View
	hotspot image.Point
}

// NewDevice creates a pointer that picks focus from scene. The serials
// function is called whenever an event needs a fresh serial.
func NewDevice(id uint32, scene *compositor.Scene, serials func() uint32, log zerolog.Logger) *Device {
	return &Device{
		id:      id,
		scene:   scene,
		serials: serials,
		log:     log,
		pressed: set.New[Button](),
	}
}

func (d *Device) ID() uint32 {
	return d.id
}

// SetListener sets the listener that pointer events are delivered to.
func (d *Device) SetListener(l Listener) {
	d.listener = l
}

// Position returns the pointer's position in global coordinates.
func (d *Device) Position() image.Point {
	return d.position
}

// Focus returns the view under the pointer, or nil.
func (d *Device) Focus() *compositor.View {
	return d.focus
}

// Motion moves the pointer to p. If a grab is active, the motion is
// delivered to the grab only. Otherwise, focus is picked again and the
// focused surface is notified.
func (d *Device) Motion(time uint32, p image.Point) {
	d.position = p
	d.moveCursor()

	if d.grab != nil {
		d.grab.motion(Motion{Time: time, Position: p})
		return
	}

	d.Refocus()
	if (d.focus != nil) && (d.listener != nil) {
		d.listener.Motion(d.focus.Surface(), time, d.focus.Local(p))
	}
}

// Refocus picks the view under the pointer again without moving it.
// This is necessary when the scene changes under a stationary pointer.
func (d *Device) Refocus() {
	if d.grab != nil {
		return
	}

	v, _ := d.scene.Pick(d.position)
	if v == d.focus {
		return
	}

	old := d.focus
	d.focus = v
	if d.listener == nil {
		return
	}

	if (old != nil) && !old.Surface().Destroyed() {
		d.listener.Leave(old.Surface(), d.serials())
	}
	if v != nil {
		d.listener.Enter(v.Surface(), v.Local(d.position), d.serials())
	}
}

// Button records a button press or release. Releasing the last held
// button ends any active grab.
func (d *Device) Button(serial, time uint32, b Button, pressed bool) {
	if pressed {
		d.pressed.Add(b)
		d.pressSerial = serial
	} else {
		d.pressed.Delete(b)
	}
	d.log.Trace().Stringer("button", b).Bool("pressed", pressed).Uint32("serial", serial).Msg("button")

	if (d.focus != nil) && (d.listener != nil) {
		d.listener.Button(d.focus.Surface(), serial, time, b, pressed)
	}

	if !pressed && (d.pressed.Len() == 0) && (d.grab != nil) {
		d.Ungrab()
	}
}

// Pressed reports whether b is currently held down.
func (d *Device) Pressed(b Button) bool {
	return d.pressed.Has(b)
}

// GrabMotion routes all further motion to cb until the grab ends. The
// grab is only granted if serial is that of the currently held button
// press, the press happened on s, and no other grab is active.
// Otherwise, ErrInvalidGrabTarget is returned and nothing changes.
func (d *Device) GrabMotion(s *compositor.Surface, serial uint32, cb func(Motion)) error {
	switch {
	case d.grab != nil:
		return fmt.Errorf("%w: pointer already grabbed by %v", ErrInvalidGrabTarget, d.grab.surface)
	case d.pressed.Len() == 0:
		return fmt.Errorf("%w: no button held", ErrInvalidGrabTarget)
	case d.pressSerial != serial:
		return fmt.Errorf("%w: serial %v does not match press %v", ErrInvalidGrabTarget, serial, d.pressSerial)
	case (d.focus == nil) || (d.focus.Surface() != s):
		return fmt.Errorf("%w: %v does not have pointer focus", ErrInvalidGrabTarget, s)
	}

	d.grab = &grab{
		surface: s,
		serial:  serial,
		motion:  cb,
	}
	d.log.Debug().Stringer("surface", s).Uint32("serial", serial).Msg("pointer grabbed")
	return nil
}

// Grabbed returns the surface that currently holds a grab, if any.
func (d *Device) Grabbed() (*compositor.Surface, bool) {
	if d.grab == nil {
		return nil, false
	}
	return d.grab.surface, true
}

// Ungrab ends the active grab, if there is one.
func (d *Device) Ungrab() {
	if d.grab == nil {
		return
	}

	s := d.grab.surface
	d.grab = nil
	d.log.Debug().Stringer("surface", s).Msg("pointer released")

	if d.listener != nil {
		d.listener.Ungrab(s)
	}
	d.Refocus()
}

// SetCursor gives s the cursor role for this pointer and shows it at
// the pointer's position, offset by hotspot. A surface that already has
// a different role is rejected.
func (d *Device) SetCursor(s *compositor.Surface, hotspot image.Point) error {
	err := s.SetRole(compositor.Role{Kind: compositor.RoleCursor, ID: d.id})
	if err != nil {
		return err
	}

	if (d.cursor != nil) && (d.cursor.Surface() != s) {
		d.RemoveCursor()
	}
	if d.cursor == nil {
		d.cursor = s.NewView(nil)
		d.scene.Cursor().Add(d.cursor)
		s.OnDestroy(func() {
			if (d.cursor != nil) && (d.cursor.Surface() == s) {
				d.RemoveCursor()
			}
		})
	}

	d.hotspot = hotspot
	d.moveCursor()
	return nil
}

// Cursor returns the current cursor surface, or nil.
func (d *Device) Cursor() *compositor.Surface {
	if d.cursor == nil {
		return nil
	}
	return d.cursor.Surface()
}

// Hotspot returns the offset of the pointer position into the cursor
// surface.
func (d *Device) Hotspot() image.Point {
	return d.hotspot
}

// RemoveCursor hides the cursor surface. The surface keeps its role.
func (d *Device) RemoveCursor() {
	if d.cursor == nil {
		return
	}

	d.scene.RemoveView(d.cursor)
	d.cursor.Surface().RemoveView(d.cursor)
	d.cursor = nil
}

func (d *Device) moveCursor() {
	if d.cursor == nil {
		return
	}
	d.cursor.SetOffset(d.position.Sub(d.hotspot))
}
