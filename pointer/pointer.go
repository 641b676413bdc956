// Package pointer implements the compositor's pointer: focus tracking
// against a scene, button state, motion grabs for interactive moves and
// resizes, and the cursor surface role.
package pointer

import (
	"errors"
	"fmt"
	"image"

	"deedles.dev/wlcomp/compositor"
)

// ErrInvalidGrabTarget is returned when a grab is requested that does
// not correspond to the button press that is currently held down on
// the focused surface.
var ErrInvalidGrabTarget = errors.New("invalid grab target")

// Button is a Linux input event code for a pointer button.
type Button uint32

// From linux/input-event-codes.h.
const (
	ButtonLeft Button = 0x110 + iota
	ButtonRight
	ButtonMiddle
	ButtonSide
	ButtonExtra
	ButtonForward
	ButtonBack
	ButtonTask
)

var buttonNames = [...]string{"left", "right", "middle", "side", "extra", "forward", "back", "task"}

func (b Button) String() string {
	if (b >= ButtonLeft) && (b <= ButtonTask) {
		return buttonNames[b-ButtonLeft]
	}
	return fmt.Sprintf("Button(%#x)", uint32(b))
}

// Motion is a pointer motion sample in global coordinates.
type Motion struct {
	Time     uint32
	Position image.Point
}

// Listener is notified of pointer events destined for a client. It is
// how the device hands events to whatever sends them over the wire.
type Listener interface {
	Enter(s *compositor.Surface, local image.Point, serial uint32)
	Leave(s *compositor.Surface, serial uint32)
	Motion(s *compositor.Surface, time uint32, local image.Point)
	Button(s *compositor.Surface, serial, time uint32, b Button, pressed bool)

	// Ungrab is called when a motion grab on s ends.
	Ungrab(s *compositor.Surface)
}
