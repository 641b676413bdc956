// Package shell implements the wl_shell window role: interactive move
// and resize grabs, liveness checks, and the global that hands the role
// out to surfaces.
package shell

import (
	"image"
	"strings"
	"time"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/pointer"
)

// ErrorRole is the wl_shell error code for a surface that already has
// another role.
const ErrorRole uint32 = 0

// Edge is a set of surface edges that a resize is anchored to. The
// values match wl_shell_surface.resize.
type Edge uint32

const (
	EdgeNone        Edge = 0
	EdgeTop         Edge = 1
	EdgeBottom      Edge = 2
	EdgeLeft        Edge = 4
	EdgeTopLeft     Edge = 5
	EdgeBottomLeft  Edge = 6
	EdgeRight       Edge = 8
	EdgeTopRight    Edge = 9
	EdgeBottomRight Edge = 10
)

// Has reports whether all of the edges in e2 are in e.
func (e Edge) Has(e2 Edge) bool {
	return e&e2 == e2
}

func (e Edge) String() string {
	if e == EdgeNone {
		return "none"
	}

	var parts []string
	for _, edge := range []Edge{EdgeTop, EdgeBottom, EdgeLeft, EdgeRight} {
		if !e.Has(edge) {
			continue
		}
		switch edge {
		case EdgeTop:
			parts = append(parts, "top")
		case EdgeBottom:
			parts = append(parts, "bottom")
		case EdgeLeft:
			parts = append(parts, "left")
		case EdgeRight:
			parts = append(parts, "right")
		}
	}
	return strings.Join(parts, "|")
}

// Resource sends shell surface events to the client.
type Resource interface {
	Ping(serial uint32)
	Configure(edges Edge, width, height int32)
}

// Pointer is the part of a pointer device that grabs need.
type Pointer interface {
	Position() image.Point
	GrabMotion(s *compositor.Surface, serial uint32, cb func(pointer.Motion)) error
}

// Timer is a one-shot timer that calls its handler on the event loop.
// Updating it cancels any pending expiration and, if timeout is
// positive, schedules a new one.
type Timer interface {
	Update(timeout time.Duration) error
	Remove()
}

// TimerFunc creates a disarmed timer that calls handler when it fires.
type TimerFunc func(handler func()) Timer

// Requester is the client that made a request. Protocol errors are
// posted to it.
type Requester interface {
	PostError(code uint32, msg string)
}
