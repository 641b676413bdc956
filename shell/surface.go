package shell

import (
	"fmt"
	"image"
	"time"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/internal/metrics"
	"deedles.dev/wlcomp/pointer"
	"github.com/rs/zerolog"
)

// GrabKind is the kind of interactive operation a shell surface is in.
type GrabKind int

const (
	GrabNone GrabKind = iota
	GrabMove
	GrabResize
)

func (k GrabKind) String() string {
	switch k {
	case GrabNone:
		return "none"
	case GrabMove:
		return "move"
	case GrabResize:
		return "resize"
	default:
		return fmt.Sprintf("GrabKind(%d)", int(k))
	}
}

// Grab describes the active interactive operation of a shell surface.
type Grab struct {
	Kind   GrabKind
	Edges  Edge
	Serial uint32
}

// State is the window state that the client last requested.
type State int

const (
	StateNone State = iota
	StateToplevel
	StateTransient
	StateFullscreen
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateToplevel:
		return "toplevel"
	case StateTransient:
		return "transient"
	case StateFullscreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Surface is the shell role state of a single surface.
type Surface struct {
	id       uint32
	surface  *compositor.Surface
	resource Resource
	log      zerolog.Logger
	metrics  *metrics.Metrics

	timer      Timer
	timeout    time.Duration
	pingSerial uint32
	acked      bool
	active     bool

	grab Grab

	title           string
	class           string
	state           State
	transientParent *compositor.Surface
	transientOffset image.Point

	destroyed bool
	onDestroy []func()
}

func newSurface(id uint32, s *compositor.Surface, res Resource, opts Options) *Surface {
	ss := Surface{
		id:       id,
		surface:  s,
		resource: res,
		log:      opts.Log.With().Uint32("shell_surface", id).Logger(),
		metrics:  opts.Metrics,
		timeout:  opts.PingTimeout,
		active:   true,
	}
	ss.timer = opts.Timers(ss.timedOut)
	return &ss
}

func (s *Surface) ID() uint32 {
	return s.id
}

// Surface returns the surface that has this role.
func (s *Surface) Surface() *compositor.Surface {
	return s.surface
}

// Resource returns the resource that events are sent through.
func (s *Surface) Resource() Resource {
	return s.resource
}

// Move starts an interactive move. Until the grab ends, the surface
// follows the pointer, keeping the offset between them that existed
// when the move started.
func (s *Surface) Move(p Pointer, serial uint32) error {
	originPointer := p.Position()
	originSurface := s.surface.Position()

	err := p.GrabMotion(s.surface, serial, func(m pointer.Motion) {
		if s.destroyed {
			return
		}
		delta := m.Position.Sub(originPointer)
		s.surface.SetPosition(originSurface.Add(delta))
	})
	if err != nil {
		return err
	}

	s.grab = Grab{Kind: GrabMove, Serial: serial}
	return nil
}

// Resize starts an interactive resize anchored to edges. Each motion
// sample is converted into a new size which is sent to the client as a
// configure event. The surface is not moved, even when resizing from
// the top or left.
func (s *Surface) Resize(res Resource, p Pointer, serial uint32, edges Edge) error {
	origin := s.surface.RelativeCoordinate(p.Position())
	size := s.surface.Size()

	err := p.GrabMotion(s.surface, serial, func(m pointer.Motion) {
		if s.destroyed {
			return
		}

		delta := s.surface.RelativeCoordinate(m.Position).Sub(origin)
		w, h := resize(size, delta, edges)
		res.Configure(edges, int32(w), int32(h))
	})
	if err != nil {
		return err
	}

	s.grab = Grab{Kind: GrabResize, Edges: edges, Serial: serial}
	return nil
}

func resize(size image.Rectangle, delta image.Point, edges Edge) (w, h int) {
	w, h = size.Dx(), size.Dy()

	switch {
	case edges.Has(EdgeRight):
		w += delta.X
	case edges.Has(EdgeLeft):
		w -= delta.X
	}

	switch {
	case edges.Has(EdgeBottom):
		h += delta.Y
	case edges.Has(EdgeTop):
		h -= delta.Y
	}

	return w, h
}

// Grab returns the active grab. Its Kind is GrabNone if there is none.
func (s *Surface) Grab() Grab {
	return s.grab
}

// Ungrab returns the surface to the idle state. It is called when the
// pointer reports that the grab has ended.
func (s *Surface) Ungrab() {
	s.grab = Grab{}
}

// CheckLiveness pings the client and arms the liveness timer. If the
// timer fires before a matching pong arrives, the surface becomes
// inactive. Calling it again cancels the previous timeout.
func (s *Surface) CheckLiveness(res Resource, serial uint32) error {
	if s.destroyed {
		return nil
	}

	s.pingSerial = serial
	s.acked = false
	res.Ping(serial)
	s.metrics.Ping()

	err := s.timer.Update(s.timeout)
	if err != nil {
		s.log.Error().Err(err).Uint32("serial", serial).Msg("failed to arm liveness timer")
		return fmt.Errorf("arm liveness timer: %w", err)
	}
	return nil
}

// Pong acknowledges the ping with the given serial. Acknowledgements of
// old pings are ignored.
func (s *Surface) Pong(serial uint32) {
	if serial != s.pingSerial {
		s.log.Debug().Uint32("serial", serial).Uint32("expected", s.pingSerial).Msg("stale pong")
		return
	}

	s.acked = true
	if !s.active {
		s.log.Info().Msg("client responsive again")
	}
	s.active = true
}

func (s *Surface) timedOut() {
	if s.destroyed || s.acked {
		return
	}

	if s.active {
		s.log.Warn().Uint32("serial", s.pingSerial).Msg("client did not answer ping")
		s.metrics.LivenessTimeout()
	}
	s.active = false
}

// Active reports whether the client answered the last ping in time.
func (s *Surface) Active() bool {
	return s.active
}

func (s *Surface) SetTitle(title string) {
	s.title = title
}

func (s *Surface) Title() string {
	return s.title
}

func (s *Surface) SetClass(class string) {
	s.class = class
}

func (s *Surface) Class() string {
	return s.class
}

func (s *Surface) SetToplevel() {
	s.state = StateToplevel
	s.transientParent = nil
}

// SetTransient makes the surface a child window of parent, placed at
// offset relative to it.
func (s *Surface) SetTransient(parent *compositor.Surface, offset image.Point) {
	s.state = StateTransient
	s.transientParent = parent
	s.transientOffset = offset
	s.surface.SetPosition(parent.Position().Add(offset))
}

// Transient returns the parent and offset set by SetTransient.
func (s *Surface) Transient() (*compositor.Surface, image.Point) {
	return s.transientParent, s.transientOffset
}

func (s *Surface) SetFullscreen() {
	s.state = StateFullscreen
	s.transientParent = nil
}

func (s *Surface) State() State {
	return s.state
}

// OnDestroy registers f to be called when the shell surface is
// destroyed.
func (s *Surface) OnDestroy(f func()) {
	s.onDestroy = append(s.onDestroy, f)
}

// Destroy tears down the role state. It is safe to call more than once.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true

	s.timer.Remove()
	s.grab = Grab{}

	hooks := s.onDestroy
	s.onDestroy = nil
	for _, f := range hooks {
		f()
	}
}

func (s *Surface) Destroyed() bool {
	return s.destroyed
}
