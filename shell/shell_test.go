package shell

import (
	"errors"
	"image"
	"testing"
	"time"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/pointer"
	"github.com/rs/zerolog"
)

type nopBuffer image.Rectangle

func (b nopBuffer) Bounds() image.Rectangle { return image.Rectangle(b) }
func (b nopBuffer) Release()                {}

type configure struct {
	edges Edge
	w, h  int32
}

type fakeResource struct {
	pings      []uint32
	configures []configure
}

func (r *fakeResource) Ping(serial uint32) {
	r.pings = append(r.pings, serial)
}

func (r *fakeResource) Configure(edges Edge, w, h int32) {
	r.configures = append(r.configures, configure{edges, w, h})
}

type fakePointer struct {
	pos    image.Point
	err    error
	grabs  int
	serial uint32
	motion func(pointer.Motion)
}

func (p *fakePointer) Position() image.Point {
	return p.pos
}

func (p *fakePointer) GrabMotion(s *compositor.Surface, serial uint32, cb func(pointer.Motion)) error {
	if p.err != nil {
		return p.err
	}
	p.grabs++
	p.serial = serial
	p.motion = cb
	return nil
}

func (p *fakePointer) move(to image.Point) {
	p.pos = to
	p.motion(pointer.Motion{Time: 1, Position: to})
}

type fakeTimer struct {
	handler func()
	updates []time.Duration
	removed bool
	err     error
}

func (t *fakeTimer) Update(timeout time.Duration) error {
	if t.err != nil {
		return t.err
	}
	t.updates = append(t.updates, timeout)
	return nil
}

func (t *fakeTimer) Remove() {
	t.removed = true
}

func (t *fakeTimer) fire() {
	t.handler()
}

type fakeRequester struct {
	codes []uint32
}

func (r *fakeRequester) PostError(code uint32, msg string) {
	r.codes = append(r.codes, code)
}

type fixture struct {
	global *Global
	timers []*fakeTimer
	serial uint32
}

func newFixture() *fixture {
	var f fixture
	f.global = NewGlobal(Options{
		Timers: func(h func()) Timer {
			t := &fakeTimer{handler: h}
			f.timers = append(f.timers, t)
			return t
		},
		Serials:     func() uint32 { f.serial++; return f.serial },
		PingTimeout: 5 * time.Second,
		Log:         zerolog.Nop(),
	})
	return &f
}

func window(r image.Rectangle) *compositor.Surface {
	s := compositor.NewSurface(1, nil)
	s.AttachBuffer(nopBuffer(image.Rect(0, 0, r.Dx(), r.Dy())), r.Min.X, r.Min.Y)
	s.Commit()
	return s
}

func (f *fixture) shell(t *testing.T, s *compositor.Surface) (*Surface, *fakeResource) {
	t.Helper()

	var res fakeResource
	ss, err := f.global.GetShellSurface(&fakeRequester{}, 7, s, &res)
	if err != nil {
		t.Fatal(err)
	}
	return ss, &res
}

func TestMove(t *testing.T) {
	f := newFixture()
	s := window(image.Rect(75, 75, 175, 175))
	ss, _ := f.shell(t, s)

	p := fakePointer{pos: image.Pt(100, 100)}
	err := ss.Move(&p, 12345)
	if err != nil {
		t.Fatal(err)
	}
	if (p.grabs != 1) || (p.serial != 12345) {
		t.Fatalf("unexpected grab: %+v", p)
	}
	if g := ss.Grab(); g != (Grab{Kind: GrabMove, Serial: 12345}) {
		t.Fatalf("unexpected grab state: %+v", g)
	}

	p.move(image.Pt(110, 110))
	if pos := s.Position(); pos != image.Pt(85, 85) {
		t.Fatalf("got %v, expected (85,85)", pos)
	}

	p.move(image.Pt(0, -50))
	if pos := s.Position(); pos != image.Pt(-25, -75) {
		t.Fatalf("got %v, expected (-25,-75)", pos)
	}

	ss.Ungrab()
	if g := ss.Grab(); g.Kind != GrabNone {
		t.Fatalf("grab survived ungrab: %+v", g)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		name          string
		edges         Edge
		start, motion image.Point
		w, h          int32
	}{
		{name: "Right", edges: EdgeRight, start: image.Pt(80, 80), motion: image.Pt(180, 180), w: 200, h: 100},
		{name: "BottomRight", edges: EdgeBottomRight, start: image.Pt(80, 80), motion: image.Pt(180, 180), w: 200, h: 200},
		{name: "Bottom", edges: EdgeBottom, start: image.Pt(80, 80), motion: image.Pt(180, 180), w: 100, h: 200},
		{name: "Top", edges: EdgeTop, start: image.Pt(80, 20), motion: image.Pt(180, -80), w: 100, h: 200},
		{name: "TopRight", edges: EdgeTopRight, start: image.Pt(80, 20), motion: image.Pt(180, -80), w: 200, h: 200},
		{name: "TopLeft", edges: EdgeTopLeft, start: image.Pt(20, 20), motion: image.Pt(-80, -80), w: 200, h: 200},
		{name: "Left", edges: EdgeLeft, start: image.Pt(20, 80), motion: image.Pt(-80, 180), w: 200, h: 100},
		{name: "BottomLeft", edges: EdgeBottomLeft, start: image.Pt(20, 80), motion: image.Pt(-80, 180), w: 200, h: 200},
		{name: "Shrink", edges: EdgeBottomRight, start: image.Pt(90, 90), motion: image.Pt(40, 60), w: 50, h: 70},
	}

	// The surface is offset so that the conversion to surface-local
	// coordinates is exercised.
	origin := image.Pt(10, 10)

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newFixture()
			s := window(image.Rectangle{Min: origin, Max: origin.Add(image.Pt(100, 100))})
			ss, _ := f.shell(t, s)

			var res fakeResource
			p := fakePointer{pos: test.start.Add(origin)}
			err := ss.Resize(&res, &p, 12345, test.edges)
			if err != nil {
				t.Fatal(err)
			}
			if g := ss.Grab(); g != (Grab{Kind: GrabResize, Edges: test.edges, Serial: 12345}) {
				t.Fatalf("unexpected grab state: %+v", g)
			}

			p.move(test.motion.Add(origin))
			expected := configure{test.edges, test.w, test.h}
			if (len(res.configures) != 1) || (res.configures[0] != expected) {
				t.Fatalf("got %v, expected [%v]", res.configures, expected)
			}
			if pos := s.Position(); pos != origin {
				t.Fatalf("resize moved the surface to %v", pos)
			}
		})
	}
}

func TestResizeConfiguresEverySample(t *testing.T) {
	f := newFixture()
	ss, _ := f.shell(t, window(image.Rect(0, 0, 100, 100)))

	var res fakeResource
	p := fakePointer{pos: image.Pt(50, 50)}
	ss.Resize(&res, &p, 1, EdgeRight)
	for i := range 5 {
		p.move(image.Pt(50+i, 50))
	}
	if len(res.configures) != 5 {
		t.Fatalf("expected 5 configures, got %v", res.configures)
	}
}

func TestRejectedGrab(t *testing.T) {
	f := newFixture()
	s := window(image.Rect(0, 0, 100, 100))
	ss, _ := f.shell(t, s)

	p := fakePointer{pos: image.Pt(50, 50)}
	ss.Move(&p, 1)

	p.err = pointer.ErrInvalidGrabTarget
	err := ss.Resize(&fakeResource{}, &p, 2, EdgeRight)
	if !errors.Is(err, pointer.ErrInvalidGrabTarget) {
		t.Fatalf("expected ErrInvalidGrabTarget, got %v", err)
	}
	if g := ss.Grab(); g != (Grab{Kind: GrabMove, Serial: 1}) {
		t.Fatalf("rejected grab changed state to %+v", g)
	}
}

func TestLiveness(t *testing.T) {
	f := newFixture()
	ss, res := f.shell(t, window(image.Rect(0, 0, 10, 10)))
	if len(f.timers) != 1 {
		t.Fatalf("expected one timer, got %v", len(f.timers))
	}
	timer := f.timers[0]

	if (len(res.pings) != 1) || (len(timer.updates) != 1) || (timer.updates[0] != 5*time.Second) {
		t.Fatalf("initial check not performed: pings %v, updates %v", res.pings, timer.updates)
	}
	if !ss.Active() {
		t.Fatal("new surface is not active")
	}

	ss.Pong(res.pings[0])
	timer.fire()
	if !ss.Active() {
		t.Fatal("surface inactive after pong")
	}

	err := ss.CheckLiveness(res, 100)
	if err != nil {
		t.Fatal(err)
	}
	if (len(res.pings) != 2) || (res.pings[1] != 100) || (len(timer.updates) != 2) {
		t.Fatalf("check not performed: pings %v, updates %v", res.pings, timer.updates)
	}

	ss.Pong(res.pings[0])
	timer.fire()
	if ss.Active() {
		t.Fatal("surface active after timeout with only a stale pong")
	}

	ss.Pong(100)
	if !ss.Active() {
		t.Fatal("late pong did not restore the surface")
	}
	if len(f.timers) != 1 {
		t.Fatalf("expected one timer, got %v", len(f.timers))
	}
}

func TestLivenessTimerFailure(t *testing.T) {
	f := newFixture()
	ss, res := f.shell(t, window(image.Rect(0, 0, 10, 10)))

	e := errors.New("timer broken")
	f.timers[0].err = e
	err := ss.CheckLiveness(res, 50)
	if !errors.Is(err, e) {
		t.Fatalf("expected %v, got %v", e, err)
	}
	if len(f.timers) != 1 {
		t.Fatalf("failure created another timer: %v", len(f.timers))
	}
}

func TestGlobalCheckLiveness(t *testing.T) {
	f := newFixture()
	_, res1 := f.shell(t, window(image.Rect(0, 0, 10, 10)))
	_, res2 := f.shell(t, window(image.Rect(0, 0, 10, 10)))

	err := f.global.CheckLiveness()
	if err != nil {
		t.Fatal(err)
	}
	if (len(res1.pings) != 2) || (len(res2.pings) != 2) {
		t.Fatalf("unexpected pings: %v, %v", res1.pings, res2.pings)
	}
	if res1.pings[1] == res2.pings[1] {
		t.Fatalf("surfaces share ping serial %v", res1.pings[1])
	}
}

func TestGlobalCheckLivenessTimerFailure(t *testing.T) {
	f := newFixture()
	_, res1 := f.shell(t, window(image.Rect(0, 0, 10, 10)))
	_, res2 := f.shell(t, window(image.Rect(0, 0, 10, 10)))

	e := errors.New("timer broken")
	for _, timer := range f.timers {
		timer.err = e
	}

	err := f.global.CheckLiveness()
	if !errors.Is(err, e) {
		t.Fatalf("expected %v, got %v", e, err)
	}
	if (len(res1.pings) != 2) || (len(res2.pings) != 2) {
		t.Fatalf("not every surface was pinged: %v, %v", res1.pings, res2.pings)
	}
}

func TestGetShellSurfaceRoleConflict(t *testing.T) {
	f := newFixture()
	s := window(image.Rect(0, 0, 10, 10))
	s.SetRole(compositor.Role{Kind: compositor.RoleCursor, ID: 1})

	var req fakeRequester
	var res fakeResource
	ss, err := f.global.GetShellSurface(&req, 3, s, &res)
	if !errors.Is(err, compositor.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}
	if ss != nil {
		t.Fatalf("got shell surface %v", ss)
	}
	if (len(req.codes) != 1) || (req.codes[0] != ErrorRole) {
		t.Fatalf("unexpected protocol errors: %v", req.codes)
	}
	if (len(f.timers) != 0) || (len(res.pings) != 0) {
		t.Fatal("rejected shell surface was set up anyway")
	}
	if s.Role().Kind != compositor.RoleCursor {
		t.Fatalf("role changed to %v", s.Role())
	}
}

func TestDestroyWithSurface(t *testing.T) {
	f := newFixture()
	s := window(image.Rect(0, 0, 10, 10))
	ss, res := f.shell(t, s)

	s.Destroy()
	if !ss.Destroyed() {
		t.Fatal("shell surface survived its surface")
	}
	if !f.timers[0].removed {
		t.Fatal("liveness timer not removed")
	}
	if len(f.global.Surfaces()) != 0 {
		t.Fatalf("global still tracks %v", f.global.Surfaces())
	}

	err := f.global.CheckLiveness()
	if err != nil {
		t.Fatal(err)
	}
	if len(res.pings) != 1 {
		t.Fatalf("destroyed surface was pinged: %v", res.pings)
	}
}

func TestSetTransient(t *testing.T) {
	f := newFixture()
	parent := window(image.Rect(30, 40, 130, 140))
	ss, _ := f.shell(t, window(image.Rect(0, 0, 10, 10)))

	ss.SetTransient(parent, image.Pt(5, 5))
	if ss.State() != StateTransient {
		t.Fatalf("unexpected state %v", ss.State())
	}
	if p := ss.Surface().Position(); p != image.Pt(35, 45) {
		t.Fatalf("got %v, expected (35,45)", p)
	}

	ss.SetToplevel()
	if p, _ := ss.Transient(); p != nil {
		t.Fatalf("transient parent survived SetToplevel: %v", p)
	}
}

func TestEdgeString(t *testing.T) {
	tests := []struct {
		edge Edge
		str  string
	}{
		{EdgeNone, "none"},
		{EdgeTopLeft, "top|left"},
		{EdgeBottomRight, "bottom|right"},
		{EdgeRight, "right"},
	}
	for _, test := range tests {
		if s := test.edge.String(); s != test.str {
			t.Errorf("%d: got %q, expected %q", uint32(test.edge), s, test.str)
		}
	}
}
