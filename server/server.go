// Package server ties the compositor together. It owns the event loop
// that all compositor state lives on, the scene, the input devices, and
// every connected client's objects. Marshalling requests and events
// to and from the wire is left to whoever drives it.
package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/config"
	"deedles.dev/wlcomp/internal/debug"
	"deedles.dev/wlcomp/internal/eventloop"
	"deedles.dev/wlcomp/internal/metrics"
	"deedles.dev/wlcomp/internal/set"
	"deedles.dev/wlcomp/internal/xslices"
	"deedles.dev/wlcomp/pointer"
	"deedles.dev/wlcomp/render"
	"deedles.dev/wlcomp/shell"
	"github.com/rs/zerolog"
)

// Server is a compositor instance. Unless otherwise noted, its methods
// must only be called on the event loop, either from inside of a
// function passed to Do or from the goroutine that calls Flush.
type Server struct {
	cfg     *config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	loop     *eventloop.Loop
	jobs     *eventloop.Jobs
	scene    *compositor.Scene
	pointer  *pointer.Device
	shell    *shell.Global
	renderer *render.Renderer
	output   *image.RGBA

	start         time.Time
	serial        uint32
	clients       set.Set[*Client]
	owners        map[*compositor.Surface]*Client
	renderPending bool
}

func New(cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) *Server {
	s := Server{
		cfg:     cfg,
		log:     log,
		metrics: m,

		scene:  compositor.NewScene(),
		output: image.NewRGBA(image.Rect(0, 0, cfg.Output.Width, cfg.Output.Height)),

		start:   time.Now(),
		clients: set.New[*Client](),
		owners:  make(map[*compositor.Surface]*Client),
	}

	s.loop = eventloop.New(debug.Component(log, "eventloop"))
	s.jobs = eventloop.NewJobs(s.loop, cfg.Workers)

	s.pointer = pointer.NewDevice(1, s.scene, s.NextSerial, debug.Component(log, "pointer"))
	s.pointer.SetListener((*pointerListener)(&s))

	s.shell = shell.NewGlobal(shell.Options{
		Timers:      func(h func()) shell.Timer { return s.loop.AddTimer(h) },
		Serials:     s.NextSerial,
		PingTimeout: cfg.Shell.PingTimeout,
		Log:         debug.Component(log, "shell"),
		Metrics:     m,
	})

	s.renderer = render.New(debug.Component(log, "render"))
	s.renderer.SetBackground(cfg.Output.BackgroundColor())

	return &s
}

// LoadCursor loads the fallback cursor from the configured theme. It
// may be called before Run from any goroutine.
func (s *Server) LoadCursor() error {
	return s.renderer.LoadCursor(s.cfg.Cursor.Theme)
}

// Run starts the job workers and the liveness checks and then runs the
// event loop on the calling goroutine until ctx is canceled or Stop is
// called.
func (s *Server) Run(ctx context.Context) error {
	err := s.jobs.Start()
	if err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer s.jobs.Stop()

	go s.checkLiveness(ctx)

	s.log.Info().
		Int("width", s.cfg.Output.Width).
		Int("height", s.cfg.Output.Height).
		Msg("compositor running")

	err = s.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) checkLiveness(ctx context.Context) {
	tick := time.NewTicker(s.cfg.Shell.PingInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.loop.Done():
			return
		case <-tick.C:
			s.loop.Post(s.shell.CheckLiveness)
		}
	}
}

// Stop stops the event loop. It may be called from any goroutine.
func (s *Server) Stop() {
	s.loop.Stop()
}

// Do runs f on the event loop. It may be called from any goroutine.
func (s *Server) Do(f func()) error {
	return s.loop.Do(f)
}

// Flush runs any work that is waiting for the event loop. It is for
// driving a server that is not running.
func (s *Server) Flush() error {
	return s.loop.Flush()
}

// NextSerial returns a new event serial.
func (s *Server) NextSerial() uint32 {
	s.serial++
	return s.serial
}

func (s *Server) now() uint32 {
	return uint32(time.Since(s.start).Milliseconds())
}

func (s *Server) Scene() *compositor.Scene {
	return s.scene
}

func (s *Server) Pointer() *pointer.Device {
	return s.pointer
}

func (s *Server) Shell() *shell.Global {
	return s.shell
}

// Output returns the image that frames are rendered into.
func (s *Server) Output() *image.RGBA {
	return s.output
}

// RequestRender schedules a frame. Requests made before the frame is
// drawn are coalesced into it.
func (s *Server) RequestRender(*compositor.Surface) {
	if s.renderPending {
		return
	}
	s.renderPending = true

	err := s.loop.Do(s.render)
	if err != nil {
		s.renderPending = false
		s.log.Debug().Err(err).Msg("render not scheduled")
	}
}

func (s *Server) render() {
	s.renderPending = false

	start := time.Now()
	drawn := s.renderer.Render(s.output, s.scene.Drawable(), s.pointer.Position())
	s.metrics.Render(time.Since(start))

	now := s.now()
	for _, surface := range xslices.Unique(drawn) {
		surface.FirePaintCallbacks(now)
	}
}

// PointerMotion moves the pointer to p in output coordinates.
func (s *Server) PointerMotion(p image.Point) {
	s.pointer.Motion(s.now(), p)
	s.RequestRender(nil)
}

// PointerButton presses or releases a pointer button. Pressing a
// button over a window raises it.
func (s *Server) PointerButton(b pointer.Button, pressed bool) {
	if v := s.pointer.Focus(); pressed && (v != nil) && s.scene.Application().Contains(v) {
		s.scene.Application().Raise(v)
		s.RequestRender(v.Surface())
	}

	s.pointer.Button(s.NextSerial(), s.now(), b, pressed)
}

// Screenshot renders the scene and writes it to path as a PNG. The
// encoding happens off of the event loop. Afterwards, done, if not nil,
// is called on the event loop with the result.
func (s *Server) Screenshot(path string, done func(error)) error {
	s.render()

	img := image.NewRGBA(s.output.Rect)
	copy(img.Pix, s.output.Pix)

	return s.jobs.Submit(
		func() error { return writePNG(path, img) },
		func(err error) {
			if err != nil {
				s.log.Error().Err(err).Str("path", path).Msg("screenshot failed")
			} else {
				s.log.Info().Str("path", path).Msg("screenshot written")
			}
			if done != nil {
				done(err)
			}
		},
	)
}

func writePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	err = png.Encode(file, img)
	return errors.Join(err, file.Close())
}

type pointerListener Server

func (s *pointerListener) sink(surface *compositor.Surface) (PointerSink, bool) {
	c, ok := s.owners[surface]
	if !ok {
		return nil, false
	}
	ps, ok := c.sink.(PointerSink)
	return ps, ok
}

func (s *pointerListener) Enter(surface *compositor.Surface, local image.Point, serial uint32) {
	if ps, ok := s.sink(surface); ok {
		ps.Enter(surface.ID(), local, serial)
	}
}

func (s *pointerListener) Leave(surface *compositor.Surface, serial uint32) {
	if ps, ok := s.sink(surface); ok {
		ps.Leave(surface.ID(), serial)
	}
}

func (s *pointerListener) Motion(surface *compositor.Surface, time uint32, local image.Point) {
	if ps, ok := s.sink(surface); ok {
		ps.Motion(time, local)
	}
}

func (s *pointerListener) Button(surface *compositor.Surface, serial, time uint32, b pointer.Button, pressed bool) {
	if ps, ok := s.sink(surface); ok {
		ps.Button(serial, time, b, pressed)
	}
}

func (s *pointerListener) Ungrab(surface *compositor.Surface) {
	if ss, ok := s.shell.Find(surface); ok {
		ss.Ungrab()
	}
}
