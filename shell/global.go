package shell

import (
	"errors"
	"fmt"
	"time"

	"deedles.dev/wlcomp/compositor"
	"deedles.dev/wlcomp/internal/metrics"
	"deedles.dev/wlcomp/internal/set"
	"github.com/rs/zerolog"
)

// Options configures a Global.
type Options struct {
	// Timers creates liveness timers. It is required.
	Timers TimerFunc

	// Serials returns a fresh serial for each ping. It is required.
	Serials func() uint32

	// PingTimeout is how long a client has to answer a ping.
	PingTimeout time.Duration

	Log     zerolog.Logger
	Metrics *metrics.Metrics
}

// Global is the wl_shell global. It hands out the shell role and keeps
// track of every live shell surface.
type Global struct {
	opts     Options
	surfaces set.Set[*Surface]
}

func NewGlobal(opts Options) *Global {
	return &Global{
		opts:     opts,
		surfaces: set.New[*Surface](),
	}
}

// GetShellSurface gives surface the shell role. If the surface already
// has another role, a protocol error is posted to req and the error is
// returned. Otherwise, the new shell surface is pinged immediately and
// is destroyed along with surface.
func (g *Global) GetShellSurface(req Requester, id uint32, surface *compositor.Surface, res Resource) (*Surface, error) {
	err := surface.SetRole(compositor.Role{Kind: compositor.RoleShell, ID: id})
	if err != nil {
		req.PostError(ErrorRole, fmt.Sprintf("desired shell surface already has another role (%v)", surface.Role()))
		g.opts.Metrics.ProtocolError("wl_shell")
		return nil, err
	}

	ss := newSurface(id, surface, res, g.opts)
	g.surfaces.Add(ss)
	ss.OnDestroy(func() { g.surfaces.Delete(ss) })
	surface.OnDestroy(ss.Destroy)

	// A timer failure is logged and the next periodic check retries it.
	_ = ss.CheckLiveness(res, g.opts.Serials())
	return ss, nil
}

// CheckLiveness pings every live shell surface. Every surface is
// pinged even if arming an earlier one's timer fails. The failures are
// joined into the returned error.
func (g *Global) CheckLiveness() error {
	var errs []error
	for _, ss := range g.surfaces.Slice() {
		err := ss.CheckLiveness(ss.resource, g.opts.Serials())
		if err != nil {
			errs = append(errs, fmt.Errorf("shell surface %v: %w", ss.id, err))
		}
	}
	return errors.Join(errs...)
}

// Surfaces returns the live shell surfaces in no particular order.
func (g *Global) Surfaces() []*Surface {
	return g.surfaces.Slice()
}

// Find returns the shell surface of s, if it has one.
func (g *Global) Find(s *compositor.Surface) (*Surface, bool) {
	for ss := range g.surfaces {
		if ss.surface == s {
			return ss, true
		}
	}
	return nil, false
}
