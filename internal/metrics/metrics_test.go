package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDisabled(t *testing.T) {
	for _, m := range []*Metrics{nil, New(false)} {
		m.Commit()
		m.Render(time.Millisecond)
		m.Ping()
		m.LivenessTimeout()
		m.ProtocolError("wl_shell")
		m.AddClients(1)
		m.AddSurfaces(1)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("disabled metrics served %v", rec.Code)
		}
	}
}

func TestCounters(t *testing.T) {
	m := New(true)
	m.Commit()
	m.Commit()
	m.LivenessTimeout()
	m.ProtocolError("wl_shell")
	m.AddClients(2)
	m.AddClients(-1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, line := range []string{
		"wlcomp_surface_commits_total 2",
		"wlcomp_shell_liveness_timeouts_total 1",
		`wlcomp_protocol_errors_total{interface="wl_shell"} 1`,
		"wlcomp_clients 1",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("%q missing from output:\n%v", line, body)
		}
	}
}
