// Package metrics exposes compositor counters to Prometheus. Every
// method is safe to call on a nil or disabled *Metrics, in which case
// it does nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wlcomp"

type Metrics struct {
	commits          prometheus.Counter
	renders          prometheus.Counter
	renderDuration   prometheus.Histogram
	pings            prometheus.Counter
	livenessTimeouts prometheus.Counter
	protocolErrors   *prometheus.CounterVec
	clients          prometheus.Gauge
	surfaces         prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a set of metrics registered with a fresh registry. If
// enabled is false, the returned metrics record nothing.
func New(enabled bool) *Metrics {
	if !enabled {
		return &Metrics{}
	}

	registry := prometheus.NewRegistry()
	m := Metrics{
		registry: registry,

		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "surface_commits_total",
			Help:      "Total number of surface commits",
		}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Total number of frames rendered",
		}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent drawing a frame",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		pings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shell_pings_total",
			Help:      "Total number of liveness pings sent to clients",
		}),
		livenessTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shell_liveness_timeouts_total",
			Help:      "Total number of shell surfaces that failed to answer a ping in time",
		}),
		protocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total number of protocol errors posted to clients",
		}, []string{"interface"}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clients",
			Help:      "Current number of connected clients",
		}),
		surfaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "surfaces",
			Help:      "Current number of live surfaces",
		}),
	}

	registry.MustRegister(
		m.commits,
		m.renders,
		m.renderDuration,
		m.pings,
		m.livenessTimeouts,
		m.protocolErrors,
		m.clients,
		m.surfaces,
	)

	return &m
}

func (m *Metrics) enabled() bool {
	return (m != nil) && (m.registry != nil)
}

func (m *Metrics) Commit() {
	if !m.enabled() {
		return
	}
	m.commits.Inc()
}

// Render records a rendered frame and how long it took.
func (m *Metrics) Render(d time.Duration) {
	if !m.enabled() {
		return
	}
	m.renders.Inc()
	m.renderDuration.Observe(d.Seconds())
}

func (m *Metrics) Ping() {
	if !m.enabled() {
		return
	}
	m.pings.Inc()
}

func (m *Metrics) LivenessTimeout() {
	if !m.enabled() {
		return
	}
	m.livenessTimeouts.Inc()
}

// ProtocolError records an error posted to a client. The interface is
// the name of the protocol interface that the error code belongs to.
func (m *Metrics) ProtocolError(iface string) {
	if !m.enabled() {
		return
	}
	m.protocolErrors.WithLabelValues(iface).Inc()
}

// AddClients adjusts the connected client count by delta.
func (m *Metrics) AddClients(delta int) {
	if !m.enabled() {
		return
	}
	m.clients.Add(float64(delta))
}

// AddSurfaces adjusts the live surface count by delta.
func (m *Metrics) AddSurfaces(delta int) {
	if !m.enabled() {
		return
	}
	m.surfaces.Add(float64(delta))
}

// Registry returns the registry that the metrics are registered with,
// or nil if they are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns an HTTP handler that serves the metrics.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
