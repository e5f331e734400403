// Package metrics exposes the proxy's Prometheus instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds every Prometheus metric the proxy emits, registered
// against its own isolated registry so tests can construct several
// without colliding on the default global registry.
type Collector struct {
	Registry *prometheus.Registry

	connectionsActive *prometheus.GaugeVec
	connectionsTotal  *prometheus.CounterVec
	authOutcomes      *prometheus.CounterVec
	relayBytes        *prometheus.CounterVec
	admissionWait     *prometheus.HistogramVec
	sessionDuration   *prometheus.HistogramVec
}

// New creates and registers the proxy's metrics against a fresh
// registry.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,
		connectionsActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "socksd_connections_active",
				Help: "Number of connections currently being served, per listener",
			},
			[]string{"listener"},
		),
		connectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socksd_connections_total",
				Help: "Total connections accepted, per listener",
			},
			[]string{"listener"},
		),
		authOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socksd_auth_outcomes_total",
				Help: "Authentication attempts, per listener and outcome",
			},
			[]string{"listener", "outcome"},
		),
		relayBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socksd_relay_bytes_total",
				Help: "Bytes relayed, per listener and direction",
			},
			[]string{"listener", "direction"},
		),
		admissionWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socksd_admission_wait_seconds",
				Help:    "Time spent waiting for an admission slot before a connection was served",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
			[]string{"listener"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socksd_session_duration_seconds",
				Help:    "Duration of a proxied session from admission to close",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 18),
			},
			[]string{"listener"},
		),
	}

	reg.MustRegister(
		c.connectionsActive,
		c.connectionsTotal,
		c.authOutcomes,
		c.relayBytes,
		c.admissionWait,
		c.sessionDuration,
	)

	return c
}

// ConnectionAccepted records a newly accepted connection on listener.
func (c *Collector) ConnectionAccepted(listener string) {
	c.connectionsTotal.WithLabelValues(listener).Inc()
	c.connectionsActive.WithLabelValues(listener).Inc()
}

// ConnectionClosed decrements the active-connections gauge for listener.
func (c *Collector) ConnectionClosed(listener string) {
	c.connectionsActive.WithLabelValues(listener).Dec()
}

// AuthOutcome records an authentication attempt's result.
func (c *Collector) AuthOutcome(listener string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	c.authOutcomes.WithLabelValues(listener, outcome).Inc()
}

// RelayBytes records bytes relayed in one direction.
func (c *Collector) RelayBytes(listener, direction string, n int64) {
	if n <= 0 {
		return
	}
	c.relayBytes.WithLabelValues(listener, direction).Add(float64(n))
}

// AdmissionWait observes how long a connection waited for an admission
// slot before being served.
func (c *Collector) AdmissionWait(listener string, d time.Duration) {
	c.admissionWait.WithLabelValues(listener).Observe(d.Seconds())
}

// SessionCompleted observes a session's total duration.
func (c *Collector) SessionCompleted(listener string, d time.Duration) {
	c.sessionDuration.WithLabelValues(listener).Observe(d.Seconds())
}
