// Package obs holds the proxy's observability surface: a private
// prometheus registry and the admin endpoints serving it.
package obs

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the proxy's metric set. All record methods are safe to
// call on a nil receiver, so the server can run with metrics disabled.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	tunnels  prometheus.Counter
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proxy_requests_total",
		Help: "Total proxied requests by cache status",
	}, []string{"cache"})

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proxy_failures_total",
		Help: "Total connections aborted without a response",
	}, []string{"category"})

	tunnels := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proxy_tunnels_total",
		Help: "Total CONNECT tunnels opened",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "proxy_request_duration_seconds",
		Help:    "Time from first request byte to response written",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(requests, failures, tunnels, duration)

	return &Metrics{
		registry: registry,
		requests: requests,
		failures: failures,
		tunnels:  tunnels,
		duration: duration,
	}
}

// Request records one completed non-tunneled response.
func (m *Metrics) Request(hit bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "miss"
	if hit {
		status = "hit"
	}
	m.requests.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// Failure records a connection aborted without a valid response.
func (m *Metrics) Failure(category string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(category).Inc()
}

// Tunnel records one CONNECT tunnel.
func (m *Metrics) Tunnel() {
	if m == nil {
		return
	}
	m.tunnels.Inc()
}

// Handler exposes the registry in prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
