// Package metric provides Prometheus metrics for warmd.
package metric

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every warmd metric.
const Namespace = "warmd"

// Rejection reasons recorded on connections_rejected_total.
const (
	ReasonCapacity    = "capacity"
	ReasonQueueFull   = "queue_full"
	ReasonRateLimited = "rate_limited"
	ReasonShutdown    = "shutdown"
)

// Request outcomes recorded on requests_total.
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeTooLong   = "too_long"
	OutcomeTransport = "transport"
	OutcomePanic     = "panic"
)

// Registry holds all application metrics on a private Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected *prometheus.CounterVec
	ConnectionsInFlight prometheus.Gauge
	QueueDepth          prometheus.Gauge

	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewRegistry creates a registry with the warmd collectors plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		ConnectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections admitted past the capacity check.",
		}),
		ConnectionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections turned away, by reason.",
		}, []string{"reason"}),
		ConnectionsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connections_in_flight",
			Help:      "Admitted connections not yet fully handled.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_depth",
			Help:      "Admitted connections waiting for the worker.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Handled requests, by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from dequeue to connection close.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ConnectionsAccepted,
		r.ConnectionsRejected,
		r.ConnectionsInFlight,
		r.QueueDepth,
		r.RequestsTotal,
		r.RequestDuration,
	)

	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns an HTTP handler serving the process-wide registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Register adds a collector to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// MustRegister adds collectors to the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.registry.MustRegister(cs...)
}

// IncAccepted counts a connection handed to the worker queue.
func (r *Registry) IncAccepted() {
	r.ConnectionsAccepted.Inc()
}

// IncInFlight marks a connection as holding an admission slot.
func (r *Registry) IncInFlight() {
	r.ConnectionsInFlight.Inc()
}

// DecInFlight marks an admitted connection as fully handled.
func (r *Registry) DecInFlight() {
	r.ConnectionsInFlight.Dec()
}

// RecordRejection counts a rejected connection.
func (r *Registry) RecordRejection(reason string) {
	r.ConnectionsRejected.WithLabelValues(reason).Inc()
}

// SetQueueDepth records the current queue length.
func (r *Registry) SetQueueDepth(n int) {
	r.QueueDepth.Set(float64(n))
}

// RecordRequest counts a handled request and observes its duration.
func (r *Registry) RecordRequest(outcome string, d time.Duration) {
	r.RequestsTotal.WithLabelValues(outcome).Inc()
	r.RequestDuration.Observe(d.Seconds())
}
