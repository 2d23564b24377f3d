// Package metric provides Prometheus metrics for warmd.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SessionStats is the read-only view of a session the collector reports.
type SessionStats interface {
	Requests() uint64
	Uptime() time.Duration
}

// SessionCollector reports session counters at scrape time.
type SessionCollector struct {
	stats SessionStats

	requests *prometheus.Desc
	uptime   *prometheus.Desc
}

// NewSessionCollector creates a collector for stats, labelled with the
// session id.
func NewSessionCollector(sessionID string, stats SessionStats) *SessionCollector {
	labels := prometheus.Labels{"session": sessionID}
	return &SessionCollector{
		stats: stats,
		requests: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "requests_total"),
			"Requests dispatched to the session.",
			nil, labels,
		),
		uptime: prometheus.NewDesc(
			prometheus.BuildFQName(Namespace, "session", "uptime_seconds"),
			"Seconds since the session was created.",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.uptime
}

// Collect implements prometheus.Collector.
func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(c.stats.Requests()))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, c.stats.Uptime().Seconds())
}
