// Package metric provides Prometheus metrics for warmd.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: Registry with connection, queue and request metrics
//   - collector.go: Scrape-time collector for session counters
//
// Metrics include:
//
//   - Admission counters (accepted, rejected by reason, in flight)
//   - Queue depth
//   - Request outcomes and a latency histogram
//   - Go runtime and process statistics
//
// A server is wired to a Registry; when metrics.addr is configured the
// registry is exposed over HTTP at metrics.path.
package metric
