// Package metric provides Prometheus metrics for peerhub.
//
//   - prometheus.go: the metric registry and text exposition
//   - collector.go: a scrape-time collector for directory and session sizes
//
// Metrics are exposed by the daemon's own GET /metrics route in the
// Prometheus text format; no net/http server is involved.
package metric
