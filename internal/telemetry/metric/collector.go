package metric

import "github.com/prometheus/client_golang/prometheus"

// StatsSource reports sizes that are cheaper to read at scrape time than to
// track on every mutation.
type StatsSource interface {
	ActiveSessions() int
	PeerCounts() (registered, connected int)
}

// Collector exports StatsSource values as gauges.
type Collector struct {
	src StatsSource

	sessionsActive  *prometheus.Desc
	peersRegistered *prometheus.Desc
	peersConnected  *prometheus.Desc
}

// NewCollector creates a collector reading from src.
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		sessionsActive: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "active"),
			"Sessions currently stored, including not yet purged expired ones.",
			nil, nil),
		peersRegistered: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "peer", "directory_entries"),
			"Entries in the peer directory.",
			nil, nil),
		peersConnected: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "peer", "connected_entries"),
			"Entries in the connected-peer set.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.sessionsActive
	ch <- c.peersRegistered
	ch <- c.peersConnected
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	registered, connected := c.src.PeerCounts()
	ch <- prometheus.MustNewConstMetric(c.sessionsActive, prometheus.GaugeValue, float64(c.src.ActiveSessions()))
	ch <- prometheus.MustNewConstMetric(c.peersRegistered, prometheus.GaugeValue, float64(registered))
	ch <- prometheus.MustNewConstMetric(c.peersConnected, prometheus.GaugeValue, float64(connected))
}
