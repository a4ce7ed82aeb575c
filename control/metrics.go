// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for relay activity.

package control

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relay"

// Metrics holds the relay collectors on a private registry, so several
// servers in one process (tests) never collide on registration.
type Metrics struct {
	reg *prometheus.Registry

	Accepted      prometheus.Counter
	Rejected      prometheus.Counter
	Closed        prometheus.Counter
	BytesReceived prometheus.Counter
	BytesRelayed  prometheus.Counter
	WriteFailures prometheus.Counter
	Active        prometheus.Gauge
	Fanout        prometheus.Histogram
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_accepted_total",
			Help:      "Connections that were given a slot.",
		}),
		Rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_rejected_total",
			Help:      "Connections refused because every slot was taken.",
		}),
		Closed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_closed_total",
			Help:      "Slots released after end-of-stream or a connection fault.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Bytes read from clients.",
		}),
		BytesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_relayed_total",
			Help:      "Bytes written to peers during broadcast.",
		}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_failures_total",
			Help:      "Failed or partial peer writes skipped during broadcast.",
		}),
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Currently occupied slots.",
		}),
		Fanout: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "broadcast_fanout",
			Help:      "Peers addressed by one broadcast.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
	}
	m.reg.MustRegister(
		m.Accepted, m.Rejected, m.Closed,
		m.BytesReceived, m.BytesRelayed, m.WriteFailures,
		m.Active, m.Fanout,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
