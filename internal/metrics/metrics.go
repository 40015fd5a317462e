// Package metrics exposes Prometheus collectors for the bridge's ingest
// and fan-out paths, plus a periodic system-resource sampler.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the process's Prometheus collectors. DatagramsRejected is
// registered, but nothing in this module increments it: the datagram
// listener logs rejected datagrams without counting them.
type Metrics struct {
	ConnectedClients  prometheus.Gauge
	DatagramsDecoded  prometheus.Counter
	DatagramsRejected *prometheus.CounterVec
	RecordsFiltered   prometheus.Counter
	RecordsRendered   prometheus.Counter
	RenderErrors      prometheus.Counter
	BroadcastsSent    prometheus.Counter
	MessagesDropped   *prometheus.CounterVec
	BusDepth          prometheus.Gauge
	CPUPercent        prometheus.Gauge
	MemoryUsedBytes   prometheus.Gauge
}

// New constructs the bridge's collectors and registers them against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jtac_bridge",
			Name:      "connected_clients",
			Help:      "Number of currently connected WebSocket clients.",
		}),
		DatagramsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "datagrams_decoded_total",
			Help:      "Number of ingress datagrams successfully decoded into a unit record.",
		}),
		DatagramsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "datagrams_rejected_total",
			Help:      "Number of ingress datagrams rejected, by reason.",
		}, []string{"reason"}),
		RecordsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "records_filtered_total",
			Help:      "Number of decoded records dropped by the coalition/unit-type filter.",
		}),
		RecordsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "records_rendered_total",
			Help:      "Number of records successfully rendered as situational-awareness XML.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "render_errors_total",
			Help:      "Number of records that failed rendering.",
		}),
		BroadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "broadcasts_sent_total",
			Help:      "Number of messages accepted onto the broadcast bus.",
		}),
		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jtac_bridge",
			Name:      "messages_dropped_total",
			Help:      "Number of messages dropped, by reason.",
		}, []string{"reason"}),
		BusDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jtac_bridge",
			Name:      "bus_depth",
			Help:      "Current depth of the broadcast message bus.",
		}),
		CPUPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jtac_bridge",
			Name:      "process_cpu_percent",
			Help:      "Smoothed process CPU usage percentage.",
		}),
		MemoryUsedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "jtac_bridge",
			Name:      "process_memory_used_bytes",
			Help:      "Process resident memory usage in bytes.",
		}),
	}

	reg.MustRegister(
		m.ConnectedClients,
		m.DatagramsDecoded,
		m.DatagramsRejected,
		m.RecordsFiltered,
		m.RecordsRendered,
		m.RenderErrors,
		m.BroadcastsSent,
		m.MessagesDropped,
		m.BusDepth,
		m.CPUPercent,
		m.MemoryUsedBytes,
	)

	return m
}
