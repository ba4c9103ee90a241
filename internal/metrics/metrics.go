// Package metrics exposes broker counters and gauges as Prometheus
// collectors, plus a background sampler that folds in host CPU and
// process memory stats so the same /metrics endpoint covers both domain and system
// health.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector the broker updates directly.
type Registry struct {
	ClientsConnected prometheus.Gauge
	ClientsLost      prometheus.Gauge
	TopicsActive     prometheus.Gauge

	ConnectionsAccepted prometheus.Counter
	MessagesPublished   prometheus.Counter
	MessagesDelivered   prometheus.Counter
	MessagesDropped     prometheus.Counter
	NameCollisions      prometheus.Counter
	ClientsExpired      prometheus.Counter

	CPUPercent prometheus.Gauge
	MemAllocMB prometheus.Gauge
	Goroutines prometheus.Gauge
}

// NewRegistry creates and registers the broker's Prometheus collectors.
func NewRegistry() *Registry {
	return &Registry{
		ClientsConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaybroker_clients_connected",
			Help: "Number of clients currently bound to a connection.",
		}),
		ClientsLost: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaybroker_clients_lost",
			Help: "Number of clients awaiting reconnect within the retention window.",
		}),
		TopicsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaybroker_topics_active",
			Help: "Number of topics with at least one subscriber.",
		}),
		ConnectionsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaybroker_connections_accepted_total",
			Help: "Total TCP connections accepted.",
		}),
		MessagesPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaybroker_messages_published_total",
			Help: "Total publish commands processed.",
		}),
		MessagesDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaybroker_messages_delivered_total",
			Help: "Total per-subscriber deliveries enqueued.",
		}),
		MessagesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaybroker_messages_dropped_total",
			Help: "Total deliveries dropped because a recipient's outbound queue was full.",
		}),
		NameCollisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaybroker_name_collisions_total",
			Help: "Total CONNECT attempts rejected because the name was already connected.",
		}),
		ClientsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "relaybroker_clients_expired_total",
			Help: "Total lost clients removed after exceeding the retention window.",
		}),
		CPUPercent: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaybroker_host_cpu_percent",
			Help: "Smoothed host CPU utilization percentage.",
		}),
		MemAllocMB: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaybroker_host_mem_alloc_mb",
			Help: "Process heap allocation in megabytes.",
		}),
		Goroutines: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "relaybroker_goroutines",
			Help: "Current goroutine count.",
		}),
	}
}

// Handler returns an HTTP handler exposing the registered collectors.
func (r *Registry) Handler() http.Handler {
	return promhttp.Handler()
}
