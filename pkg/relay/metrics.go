package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metrics = struct {
	online  prometheus.Gauge
	joins   *prometheus.CounterVec
	relayed *prometheus.CounterVec
	dropped *prometheus.CounterVec
}{
	online: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_endpoints_online",
		Help: "Number of currently connected endpoints.",
	}),
	joins: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_joins_total",
		Help: "Join packets processed, by role.",
	}, []string{"role"}),
	relayed: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_packets_relayed_total",
		Help: "Addressed packets delivered to their target, by kind.",
	}, []string{"kind"}),
	dropped: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_packets_dropped_total",
		Help: "Addressed packets dropped because the target was offline, by kind.",
	}, []string{"kind"}),
}
