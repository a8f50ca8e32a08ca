package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BridgeUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metrics_bridge_updates_total",
		Help: "Counter of total number of metric updates produced by bridges",
	})

	BridgeDroppedUpdatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metrics_bridge_dropped_updates_total",
		Help: "Counter of total number of metric updates dropped because a stream was full",
	})
)

func initMetrics() {
	prometheus.MustRegister(BridgeUpdatesTotal)
	prometheus.MustRegister(BridgeDroppedUpdatesTotal)
}
