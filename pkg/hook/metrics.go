package hook

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HookResourcesAnnouncedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hook_resources_announced_total",
		Help: "Counter of total number of asynchronous resources announced to a tap",
	})

	HookCallbackPanicsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hook_callback_panics_total",
		Help: "Counter of total number of hook callbacks which panicked",
	})
)

func initMetrics() {
	prometheus.MustRegister(HookResourcesAnnouncedTotal)
	prometheus.MustRegister(HookCallbackPanicsTotal)
}
