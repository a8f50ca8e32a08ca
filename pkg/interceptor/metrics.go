package interceptor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	InterceptorResourcesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interceptor_resources_total",
		Help: "Counter of total number of connection resources intercepted",
	})

	InterceptorLookupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interceptor_lookups_total",
		Help: "Counter of total number of lookup completions observed",
	})

	InterceptorOwnerlessResourcesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "interceptor_ownerless_resources_total",
		Help: "Counter of total number of resources which never exposed an owner",
	})

	InterceptorPendingResources = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "interceptor_pending_resources",
		Help: "Number of intercepted resources waiting to become ready",
	})
)

func initMetrics() {
	prometheus.MustRegister(InterceptorResourcesTotal)
	prometheus.MustRegister(InterceptorLookupsTotal)
	prometheus.MustRegister(InterceptorOwnerlessResourcesTotal)
	prometheus.MustRegister(InterceptorPendingResources)
}
