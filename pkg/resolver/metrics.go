package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ResolverResolveFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_resolve_failures_total",
		Help: "Counter of total hostname resolutions which returned errors",
	})

	ResolverResolvesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_resolves_total",
		Help: "Counter of total number of hostname resolutions",
	})
)

func initMetrics() {
	prometheus.MustRegister(ResolverResolveFailuresTotal)
	prometheus.MustRegister(ResolverResolvesTotal)
}
