package spy

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SpyRecordsPublishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spy_records_published_total",
		Help: "Counter of total number of host records published to subscribers",
	})

	SpyRecordsSuppressedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spy_records_suppressed_total",
		Help: "Counter of total number of host records suppressed as already seen",
	})

	SpySubscriberPanicsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "spy_subscriber_panics_total",
		Help: "Counter of total number of subscriber callbacks which panicked",
	})
)

func initMetrics() {
	prometheus.MustRegister(SpyRecordsPublishedTotal)
	prometheus.MustRegister(SpyRecordsSuppressedTotal)
	prometheus.MustRegister(SpySubscriberPanicsTotal)
}
