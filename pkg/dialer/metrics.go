package dialer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DialerDialsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dialer_dials_total",
		Help: "Counter of total number of outbound dials",
	})

	DialerDialErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dialer_dial_errors_total",
		Help: "Counter of total number of outbound dials which failed",
	})
)

func initMetrics() {
	prometheus.MustRegister(DialerDialsTotal)
	prometheus.MustRegister(DialerDialErrorsTotal)
}
