package txpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	poolSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slashing_report_pool_size",
		Help: "Number of slashing reports waiting for inclusion.",
	})
	poolDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slashing_report_pool_dropped_total",
		Help: "Number of slashing reports dropped from the pool.",
	}, []string{"reason"})
)
