package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry *prometheus.Registry

	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	rejectedTotal    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		dispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley_gateway",
			Name:      "dispatches_total",
			Help:      "Completed upstream dispatches by method and upstream status class.",
		}, []string{"method", "status"}),
		dispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "parley_gateway",
			Name:      "dispatch_duration_seconds",
			Help:      "Upstream dispatch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parley_gateway",
			Name:      "rejected_total",
			Help:      "Dispatches rejected before reaching the upstream, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(m.dispatchesTotal, m.dispatchDuration, m.rejectedTotal)
	return m
}
