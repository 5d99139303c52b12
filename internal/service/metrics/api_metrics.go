package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creditrisk",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of credit endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditrisk",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by credit endpoint and status class",
		},
		[]string{"endpoint", "code"},
	)

	APIRateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditrisk",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client limiter",
		},
		[]string{"endpoint"},
	)
)

// Register adds the API collectors to reg once per process.
func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(APILatency, APIErrors, APIRateLimited)
	})
}
