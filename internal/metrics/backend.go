package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend, cache and export Prometheus metrics.
var (
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logview",
			Name:      "backend_requests_total",
			Help:      "Total number of log fetches sent to the backend",
		},
		[]string{"backend", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "logview",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend log fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logview",
			Name:      "logs_cache_total",
			Help:      "Log batch cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ExportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logview",
			Name:      "exports_total",
			Help:      "Total number of saved exports",
		},
		[]string{"format"}, // "json" / "csv" / "document"
	)
)

var backendMetricsRegistered bool

// RegisterBackendMetrics registers backend, cache and export metrics. Must be called once from main.
func RegisterBackendMetrics() {
	if backendMetricsRegistered {
		return
	}
	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(ExportsTotal)
	backendMetricsRegistered = true
}

// ObserveBackend records one backend fetch. Status is "ok" or "error".
func ObserveBackend(backend, status string, seconds float64) {
	BackendRequestsTotal.WithLabelValues(backend, status).Inc()
	BackendRequestDuration.WithLabelValues(backend).Observe(seconds)
}
