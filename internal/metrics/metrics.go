// Package metrics registers the prometheus collectors of the HTTP service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "debt_engine_"

	// ResultSuccess labels a successful operation.
	ResultSuccess = "success"
	// ResultError labels a failed operation.
	ResultError = "error"
	// CacheHit labels a cache lookup that found an entry.
	CacheHit = "hit"
	// CacheMiss labels a cache lookup that found nothing.
	CacheMiss = "miss"
)

var (
	registerOnce sync.Once

	requestsTotal     *prometheus.CounterVec
	requestLatency    *prometheus.HistogramVec
	calculationErrors *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	exportTotal       *prometheus.CounterVec
	simulatedMonths   *prometheus.HistogramVec
)

// Init registers the collectors with the default prometheus registry. It is
// safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "requests_total",
				Help: "Total API requests by endpoint and status code",
			},
			[]string{"endpoint", "status"},
		)
		requestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "request_latency_seconds",
				Help:    "API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)
		calculationErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculation_errors_total",
				Help: "Calculation errors by operation and kind",
			},
			[]string{"operation", "kind"},
		)
		cacheLookups = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cache_lookups_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "schedule_exports_total",
				Help: "Amortization schedule exports by format and result",
			},
			[]string{"format", "result"},
		)
		simulatedMonths = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "payoff_months",
				Help:    "Months needed by simulated payoff strategies",
				Buckets: []float64{6, 12, 24, 36, 60, 120, 240, 360},
			},
			[]string{"ordering"},
		)

		prometheus.MustRegister(
			requestsTotal,
			requestLatency,
			calculationErrors,
			cacheLookups,
			exportTotal,
			simulatedMonths,
		)
	})
}

// ObserveRequest records one API request.
func ObserveRequest(endpoint, status string, duration time.Duration) {
	if endpoint == "" {
		endpoint = "unknown"
	}
	if requestsTotal != nil {
		requestsTotal.WithLabelValues(endpoint, status).Inc()
	}
	if requestLatency != nil {
		requestLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

// IncCalculationError counts an engine error.
func IncCalculationError(operation, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	if calculationErrors != nil {
		calculationErrors.WithLabelValues(operation, kind).Inc()
	}
}

// IncCacheLookup counts a cache hit or miss.
func IncCacheLookup(result string) {
	if cacheLookups != nil {
		cacheLookups.WithLabelValues(result).Inc()
	}
}

// IncExport counts a schedule export.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// ObservePayoffMonths records how long a simulated strategy took.
func ObservePayoffMonths(ordering string, months int) {
	if simulatedMonths != nil {
		simulatedMonths.WithLabelValues(ordering).Observe(float64(months))
	}
}
