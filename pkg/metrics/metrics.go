package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every collector exposed on /api/metrics
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// Custom histogram buckets for page renders and upstream calls (milliseconds to tens of seconds)
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Upstream API Metrics (registry, geography)
	UpstreamRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_client_operation_duration_seconds",
			Help:    "Upstream API call duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"service", "operation", "status"},
	)

	UpstreamRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_client_operation_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"service", "operation", "status"},
	)

	// Cache Metrics
	CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_name"},
	)

	CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_name"},
	)

	CacheSize = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Storage Client Metrics (staged uploads)
	StorageRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storage_client_operation_duration_seconds",
			Help:    "Storage client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	StorageRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_client_operation_total",
			Help: "Total number of storage client operations",
		},
		[]string{"operation", "status"},
	)

	// Business Metrics
	RegisterPageViews = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "ecoleta_register_page_views_total",
			Help: "Total number of registration page renders",
		},
	)

	PointSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoleta_point_submissions_total",
			Help: "Total collection point submission attempts",
		},
		[]string{"status"}, // "success", "validation_failed", "registry_error"
	)

	ValidationFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoleta_validation_failures_total",
			Help: "Field-level validation failures by field path",
		},
		[]string{"field"},
	)

	LoadFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecoleta_load_failures_total",
			Help: "Failed list loads shown to the user as notifications",
		},
		[]string{"list"}, // "items", "states", "cities"
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}

// ObserveUpstream records one upstream call in both the histogram and the counter
func ObserveUpstream(service, operation, status string, start time.Time) float64 {
	duration := MeasureDuration(start)
	UpstreamRequestDuration.WithLabelValues(service, operation, status).Observe(duration)
	UpstreamRequestTotal.WithLabelValues(service, operation, status).Inc()
	return duration
}
