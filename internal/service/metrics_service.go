package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer,
// the eligibility cache and the registration and grading paths.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	registrationItems *prometheus.CounterVec
	allocationLatency prometheus.Observer
	unrecognized      prometheus.Counter
	finalizations     prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
	requestCount   uint64
	itemCount      uint64
	failedCount    uint64
}

// MetricsSnapshot is a lightweight view of the counters for the health endpoint.
type MetricsSnapshot struct {
	RequestsTotal     uint64    `json:"requests_total"`
	CacheHitRatio     float64   `json:"cache_hit_ratio"`
	RegistrationItems uint64    `json:"registration_items"`
	RegistrationFails uint64    `json:"registration_failures"`
	Goroutines        int       `json:"goroutines"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	registrationItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "registration_items_total",
		Help: "Registration batch items by outcome",
	}, []string{"outcome"})

	allocationLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "registration_allocation_seconds",
		Help:    "Duration of single-item section allocations",
		Buckets: prometheus.DefBuckets,
	})

	unrecognized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grading_unrecognized_grades_total",
		Help: "Letter grades skipped during GPA aggregation",
	})

	finalizations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gpa_finalizations_total",
		Help: "Student terms whose GPA was recomputed",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		registrationItems, allocationLatency, unrecognized, finalizations, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		registrationItems: registrationItems,
		allocationLatency: allocationLatency,
		unrecognized:      unrecognized,
		finalizations:     finalizations,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordRegistrationItem counts a processed batch item. Failures are labelled
// with their error code, successes with the allocation result.
func (m *MetricsService) RecordRegistrationItem(outcome string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.registrationItems.WithLabelValues(outcome).Inc()
	m.allocationLatency.Observe(duration.Seconds())
	atomic.AddUint64(&m.itemCount, 1)
	if failed {
		atomic.AddUint64(&m.failedCount, 1)
	}
}

// RecordUnrecognizedGrades counts letters skipped during aggregation.
func (m *MetricsService) RecordUnrecognizedGrades(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unrecognized.Add(float64(n))
}

// RecordFinalization counts one recomputed student term.
func (m *MetricsService) RecordFinalization() {
	if m == nil {
		return
	}
	m.finalizations.Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	return MetricsSnapshot{
		RequestsTotal:     atomic.LoadUint64(&m.requestCount),
		CacheHitRatio:     ratio,
		RegistrationItems: atomic.LoadUint64(&m.itemCount),
		RegistrationFails: atomic.LoadUint64(&m.failedCount),
		Goroutines:        runtime.NumGoroutine(),
		GeneratedAt:       time.Now().UTC(),
	}
}
