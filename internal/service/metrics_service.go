package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/student-insight-api/internal/models"
)

// Analysis outcomes recorded by ObserveAnalysis.
const (
	AnalysisOutcomeSuccess  = "success"
	AnalysisOutcomeBusy     = "busy"
	AnalysisOutcomeFailed   = "failed"
	AnalysisOutcomeDisabled = "disabled"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	sourceDuration  *prometheus.HistogramVec
	sourceFailures  *prometheus.CounterVec
	sourceRows      *prometheus.GaugeVec
	analysisTotal   *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	sourceLoadCount      uint64
	sourceDurationTotal  uint64
	analysisCount        uint64

	mu      sync.Mutex
	sources map[string]*models.SourceStatus
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

	sourceDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "source_load_duration_seconds",
		Help:    "Duration of CSV feed downloads including parsing",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, []string{"source"})

	sourceFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "source_load_failures_total",
		Help: "Total failed CSV feed loads",
	}, []string{"source"})

	sourceRows := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "source_rows",
		Help: "Rows returned by the last successful feed load",
	}, []string{"source"})

	analysisTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_requests_total",
		Help: "Chart analysis requests by outcome",
	}, []string{"chart", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		sourceDuration, sourceFailures, sourceRows, analysisTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		sourceDuration:  sourceDuration,
		sourceFailures:  sourceFailures,
		sourceRows:      sourceRows,
		analysisTotal:   analysisTotal,
		sources:         make(map[string]*models.SourceStatus),
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

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
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
	total := hits + misses
	if total > 0 {
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

// ObserveSourceLoad records one CSV feed download. It satisfies
// csvsource.Observer.
func (m *MetricsService) ObserveSourceLoad(source string, rows int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.sourceDuration.WithLabelValues(source).Observe(duration.Seconds())
	atomic.AddUint64(&m.sourceLoadCount, 1)
	atomic.AddUint64(&m.sourceDurationTotal, uint64(duration.Nanoseconds()))

	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.sources[source]
	if !ok {
		status = &models.SourceStatus{Source: source}
		m.sources[source] = status
	}
	status.Loads++
	status.LastLoad = &now
	if err != nil {
		m.sourceFailures.WithLabelValues(source).Inc()
		status.Failures++
		status.LastErr = err.Error()
		return
	}
	m.sourceRows.WithLabelValues(source).Set(float64(rows))
	status.Rows = rows
	status.LastErr = ""
}

// ObserveAnalysis counts a chart analysis request by outcome.
func (m *MetricsService) ObserveAnalysis(chart, outcome string) {
	if m == nil {
		return
	}
	m.analysisTotal.WithLabelValues(chart, outcome).Inc()
	atomic.AddUint64(&m.analysisCount, 1)
}

// Snapshot returns aggregated metrics suitable for the system endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{Sources: []models.SourceStatus{}}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	loads := atomic.LoadUint64(&m.sourceLoadCount)
	loadDuration := atomic.LoadUint64(&m.sourceDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgLoadMs float64
	if loads > 0 {
		avgLoadMs = float64(loadDuration) / float64(loads) / float64(time.Millisecond)
	}

	m.mu.Lock()
	sources := make([]models.SourceStatus, 0, len(m.sources))
	for _, status := range m.sources {
		sources = append(sources, *status)
	}
	m.mu.Unlock()
	sort.Slice(sources, func(i, j int) bool { return sources[i].Source < sources[j].Source })

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		SourceLoads:              loads,
		AverageSourceLoadMs:      avgLoadMs,
		AnalysisRequests:         atomic.LoadUint64(&m.analysisCount),
		Sources:                  sources,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
