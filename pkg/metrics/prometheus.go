// Package metrics provides Prometheus metrics for the credit engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// defaultLatencyBuckets spans 1ms to about 8s; every latency is recorded in
// milliseconds.
var defaultLatencyBuckets = prometheus.ExponentialBuckets(1, 2, 14) //nolint:gochecknoglobals // read-only bucket layout

// Manager manages all Prometheus metrics for the credit engine.
type Manager struct {
	namespace        string
	subsystem        string
	latencyBuckets []float64
	enabled        bool
	customLabels   map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Core Business Metrics - evaluations and their outcomes
	evaluations       *prometheus.CounterVec
	evaluationLatency *prometheus.HistogramVec
	creditLimits      prometheus.Histogram
	creditHealthScore prometheus.Histogram
	populationSize    *prometheus.GaugeVec

	// Population Cache Metrics - snapshot reuse and degradation
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheStale  *prometheus.CounterVec

	// Snapshot Metrics - population snapshot timings
	snapshotRebuildDuration prometheus.Histogram
	snapshotLastUnix        prometheus.Gauge
	snapshotCount           prometheus.Counter

	// Store Metrics - transactional store reads
	storeQueryLatency *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec
	breakerState      *prometheus.GaugeVec

	// Batch Metrics - recalculation worker pool
	batchJobs       *prometheus.CounterVec
	batchWorkers    prometheus.Gauge
	batchJobLatency prometheus.Histogram

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Enhanced Error Metrics - Detailed error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "credit",
		subsystem:        "engine",
		latencyBuckets: defaultLatencyBuckets,
		enabled:        true,
		customLabels:   make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}
	if !m.enabled {
		// collect into a registry nobody scrapes
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	latency := m.latencyBuckets

	// Core Business Metrics
	m.evaluations = m.counterVec("evaluations_total",
		"Total number of evaluations by operation and outcome", "operation", "outcome")
	m.evaluationLatency = m.histogramVec("evaluation_latency_milliseconds",
		"Evaluation latency in milliseconds", latency, "operation")
	m.creditLimits = m.histogram("credit_limit_dollars",
		"Distribution of issued credit limits",
		[]float64{1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000, 500000})
	m.creditHealthScore = m.histogram("credit_health_score",
		"Distribution of credit health scores",
		prometheus.LinearBuckets(10, 10, 10))
	m.populationSize = m.gaugeVec("population_size",
		"Clients in the latest population snapshot per metric", "metric")

	// Population Cache Metrics
	m.cacheHits = m.counterVec("population_cache_hits_total",
		"Population reads served from a fresh snapshot", "metric")
	m.cacheMisses = m.counterVec("population_cache_misses_total",
		"Population reads that needed a refresh", "metric")
	m.cacheStale = m.counterVec("population_cache_stale_total",
		"Population reads served from a stale snapshot after a failed refresh", "metric")

	// Snapshot Metrics
	m.snapshotRebuildDuration = m.histogram("snapshot_rebuild_duration_milliseconds",
		"Time to read a population snapshot from the store", latency)
	m.snapshotLastUnix = m.gauge("snapshot_last_unix",
		"Unix time of the last published population snapshot")
	m.snapshotCount = m.counter("snapshot_count_total",
		"Total number of published population snapshots")

	// Store Metrics
	m.storeQueryLatency = m.histogramVec("store_query_latency_milliseconds",
		"Store query latency in milliseconds", latency, "operation")
	m.storeErrors = m.counterVec("store_errors_total",
		"Store errors by operation and kind", "operation", "kind")
	m.breakerState = m.gaugeVec("store_breaker_state",
		"Circuit breaker state (0 closed, 1 half-open, 2 open)", "name")

	// Batch Metrics
	m.batchJobs = m.counterVec("batch_jobs_total",
		"Batch recalculation jobs by outcome", "outcome")
	m.batchWorkers = m.gauge("batch_workers",
		"Configured batch worker count")
	m.batchJobLatency = m.histogram("batch_job_latency_milliseconds",
		"Batch job latency in milliseconds", latency)

	// HTTP Performance Metrics
	m.httpRequests = m.counterVec("http_requests_total",
		"Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", latency, "endpoint", "method", "status_code")

	// Enhanced Error Metrics
	m.errorRateByComponent = m.counterVec("errors_by_component_total",
		"Errors by component and error type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total",
		"Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total",
		"Errors by endpoint, method and error type", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds",
		"Latency of failed operations in milliseconds", latency, "component", "error_type")

	// System Performance Metrics
	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes",
		"System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count",
		"Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEvaluation counts one evaluation outcome.
func RecordEvaluation(operation, outcome string) {
	globalManager.evaluations.WithLabelValues(operation, outcome).Inc()
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(operation string, latencyMs float64) {
	globalManager.evaluationLatency.WithLabelValues(operation).Observe(latencyMs)
}

// ObserveCreditLimit records an issued credit limit.
func ObserveCreditLimit(limit float64) {
	globalManager.creditLimits.Observe(limit)
}

// ObserveCreditHealthScore records a computed credit health score.
func ObserveCreditHealthScore(score float64) {
	globalManager.creditHealthScore.Observe(score)
}

// UpdatePopulationSize sets the population size of a metric.
func UpdatePopulationSize(metric string, size int) {
	globalManager.populationSize.WithLabelValues(metric).Set(float64(size))
}

// RecordCacheHit counts a fresh population snapshot read.
func RecordCacheHit(metric string) {
	globalManager.cacheHits.WithLabelValues(metric).Inc()
}

// RecordCacheMiss counts a population read that needed a refresh.
func RecordCacheMiss(metric string) {
	globalManager.cacheMisses.WithLabelValues(metric).Inc()
}

// RecordCacheStale counts a stale population snapshot read.
func RecordCacheStale(metric string) {
	globalManager.cacheStale.WithLabelValues(metric).Inc()
}

// RecordSnapshotRebuildDuration records how long a population read took.
func RecordSnapshotRebuildDuration(durationMs float64) {
	globalManager.snapshotRebuildDuration.Observe(durationMs)
}

// IncrementSnapshotCount counts a published snapshot and stamps its time.
func IncrementSnapshotCount() {
	globalManager.snapshotCount.Inc()
	globalManager.snapshotLastUnix.Set(float64(time.Now().Unix()))
}

// RecordStoreQueryLatency records store query latency in milliseconds.
func RecordStoreQueryLatency(operation string, latencyMs float64) {
	globalManager.storeQueryLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a store error.
func RecordStoreError(operation, kind string) {
	globalManager.storeErrors.WithLabelValues(operation, kind).Inc()
}

// UpdateBreakerState sets the circuit breaker state.
func UpdateBreakerState(name string, state int) {
	globalManager.breakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBatchJob counts a batch job outcome.
func RecordBatchJob(outcome string) {
	globalManager.batchJobs.WithLabelValues(outcome).Inc()
}

// UpdateBatchWorkers sets the batch worker count.
func UpdateBatchWorkers(count int) {
	globalManager.batchWorkers.Set(float64(count))
}

// RecordBatchJobLatency records batch job latency in milliseconds.
func RecordBatchJobLatency(latencyMs float64) {
	globalManager.batchJobLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage updates the system memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
