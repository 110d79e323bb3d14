package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	slotsGraded    *prometheus.CounterVec
	cleanSweeps    prometheus.Counter
	discrepancies  prometheus.Counter
	pendingResults prometheus.Counter
	gradingErrors  prometheus.Counter

	// Standings
	aggregations       prometheus.Counter
	aggregationLatency prometheus.Histogram
	standingsTeams     prometheus.Gauge
	pagesServed        *prometheus.CounterVec

	// Score-record cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheEntries       prometheus.Gauge

	// Repository
	repositoryQueryLatency *prometheus.HistogramVec
	repositoryDocuments    prometheus.Gauge

	// Loader worker pool
	loaderWorkers prometheus.Gauge
	loaderJobs    prometheus.Counter
	loaderErrors  prometheus.Counter
	loaderLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "prixsix",
		subsystem:        "standings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.slotsGraded = m.counterVec("slots_graded_total", "Prediction slots graded, by grade", "grade")
	m.cleanSweeps = m.counter("clean_sweeps_total", "Predictions that earned the clean sweep bonus")
	m.discrepancies = m.counter("stored_score_discrepancies_total", "Stored totals that disagree with recomputation")
	m.pendingResults = m.counter("pending_results_total", "Team results resolved as awaiting an official result")
	m.gradingErrors = m.counter("grading_errors_total", "Records rejected while grading")

	m.aggregations = m.counter("aggregations_total", "Standings aggregations computed")
	m.aggregationLatency = m.histogram("aggregation_latency_milliseconds", "Standings aggregation latency in milliseconds", m.histogramBuckets)
	m.standingsTeams = m.gauge("teams", "Teams in the most recently computed standings")
	m.pagesServed = m.counterVec("pages_served_total", "Windowed pages served, by view", "view")

	m.cacheHits = m.counter("cache_hits_total", "Score-record cache hits")
	m.cacheMisses = m.counter("cache_misses_total", "Score-record cache misses")
	m.cacheInvalidations = m.counter("cache_invalidations_total", "Score-record cache entries invalidated")
	m.cacheEntries = m.gauge("cache_entries", "Events currently held in the score-record cache")

	m.repositoryQueryLatency = m.histogramVec("repository_query_latency_milliseconds", "Repository query latency in milliseconds", "op")
	m.repositoryDocuments = m.gauge("repository_documents", "Documents written by the last import")

	m.loaderWorkers = m.gauge("loader_workers", "Loader worker pool size")
	m.loaderJobs = m.counter("loader_jobs_total", "Per-event fetch jobs completed")
	m.loaderErrors = m.counter("loader_errors_total", "Per-event fetch jobs that failed")
	m.loaderLatency = m.histogram("loader_job_latency_milliseconds", "Per-event fetch latency in milliseconds", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method, and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Most recent GC pause in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordSlotGraded counts one graded slot.
func RecordSlotGraded(grade string) {
	globalManager.slotsGraded.WithLabelValues(grade).Inc()
}

// RecordCleanSweep counts a clean sweep bonus.
func RecordCleanSweep() {
	globalManager.cleanSweeps.Inc()
}

// RecordDiscrepancy counts a stored-versus-computed mismatch.
func RecordDiscrepancy() {
	globalManager.discrepancies.Inc()
}

// RecordPendingResults counts results still awaiting an official result.
func RecordPendingResults(n int) {
	globalManager.pendingResults.Add(float64(n))
}

// RecordGradingError counts a record rejected while grading.
func RecordGradingError() {
	globalManager.gradingErrors.Inc()
}

// RecordAggregation records one standings aggregation and its latency.
func RecordAggregation(latencyMs float64, teams int) {
	globalManager.aggregations.Inc()
	globalManager.aggregationLatency.Observe(latencyMs)
	globalManager.standingsTeams.Set(float64(teams))
}

// RecordPageServed counts a windowed page for a view.
func RecordPageServed(view string) {
	globalManager.pagesServed.WithLabelValues(view).Inc()
}

// RecordCacheHit counts a cache hit.
func RecordCacheHit() {
	globalManager.cacheHits.Inc()
}

// RecordCacheMiss counts a cache miss.
func RecordCacheMiss() {
	globalManager.cacheMisses.Inc()
}

// RecordCacheInvalidations counts invalidated cache entries.
func RecordCacheInvalidations(n int) {
	globalManager.cacheInvalidations.Add(float64(n))
}

// UpdateCacheEntries sets the number of cached events.
func UpdateCacheEntries(n int) {
	globalManager.cacheEntries.Set(float64(n))
}

// RecordRepositoryQueryLatency records repository query latency for an operation.
func RecordRepositoryQueryLatency(op string, latencyMs float64) {
	globalManager.repositoryQueryLatency.WithLabelValues(op).Observe(latencyMs)
}

// UpdateRepositoryDocuments sets the document count of the last import.
func UpdateRepositoryDocuments(n int) {
	globalManager.repositoryDocuments.Set(float64(n))
}

// UpdateLoaderWorkers sets the loader pool size.
func UpdateLoaderWorkers(n int) {
	globalManager.loaderWorkers.Set(float64(n))
}

// RecordLoaderJob records a completed fetch job.
func RecordLoaderJob(latencyMs float64) {
	globalManager.loaderJobs.Inc()
	globalManager.loaderLatency.Observe(latencyMs)
}

// RecordLoaderError counts a failed fetch job.
func RecordLoaderError() {
	globalManager.loaderErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMetrics samples memory, goroutine, and GC pause figures.
func UpdateSystemMetrics() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	globalManager.systemMemoryUsage.Set(float64(ms.HeapInuse))
	globalManager.systemGoroutineCount.Set(float64(runtime.NumGoroutine()))
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		globalManager.systemGCPauseTime.Observe(float64(last) / 1e6)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
