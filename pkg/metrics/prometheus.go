// Package metrics provides Prometheus metrics for the auralearn service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Pipeline metrics
	pipelineRuns      *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
	recoveryOutcomes  *prometheus.CounterVec
	groundingFailures *prometheus.CounterVec
	refinements       *prometheus.CounterVec

	// Gateway metrics
	gatewayCalls   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec

	// Repository metrics
	storedPaths  prometheus.Gauge
	pathCommits  prometheus.Counter
	proposals    prometheus.Counter
	staleCommits prometheus.Counter

	// Job metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	jobsProcessed      *prometheus.CounterVec
	jobsDuplicate      prometheus.Counter
	jobLatency         prometheus.Histogram

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System metrics
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

// latencyBuckets suit gateway round-trips, which are dominated by model latency.
var latencyBuckets = []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "auralearn",
		subsystem:        "pipeline",
		histogramBuckets: latencyBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.pipelineRuns = m.counterVec("runs_total", "Total pipeline runs by terminal status", "status")
	m.stageDuration = m.histogramVec("stage_duration_milliseconds", "Duration of each pipeline stage", m.histogramBuckets, "stage")
	m.recoveryOutcomes = m.counterVec("recovery_outcomes_total", "Structured output recovery outcomes by stage", "stage", "outcome")
	m.groundingFailures = m.counterVec("grounding_failures_total", "Runs terminated as insufficient_knowledge by reason", "reason")
	m.refinements = m.counterVec("refinements_total", "Feedback refinements by mode", "mode")

	m.gatewayCalls = m.counterVec("gateway_calls_total", "Calls to external gateways by gateway and result", "gateway", "result")
	m.gatewayLatency = m.histogramVec("gateway_latency_milliseconds", "Gateway round-trip latency", m.histogramBuckets, "gateway")

	m.storedPaths = m.gauge("stored_paths", "Learning paths held by the repository")
	m.pathCommits = m.counter("path_commits_total", "Refined paths committed as current")
	m.proposals = m.counter("path_proposals_total", "Refined paths stored as pending proposals")
	m.staleCommits = m.counter("path_stale_commits_total", "Commits rejected because the path moved on")

	m.queueSize = m.gauge("queue_size", "Current size of the job queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum capacity of the job queue")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Jobs enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Jobs rejected by the queue")
	m.workerCount = m.gauge("worker_count", "Number of job workers")
	m.jobsProcessed = m.counterVec("jobs_processed_total", "Jobs processed by outcome", "outcome")
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Duplicate job submissions")
	m.jobLatency = m.histogram("job_latency_milliseconds", "End-to-end job processing latency", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets, "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// Pipeline Metrics Functions.

// RecordPipelineRun counts a finished run by status.
func RecordPipelineRun(status string) {
	globalManager.pipelineRuns.WithLabelValues(status).Inc()
}

// RecordStageDuration records how long a stage took in milliseconds.
func RecordStageDuration(stage string, durationMs float64) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(durationMs)
}

// RecordRecoveryOutcome counts a structured output recovery outcome for a stage.
func RecordRecoveryOutcome(stage, outcome string) {
	globalManager.recoveryOutcomes.WithLabelValues(stage, outcome).Inc()
}

// RecordGroundingFailure counts an insufficient_knowledge termination.
func RecordGroundingFailure(reason string) {
	globalManager.groundingFailures.WithLabelValues(reason).Inc()
}

// RecordRefinement counts a refinement by mode (generative or fallback).
func RecordRefinement(mode string) {
	globalManager.refinements.WithLabelValues(mode).Inc()
}

// Gateway Metrics Functions.

// RecordGatewayCall counts a gateway call by result (ok, empty, error).
func RecordGatewayCall(gateway, result string) {
	globalManager.gatewayCalls.WithLabelValues(gateway, result).Inc()
}

// RecordGatewayLatency records a gateway round-trip in milliseconds.
func RecordGatewayLatency(gateway string, latencyMs float64) {
	globalManager.gatewayLatency.WithLabelValues(gateway).Observe(latencyMs)
}

// Repository Metrics Functions.

// UpdateStoredPaths sets the number of stored learning paths.
func UpdateStoredPaths(count int) {
	globalManager.storedPaths.Set(float64(count))
}

// RecordPathCommit counts a committed refinement.
func RecordPathCommit() {
	globalManager.pathCommits.Inc()
}

// RecordPathProposal counts a stored refinement proposal.
func RecordPathProposal() {
	globalManager.proposals.Inc()
}

// RecordStaleCommit counts a commit rejected as stale.
func RecordStaleCommit() {
	globalManager.staleCommits.Inc()
}

// Queue and Worker Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordJobProcessed counts a processed job by outcome.
func RecordJobProcessed(outcome string) {
	globalManager.jobsProcessed.WithLabelValues(outcome).Inc()
}

// RecordJobDuplicate counts a duplicate job submission.
func RecordJobDuplicate() {
	globalManager.jobsDuplicate.Inc()
}

// RecordJobLatency records job latency in milliseconds.
func RecordJobLatency(latencyMs float64) {
	globalManager.jobLatency.Observe(latencyMs)
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
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
