// Package metrics provides Prometheus metrics for the gridlake lander.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the lander.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Discovery
	catalogFetches    *prometheus.CounterVec
	catalogResources  prometheus.Gauge
	resolvedResources prometheus.Gauge

	// Per-resource processing
	resourceDownloads *prometheus.CounterVec
	downloadLatency   prometheus.Histogram
	parseFailures     *prometheus.CounterVec
	recordsEmitted    prometheus.Counter
	recordsDropped    *prometheus.CounterVec

	// Landing
	sinkUploads   *prometheus.CounterVec
	sinkLatency   *prometheus.HistogramVec
	notifications *prometheus.CounterVec

	// Pipeline
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	ledgerErrors     *prometheus.CounterVec

	// Warehouse load queue and workers
	warehouseLoads          *prometheus.CounterVec
	warehouseRows           prometheus.Counter
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueUtilization        prometheus.Gauge
	queueEnqueueRate        prometheus.Counter
	queueDequeueRate        prometheus.Counter
	queueEnqueueErrors      prometheus.Counter
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP
	httpRequests         *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "gridlake",
		subsystem:        "lander",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help, ConstLabels: m.customLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	m.catalogFetches = m.counterVec("catalog_fetches_total", "Catalog fetches by result", "result")
	m.catalogResources = m.gauge("catalog_resources", "Resources listed by the last catalog fetch")
	m.resolvedResources = m.gauge("resolved_resources", "Resources selected for the last run")

	m.resourceDownloads = m.counterVec("resource_downloads_total", "Resource downloads by result", "result")
	m.downloadLatency = m.histogram("download_latency_milliseconds", "Resource download latency in milliseconds")
	m.parseFailures = m.counterVec("parse_failures_total", "Resources that could not be decoded, by format", "format")
	m.recordsEmitted = m.counter("records_emitted_total", "Normalized records returned by units")
	m.recordsDropped = m.counterVec("records_dropped_total", "Rows dropped during normalization, by reason", "reason")

	m.sinkUploads = m.counterVec("sink_uploads_total", "Artifact uploads by backend and result", "backend", "result")
	m.sinkLatency = m.histogramVec("sink_latency_milliseconds", "Artifact upload latency in milliseconds", "backend")
	m.notifications = m.counterVec("notifications_total", "Upload notifications by result", "result")

	m.pipelineRuns = m.counterVec("pipeline_runs_total", "Pipeline invocations by result", "result")
	m.pipelineDuration = m.histogram("pipeline_duration_milliseconds", "Pipeline wall time in milliseconds")
	m.ledgerErrors = m.counterVec("ledger_errors_total", "Run ledger failures by operation", "op")

	m.warehouseLoads = m.counterVec("warehouse_loads_total", "Warehouse load jobs by result", "result")
	m.warehouseRows = m.counter("warehouse_rows_total", "Rows copied into the warehouse")
	m.queueSize = m.gauge("queue_size", "Current size of the warehouse load queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum warehouse load queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Warehouse load queue utilization ratio")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Load jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Load jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Load jobs rejected by the queue")
	m.workerActiveCount = m.gauge("worker_active_count", "Warehouse load workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Load job processing latency in milliseconds")
	m.workerErrorRate = m.counter("worker_errors_total", "Load jobs that failed in a worker")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")
	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type",
		"component", "error_type")
}

// Discovery.

// RecordCatalogFetch counts a catalog fetch with its result (ok, transport, status, decode).
func RecordCatalogFetch(result string) {
	globalManager.catalogFetches.WithLabelValues(result).Inc()
}

// UpdateCatalogResources sets the number of resources listed by the catalog.
func UpdateCatalogResources(count int) {
	globalManager.catalogResources.Set(float64(count))
}

// UpdateResolvedResources sets the number of resources selected for a run.
func UpdateResolvedResources(count int) {
	globalManager.resolvedResources.Set(float64(count))
}

// Per-resource processing.

// RecordResourceDownload counts a download with its result.
func RecordResourceDownload(result string) {
	globalManager.resourceDownloads.WithLabelValues(result).Inc()
}

// RecordDownloadLatency records a download latency.
func RecordDownloadLatency(latencyMs float64) {
	globalManager.downloadLatency.Observe(latencyMs)
}

// RecordParseFailure counts a resource that failed to decode.
func RecordParseFailure(format string) {
	globalManager.parseFailures.WithLabelValues(format).Inc()
}

// RecordRecordsEmitted adds to the emitted record counter.
func RecordRecordsEmitted(count int) {
	globalManager.recordsEmitted.Add(float64(count))
}

// RecordRecordsDropped adds to the dropped row counter for reason.
func RecordRecordsDropped(reason string, count int) {
	if count > 0 {
		globalManager.recordsDropped.WithLabelValues(reason).Add(float64(count))
	}
}

// Landing.

// RecordSinkUpload counts an upload per backend and result.
func RecordSinkUpload(backend, result string) {
	globalManager.sinkUploads.WithLabelValues(backend, result).Inc()
}

// RecordSinkLatency records upload latency per backend.
func RecordSinkLatency(backend string, latencyMs float64) {
	globalManager.sinkLatency.WithLabelValues(backend).Observe(latencyMs)
}

// RecordNotification counts an upload notification with its result.
func RecordNotification(result string) {
	globalManager.notifications.WithLabelValues(result).Inc()
}

// Pipeline.

// RecordPipelineRun counts a pipeline invocation with its result.
func RecordPipelineRun(result string) {
	globalManager.pipelineRuns.WithLabelValues(result).Inc()
}

// RecordPipelineDuration records pipeline wall time.
func RecordPipelineDuration(latencyMs float64) {
	globalManager.pipelineDuration.Observe(latencyMs)
}

// RecordLedgerError counts a run ledger failure.
func RecordLedgerError(op string) {
	globalManager.ledgerErrors.WithLabelValues(op).Inc()
}

// Warehouse.

// RecordWarehouseLoad counts a load job with its result.
func RecordWarehouseLoad(result string) {
	globalManager.warehouseLoads.WithLabelValues(result).Inc()
}

// RecordWarehouseRows adds to the copied row counter.
func RecordWarehouseRows(count int) {
	globalManager.warehouseRows.Add(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request with endpoint, method, and status code.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
