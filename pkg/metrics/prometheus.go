// Package metrics provides Prometheus metrics for the knwatch pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus collectors for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics
	alertsProcessed      prometheus.Counter
	candidatesAccepted   *prometheus.CounterVec
	filterRejected       *prometheus.CounterVec
	crossmatchRejected   prometheus.Counter
	crossmatchAccepted   prometheus.Counter
	batchLatency         prometheus.Histogram
	batchesProcessed     prometheus.Counter
	malformedBatches     prometheus.Counter

	// Notification metrics
	notificationsSent    *prometheus.CounterVec
	notificationsSkipped *prometheus.CounterVec
	notificationsFailed  *prometheus.CounterVec
	webhookLatency       prometheus.Histogram
	dispatchDropped      prometheus.Counter

	// Operational metrics
	queueDepth    prometheus.Gauge
	workerCount   prometheus.Gauge
	catalogSize   prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "knwatch",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.alertsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "alerts_processed_total",
		Help:      "Total number of alerts classified",
	})

	m.candidatesAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "candidates_accepted_total",
		Help:      "Total number of alerts with a true verdict, by rule set",
	}, []string{"ruleset"})

	m.filterRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "filter_rejected_total",
		Help:      "Total number of alerts rejected by the predicate chain, by rule set",
	}, []string{"ruleset"})

	m.crossmatchRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crossmatch_rejected_total",
		Help:      "Total number of alerts that passed the chain but found no host galaxy",
	})

	m.crossmatchAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "crossmatch_accepted_total",
		Help:      "Total number of alerts with an accepted host galaxy",
	})

	m.batchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batch_latency_milliseconds",
		Help:      "Histogram of end-to-end batch classification latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.batchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_processed_total",
		Help:      "Total number of alert batches processed",
	})

	m.malformedBatches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "batches_malformed_total",
		Help:      "Total number of batches rejected before classification",
	})

	m.notificationsSent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_sent_total",
		Help:      "Total number of reports delivered, by channel",
	}, []string{"channel"})

	m.notificationsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_skipped_total",
		Help:      "Total number of channel sends skipped, by channel and reason",
	}, []string{"channel", "reason"})

	m.notificationsFailed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_failed_total",
		Help:      "Total number of webhook deliveries that returned an error, by channel",
	}, []string{"channel"})

	m.webhookLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "webhook_latency_milliseconds",
		Help:      "Histogram of webhook POST latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.dispatchDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_dropped_total",
		Help:      "Total number of reports dropped because the dispatch queue was full",
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_queue_depth",
		Help:      "Current number of reports waiting for dispatch",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_worker_count",
		Help:      "Current number of dispatch workers",
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_entries",
		Help:      "Number of galaxies loaded into the catalog index",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// GetRegistry returns the registry collectors are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers recording on the global manager.

func RecordAlertsProcessed(n int) {
	globalManager.alertsProcessed.Add(float64(n))
}

func RecordCandidateAccepted(ruleset string) {
	globalManager.candidatesAccepted.WithLabelValues(ruleset).Inc()
}

func RecordFilterRejected(ruleset string) {
	globalManager.filterRejected.WithLabelValues(ruleset).Inc()
}

func RecordCrossmatchRejected() {
	globalManager.crossmatchRejected.Inc()
}

func RecordCrossmatchAccepted() {
	globalManager.crossmatchAccepted.Inc()
}

func RecordBatchLatency(ms float64) {
	globalManager.batchLatency.Observe(ms)
}

func RecordBatchProcessed() {
	globalManager.batchesProcessed.Inc()
}

func RecordMalformedBatch() {
	globalManager.malformedBatches.Inc()
}

func RecordNotificationSent(channel string) {
	globalManager.notificationsSent.WithLabelValues(channel).Inc()
}

func RecordNotificationSkipped(channel, reason string) {
	globalManager.notificationsSkipped.WithLabelValues(channel, reason).Inc()
}

func RecordNotificationFailed(channel string) {
	globalManager.notificationsFailed.WithLabelValues(channel).Inc()
}

func RecordWebhookLatency(ms float64) {
	globalManager.webhookLatency.Observe(ms)
}

func RecordDispatchDropped() {
	globalManager.dispatchDropped.Inc()
}

func SetQueueDepth(n int) {
	globalManager.queueDepth.Set(float64(n))
}

func SetWorkerCount(n int) {
	globalManager.workerCount.Set(float64(n))
}

func SetCatalogSize(n int) {
	globalManager.catalogSize.Set(float64(n))
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}
