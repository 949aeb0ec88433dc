// Package metrics provides Prometheus metrics for the CityFix service core.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the CityFix service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// SLA sweep metrics
	sweepsTotal      prometheus.Counter
	sweepChecked     prometheus.Counter
	requestsMarked   prometheus.Counter
	violationsLogged prometheus.Counter
	partialFailures  *prometheus.CounterVec
	sweepDuration    prometheus.Histogram

	// Ranking metrics
	recalcRuns    prometheus.Counter
	scoresUpdated prometheus.Counter
	recalcErrors  prometheus.Counter

	// Request lifecycle metrics
	requestsSubmitted prometheus.Counter
	tasksClaimed      prometheus.Counter
	tasksResolved     prometheus.Counter
	claimConflicts    prometheus.Counter

	// Operational gauges
	overdueRequests prometheus.Gauge
	workersTracked  prometheus.Gauge

	// Notification pipeline metrics
	notificationsEnqueued  prometheus.Counter
	notificationsDropped   prometheus.Counter
	notificationsDelivered prometheus.Counter
	notificationErrors     prometheus.Counter
	notificationQueueSize  prometheus.Gauge

	// Duplicate submission metrics
	duplicateSubmissions prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Store metrics
	storeOpDuration *prometheus.HistogramVec
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
		namespace:        "cityfix",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sweepsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sla_sweeps_total",
		Help:      "Total number of SLA sweep passes executed",
	})

	m.sweepChecked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sla_sweep_candidates_total",
		Help:      "Total number of breach candidates examined across sweeps",
	})

	m.requestsMarked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sla_requests_marked_overdue_total",
		Help:      "Total number of requests flagged overdue",
	})

	m.violationsLogged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sla_violations_recorded_total",
		Help:      "Total number of SLA violation records inserted",
	})

	m.partialFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sla_sweep_partial_failures_total",
			Help:      "Per-step write failures inside a sweep (the sweep itself continues)",
		},
		[]string{"step"},
	)

	m.sweepDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sla_sweep_duration_milliseconds",
		Help:      "Duration of one full sweep pass in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.recalcRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_recalculations_total",
		Help:      "Total number of ranking recalculation passes",
	})

	m.scoresUpdated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_scores_updated_total",
		Help:      "Total number of worker scores persisted by recalculations",
	})

	m.recalcErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ranking_update_errors_total",
		Help:      "Per-worker write failures during recalculation",
	})

	m.requestsSubmitted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "requests_submitted_total",
		Help:      "Total number of citizen reports accepted",
	})

	m.tasksClaimed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_claimed_total",
		Help:      "Total number of tasks claimed by workers",
	})

	m.tasksResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tasks_resolved_total",
		Help:      "Total number of tasks moved to resolved by workers",
	})

	m.claimConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "task_claim_conflicts_total",
		Help:      "Total number of claims rejected because the task was taken",
	})

	m.overdueRequests = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overdue_requests",
		Help:      "Requests currently in overdue status",
	})

	m.workersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "workers_tracked",
		Help:      "Worker profiles visible to the ranking subsystem",
	})

	m.notificationsEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_enqueued_total",
		Help:      "Total number of notifications accepted into the dispatch queue",
	})

	m.notificationsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_dropped_total",
		Help:      "Total number of notifications rejected by a full or closed queue",
	})

	m.notificationsDelivered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifications_delivered_total",
		Help:      "Total number of notifications handed to a sender",
	})

	m.notificationErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_delivery_errors_total",
		Help:      "Total number of failed notification deliveries",
	})

	m.notificationQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notification_queue_size",
		Help:      "Notifications currently waiting for dispatch",
	})

	m.duplicateSubmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "duplicate_submissions_total",
		Help:      "Total number of citizen reports rejected as duplicate resubmits",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
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

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of error responses by endpoint",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.storeOpDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_op_duration_milliseconds",
			Help:      "Backing store operation latency in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"op"},
	)
}

// GetRegistry returns the custom Prometheus registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// --- Package-level recording helpers (global manager) ---

// RecordSweep records one completed sweep pass and its tallies.
func RecordSweep(checked, marked, violations int, elapsed time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.sweepsTotal.Inc()
	globalManager.sweepChecked.Add(float64(checked))
	globalManager.requestsMarked.Add(float64(marked))
	globalManager.violationsLogged.Add(float64(violations))
	globalManager.sweepDuration.Observe(float64(elapsed.Milliseconds()))
}

// RecordSweepPartialFailure records one failed write step inside a sweep.
// step is one of "mark_overdue", "insert_violation", "increment_counter".
func RecordSweepPartialFailure(step string) {
	if !globalManager.enabled {
		return
	}
	globalManager.partialFailures.WithLabelValues(step).Inc()
}

// RecordRecalculation records one recalculation pass.
func RecordRecalculation(updated, failed int) {
	if !globalManager.enabled {
		return
	}
	globalManager.recalcRuns.Inc()
	globalManager.scoresUpdated.Add(float64(updated))
	globalManager.recalcErrors.Add(float64(failed))
}

// RecordRequestSubmitted counts one accepted citizen report.
func RecordRequestSubmitted() {
	if globalManager.enabled {
		globalManager.requestsSubmitted.Inc()
	}
}

// RecordTaskClaimed counts one successful worker claim.
func RecordTaskClaimed() {
	if globalManager.enabled {
		globalManager.tasksClaimed.Inc()
	}
}

// RecordTaskResolved counts one task resolved by its worker.
func RecordTaskResolved() {
	if globalManager.enabled {
		globalManager.tasksResolved.Inc()
	}
}

// RecordClaimConflict counts one claim lost to another worker.
func RecordClaimConflict() {
	if globalManager.enabled {
		globalManager.claimConflicts.Inc()
	}
}

// UpdateOverdueRequests sets the current overdue-request gauge.
func UpdateOverdueRequests(n int) {
	if globalManager.enabled {
		globalManager.overdueRequests.Set(float64(n))
	}
}

// UpdateWorkersTracked sets the tracked-workers gauge.
func UpdateWorkersTracked(n int) {
	if globalManager.enabled {
		globalManager.workersTracked.Set(float64(n))
	}
}

// RecordNotificationEnqueued counts one notification accepted for dispatch.
func RecordNotificationEnqueued() {
	if globalManager.enabled {
		globalManager.notificationsEnqueued.Inc()
	}
}

// RecordNotificationDropped counts one notification lost to backpressure.
func RecordNotificationDropped() {
	if globalManager.enabled {
		globalManager.notificationsDropped.Inc()
	}
}

// RecordNotificationDelivered counts one notification handed to a sender.
func RecordNotificationDelivered() {
	if globalManager.enabled {
		globalManager.notificationsDelivered.Inc()
	}
}

// RecordNotificationError counts one failed delivery.
func RecordNotificationError() {
	if globalManager.enabled {
		globalManager.notificationErrors.Inc()
	}
}

// UpdateNotificationQueueSize sets the pending-notification gauge.
func UpdateNotificationQueueSize(n int) {
	if globalManager.enabled {
		globalManager.notificationQueueSize.Set(float64(n))
	}
}

// RecordDuplicateSubmission counts one rejected duplicate resubmit.
func RecordDuplicateSubmission() {
	if globalManager.enabled {
		globalManager.duplicateSubmissions.Inc()
	}
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager.enabled {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records the duration of one HTTP request.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if globalManager.enabled {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint records an error response for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if globalManager.enabled {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// ObserveStoreOp records the latency of one backing-store operation.
func ObserveStoreOp(op string, elapsed time.Duration) {
	if globalManager.enabled {
		globalManager.storeOpDuration.WithLabelValues(op).Observe(float64(elapsed.Milliseconds()))
	}
}
