// Package metrics provides Prometheus metrics for the pyramid league service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Manager owns every metric the service exports.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Engine
	engineRuns        *prometheus.CounterVec
	engineRunDuration prometheus.Histogram
	recordsIngested   prometheus.Counter
	climbersScored    prometheus.Gauge
	warnings          *prometheus.CounterVec

	// Siege
	castleHP          *prometheus.GaugeVec
	castleAttackCount *prometheus.GaugeVec
	castlesDepleted   prometheus.Gauge

	// Snapshot intake
	snapshotsSubmitted *prometheus.CounterVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker
	workerActive            prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Leaderboard
	leaderboardSize         prometheus.Gauge
	leaderboardQueryLatency prometheus.Histogram

	// Exports
	exports *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pyramid",
		subsystem:        "league",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gauge(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogram(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: m.histogramBuckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.engineRuns = auto.NewCounterVec(m.counter("engine_runs_total", "Engine runs by outcome"), []string{"status"})
	m.engineRunDuration = auto.NewHistogram(m.histogram("engine_run_duration_milliseconds", "Full engine run duration in milliseconds"))
	m.recordsIngested = auto.NewCounter(m.counter("records_ingested_total", "Climb records read from snapshots"))
	m.climbersScored = auto.NewGauge(m.gauge("climbers_scored", "Climbers in the latest result"))
	m.warnings = auto.NewCounterVec(m.counter("warnings_total", "Skipped or coerced records by stage and kind"), []string{"stage", "kind"})

	m.castleHP = auto.NewGaugeVec(m.gauge("castle_hp", "Current castle HP after the latest run"), []string{"castle"})
	m.castleAttackCount = auto.NewGaugeVec(m.gauge("castle_attacks", "Attacks applied to a castle in the latest run"), []string{"castle"})
	m.castlesDepleted = auto.NewGauge(m.gauge("castles_depleted", "Castles at zero HP after the latest run"))

	m.snapshotsSubmitted = auto.NewCounterVec(m.counter("snapshots_submitted_total", "Snapshot submissions by outcome"), []string{"outcome"})

	m.queueSize = auto.NewGauge(m.gauge("queue_size", "Snapshots waiting to be computed"))
	m.queueCapacity = auto.NewGauge(m.gauge("queue_capacity", "Maximum queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gauge("queue_utilization_ratio", "Queue size over capacity"))
	m.queueEnqueued = auto.NewCounter(m.counter("queue_enqueue_total", "Snapshots enqueued"))
	m.queueDequeued = auto.NewCounter(m.counter("queue_dequeue_total", "Snapshots dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counter("queue_enqueue_errors_total", "Snapshots rejected by a full or closed queue"))

	m.workerActive = auto.NewGauge(m.gauge("worker_active_count", "Workers currently computing"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogram("worker_processing_latency_milliseconds", "Time from dequeue to published result"))
	m.workerErrors = auto.NewCounter(m.counter("worker_errors_total", "Snapshots the worker could not compute"))

	m.leaderboardSize = auto.NewGauge(m.gauge("leaderboard_size", "Climbers on the leaderboard"))
	m.leaderboardQueryLatency = auto.NewHistogram(m.histogram("leaderboard_query_latency_milliseconds", "Leaderboard query latency"))

	m.exports = auto.NewCounterVec(m.counter("exports_total", "Report exports by format"), []string{"format"})

	m.httpRequests = auto.NewCounterVec(m.counter("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogram("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(m.gauge("system_memory_usage_bytes", "Heap allocation in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gauge("system_goroutine_count", "Number of goroutines"))
}

// Engine

// RecordEngineRun counts a run and observes its duration.
func RecordEngineRun(status string, durationMs float64) {
	globalManager.engineRuns.WithLabelValues(status).Inc()
	globalManager.engineRunDuration.Observe(durationMs)
}

// RecordRecordsIngested adds n climb records.
func RecordRecordsIngested(n int) {
	globalManager.recordsIngested.Add(float64(n))
}

// UpdateClimbersScored sets the climber count of the latest result.
func UpdateClimbersScored(n int) {
	globalManager.climbersScored.Set(float64(n))
}

// RecordWarnings adds n warnings for stage and kind.
func RecordWarnings(stage, kind string, n int) {
	globalManager.warnings.WithLabelValues(stage, kind).Add(float64(n))
}

// Siege

// UpdateCastle publishes a castle's HP and attack count.
func UpdateCastle(castle string, hp, attacks int) {
	globalManager.castleHP.WithLabelValues(castle).Set(float64(hp))
	globalManager.castleAttackCount.WithLabelValues(castle).Set(float64(attacks))
}

// ResetCastles drops per-castle series before a new result is published.
func ResetCastles() {
	globalManager.castleHP.Reset()
	globalManager.castleAttackCount.Reset()
}

// UpdateCastlesDepleted sets the number of depleted castles.
func UpdateCastlesDepleted(n int) {
	globalManager.castlesDepleted.Set(float64(n))
}

// Snapshot intake

// RecordSnapshotSubmitted counts a submission by outcome.
func RecordSnapshotSubmitted(outcome string) {
	globalManager.snapshotsSubmitted.WithLabelValues(outcome).Inc()
}

// Queue

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
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency records dequeue-to-publish latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Leaderboard

// UpdateLeaderboardSize sets the number of ranked climbers.
func UpdateLeaderboardSize(n int) {
	globalManager.leaderboardSize.Set(float64(n))
}

// RecordLeaderboardQueryLatency records a leaderboard read.
func RecordLeaderboardQueryLatency(latencyMs float64) {
	globalManager.leaderboardQueryLatency.Observe(latencyMs)
}

// RecordExport counts a report export.
func RecordExport(format string) {
	globalManager.exports.WithLabelValues(format).Inc()
}

// HTTP

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// System

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Value reads the current value of a counter or gauge from g. name is the
// fully qualified metric name; every label in labels must match.
func Value(g prometheus.Gatherer, name string, labels map[string]string) (float64, error) {
	families, err := g.Gather()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrObserveFailed, err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, mt := range f.GetMetric() {
			if !matches(mt, labels) {
				continue
			}
			switch {
			case mt.GetCounter() != nil:
				return mt.GetCounter().GetValue(), nil
			case mt.GetGauge() != nil:
				return mt.GetGauge().GetValue(), nil
			case mt.GetHistogram() != nil:
				return float64(mt.GetHistogram().GetSampleCount()), nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMetricNotFound, name)
}

func matches(mt *dto.Metric, labels map[string]string) bool {
	have := make(map[string]string, len(mt.GetLabel()))
	for _, lp := range mt.GetLabel() {
		have[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if have[k] != v {
			return false
		}
	}
	return true
}
