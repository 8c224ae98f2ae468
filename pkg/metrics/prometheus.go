// Package metrics provides Prometheus metrics for the quizlive relay and sync engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every quizlive collector.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Intent channel
	intentsPushed   *prometheus.CounterVec
	intentsDrained  prometheus.Counter
	intentsApplied  *prometheus.CounterVec
	intentsRejected *prometheus.CounterVec
	intentQueueLen  prometheus.Gauge

	// Snapshot store
	snapshotPublishes prometheus.Counter
	snapshotBytes     prometheus.Gauge
	snapshotVersion   prometheus.Gauge

	// Sync engine
	syncCycleDuration *prometheus.HistogramVec
	syncCyclesSkipped *prometheus.CounterVec
	syncErrors        *prometheus.CounterVec

	// Session
	phaseTransitions *prometheus.CounterVec
	rosterPlayers    prometheus.Gauge
	rosterTeams      prometheus.Gauge
	buzzReaction     prometheus.Histogram
	adjudications    *prometheus.CounterVec
	authAttempts     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // private registry, no default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Configure rebuilds the package recorders on a fresh private registry with
// opts applied. Call it once at startup, before anything records or serves
// /healthz.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// NewManager creates a Manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "quizlive",
		subsystem:        "session",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.intentsPushed = m.counterVec("intents_pushed_total", "Intents appended to the channel by type", "type")
	m.intentsDrained = m.counter("intents_drained_total", "Intents handed to the host by a drain")
	m.intentsApplied = m.counterVec("intents_applied_total", "Intents applied by the host by type", "type")
	m.intentsRejected = m.counterVec("intents_rejected_total", "Intents the host ignored by reason", "reason")
	m.intentQueueLen = m.gauge("intent_queue_length", "Intents currently waiting in the channel")

	m.snapshotPublishes = m.counter("snapshot_publishes_total", "Snapshots written to the store")
	m.snapshotBytes = m.gauge("snapshot_bytes", "Size of the most recent snapshot")
	m.snapshotVersion = m.gauge("snapshot_version", "Version of the most recent snapshot")

	m.syncCycleDuration = m.histogramVec("sync_cycle_duration_milliseconds", "Duration of a poll cycle", m.histogramBuckets, "role")
	m.syncCyclesSkipped = m.counterVec("sync_cycles_skipped_total", "Ticks skipped because a cycle was still running", "role")
	m.syncErrors = m.counterVec("sync_errors_total", "Poll cycles that failed", "role")

	m.phaseTransitions = m.counterVec("phase_transitions_total", "Phase changes by target phase", "phase")
	m.rosterPlayers = m.gauge("roster_players", "Players on the roster")
	m.rosterTeams = m.gauge("roster_teams", "Teams on the roster")
	m.buzzReaction = m.histogram("buzz_reaction_milliseconds", "Time from buzzer open to buzz", []float64{100, 250, 500, 750, 1000, 1500, 2000, 3000, 5000, 10000})
	m.adjudications = m.counterVec("adjudications_total", "Rulings by outcome", "outcome")
	m.authAttempts = m.counterVec("auth_attempts_total", "Login attempts by result", "result")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration", m.histogramBuckets, "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "Average GC pause", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100})
}

// RecordIntentPushed counts an intent appended to the channel.
func RecordIntentPushed(intentType string) {
	globalManager.intentsPushed.WithLabelValues(intentType).Inc()
}

// RecordIntentsDrained counts intents returned by a drain.
func RecordIntentsDrained(n int) {
	globalManager.intentsDrained.Add(float64(n))
}

// RecordIntentApplied counts an intent the host applied.
func RecordIntentApplied(intentType string) {
	globalManager.intentsApplied.WithLabelValues(intentType).Inc()
}

// RecordIntentRejected counts an intent the host ignored.
func RecordIntentRejected(reason string) {
	globalManager.intentsRejected.WithLabelValues(reason).Inc()
}

// UpdateIntentQueueLength sets the channel backlog.
func UpdateIntentQueueLength(n int) {
	globalManager.intentQueueLen.Set(float64(n))
}

// RecordSnapshotPublished records a snapshot write.
func RecordSnapshotPublished(sizeBytes int, version int64) {
	globalManager.snapshotPublishes.Inc()
	globalManager.snapshotBytes.Set(float64(sizeBytes))
	globalManager.snapshotVersion.Set(float64(version))
}

// RecordSyncCycle records the duration of a poll cycle for role.
func RecordSyncCycle(role string, durationMs float64) {
	globalManager.syncCycleDuration.WithLabelValues(role).Observe(durationMs)
}

// RecordSyncCycleSkipped counts a tick dropped because a cycle was in flight.
func RecordSyncCycleSkipped(role string) {
	globalManager.syncCyclesSkipped.WithLabelValues(role).Inc()
}

// RecordSyncError counts a failed poll cycle.
func RecordSyncError(role string) {
	globalManager.syncErrors.WithLabelValues(role).Inc()
}

// RecordPhaseTransition counts a move into phase.
func RecordPhaseTransition(phase string) {
	globalManager.phaseTransitions.WithLabelValues(phase).Inc()
}

// UpdateRoster sets the roster gauges.
func UpdateRoster(players, teams int) {
	globalManager.rosterPlayers.Set(float64(players))
	globalManager.rosterTeams.Set(float64(teams))
}

// RecordBuzzReaction observes a buzz reaction time.
func RecordBuzzReaction(ms int64) {
	globalManager.buzzReaction.Observe(float64(ms))
}

// RecordAdjudication counts a ruling ("correct", "wrong", "rectified").
func RecordAdjudication(outcome string) {
	globalManager.adjudications.WithLabelValues(outcome).Inc()
}

// RecordAuthAttempt counts a login by result ("success", "failure").
func RecordAuthAttempt(result string) {
	globalManager.authAttempts.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request and its duration.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an HTTP error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the private registry backing the package recorders.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
