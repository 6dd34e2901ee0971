package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for engine runs. With collection
// disabled every recording method is a no-op.
type Metrics struct {
	config MetricsConfig

	tasksExecuted *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec

	resourcesChanged   *prometheus.CounterVec
	resourcesAlreadyOK *prometheus.CounterVec
	resourcesSkipped   *prometheus.CounterVec

	runsCompleted *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector from the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		tasksExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed, by outcome",
			},
			[]string{"task", "outcome"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Duration of task execution in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task"},
		),
		resourcesChanged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_changed_total",
				Help:      "Total number of resources changed, by task",
			},
			[]string{"task"},
		),
		resourcesAlreadyOK: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_already_ok_total",
				Help:      "Total number of resources found already correct, by task",
			},
			[]string{"task"},
		),
		resourcesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resources_skipped_total",
				Help:      "Total number of resources skipped, by task",
			},
			[]string{"task"},
		),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of runs completed, by status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.tasksExecuted,
		m.taskDuration,
		m.resourcesChanged,
		m.resourcesAlreadyOK,
		m.resourcesSkipped,
		m.runsCompleted,
	)

	return m, nil
}

// RecordTask records one task execution outcome and duration.
func (m *Metrics) RecordTask(task, outcome string, seconds float64) {
	if m == nil || m.tasksExecuted == nil {
		return
	}
	m.tasksExecuted.WithLabelValues(task, outcome).Inc()
	m.taskDuration.WithLabelValues(task).Observe(seconds)
}

// RecordReconcile records the counters from one reconciliation pass.
func (m *Metrics) RecordReconcile(task string, changed, alreadyOK, skipped uint) {
	if m == nil || m.resourcesChanged == nil {
		return
	}
	m.resourcesChanged.WithLabelValues(task).Add(float64(changed))
	m.resourcesAlreadyOK.WithLabelValues(task).Add(float64(alreadyOK))
	m.resourcesSkipped.WithLabelValues(task).Add(float64(skipped))
}

// RecordRun records one completed run by status.
func (m *Metrics) RecordRun(status string) {
	if m == nil || m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
}

// Handler returns the HTTP handler exposing the registry, or nil when
// collection is disabled.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
