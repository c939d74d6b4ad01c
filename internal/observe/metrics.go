package observe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fibload"

// MetricsObserver exports span activity as Prometheus collectors labelled by task name.
type MetricsObserver struct {
	started   *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	active    *prometheus.GaugeVec
	duration  *prometheus.HistogramVec
}

// NewMetricsObserver creates the collectors and registers them with reg.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	f := promauto.With(reg)
	return &MetricsObserver{
		started: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "Total number of tasks that began executing.",
		}, []string{"task"}),
		completed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that finished successfully.",
		}, []string{"task"}),
		failed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that returned an error.",
		}, []string{"task"}),
		active: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_active",
			Help:      "Number of currently executing tasks.",
		}, []string{"task"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution time in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"task"}),
	}
}

func (m *MetricsObserver) Begin(span Span) {
	m.started.WithLabelValues(span.Name).Inc()
	m.active.WithLabelValues(span.Name).Inc()
}

func (m *MetricsObserver) End(span Span, _ any, elapsed time.Duration) {
	m.active.WithLabelValues(span.Name).Dec()
	m.completed.WithLabelValues(span.Name).Inc()
	m.duration.WithLabelValues(span.Name).Observe(elapsed.Seconds())
}

func (m *MetricsObserver) Error(span Span, _ error, elapsed time.Duration) {
	m.active.WithLabelValues(span.Name).Dec()
	m.failed.WithLabelValues(span.Name).Inc()
	m.duration.WithLabelValues(span.Name).Observe(elapsed.Seconds())
}
