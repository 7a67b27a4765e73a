package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/breadboard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the simulator collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Passes           *prometheus.CounterVec
	StabilizePasses  prometheus.Histogram
	Unstable         prometheus.Counter
	EnumerateSeconds prometheus.Histogram
	Slots            prometheus.Counter
	EnumerateErrors  prometheus.Counter
}

// NewMetrics creates and registers the collectors, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "breadboard_evaluation_passes_total",
				Help: "Total number of evaluation passes over a circuit",
			},
			[]string{"mode"},
		),
		StabilizePasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "breadboard_stabilize_passes",
			Help:    "Passes needed to reach a fixed point",
			Buckets: prometheus.ExponentialBuckets(1, 2, 9),
		}),
		Unstable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breadboard_stabilize_unstable_total",
			Help: "Stabilizations that exhausted their pass budget",
		}),
		EnumerateSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "breadboard_truth_table_duration_seconds",
			Help: "Duration of truth table enumerations",
		}),
		Slots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breadboard_truth_table_slots_total",
			Help: "Truth table slots computed",
		}),
		EnumerateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "breadboard_truth_table_errors_total",
			Help: "Truth table enumerations that failed",
		}),
	}
	m.registry.MustRegister(
		m.Passes, m.StabilizePasses, m.Unstable,
		m.EnumerateSeconds, m.Slots, m.EnumerateErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPass: func(_ context.Context, e *domain.PassEvent) {
			m.Passes.WithLabelValues(string(e.Mode)).Inc()
		},
		OnStabilize: func(_ context.Context, e *domain.StabilizeEvent) {
			if !e.Stable {
				m.Unstable.Inc()
				return
			}
			m.StabilizePasses.Observe(float64(e.Passes))
		},
		OnEnumerate: func(_ context.Context, e *domain.EnumerateEvent) {
			if e.Err != nil {
				m.EnumerateErrors.Inc()
				return
			}
			m.EnumerateSeconds.Observe(e.Duration.Seconds())
			m.Slots.Add(float64(e.Slots))
		},
	}
}
