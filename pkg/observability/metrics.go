package observability

import (
	"context"

	"github.com/aretw0/concierge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts dialogue lifecycle events.
type Metrics struct {
	sessions   *prometheus.CounterVec
	slots      *prometheus.CounterVec
	misses     *prometheus.CounterVec
	escalated  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	active     prometheus.Gauge
	collectors []prometheus.Collector
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "sessions_total",
			Help:      "Form sessions by outcome.",
		}, []string{"form_id", "outcome"}),
		slots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "slots_filled_total",
			Help:      "Field values accepted.",
		}, []string{"form_id", "field_type"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "extraction_failures_total",
			Help:      "Answers in which no value was found.",
		}, []string{"form_id", "field_type"}),
		escalated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "escalations_total",
			Help:      "Turns handed to the responder after repeated misses.",
		}, []string{"form_id"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Name:      "collaborator_failures_total",
			Help:      "Responder and document store failures.",
		}, []string{"collaborator"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "concierge",
			Name:      "sessions_active",
			Help:      "Form sessions started and not yet finished in this process.",
		}),
	}
	m.collectors = []prometheus.Collector{m.sessions, m.slots, m.misses, m.escalated, m.failures, m.active}

	if reg != nil {
		for _, c := range m.collectors {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Collectors returns every collector, for custom registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return m.collectors
}

// Hooks returns lifecycle hooks that update the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) {
			m.sessions.WithLabelValues(e.FormID, "started").Inc()
			m.active.Inc()
		},
		OnSessionComplete: func(_ context.Context, e *domain.SessionEvent) {
			m.sessions.WithLabelValues(e.FormID, "completed").Inc()
			m.active.Dec()
		},
		OnSessionDiscard: func(_ context.Context, e *domain.SessionEvent) {
			m.sessions.WithLabelValues(e.FormID, string(e.Reason)).Inc()
			m.active.Dec()
		},
		OnSlotFilled: func(_ context.Context, e *domain.SlotEvent) {
			m.slots.WithLabelValues(e.FormID, string(e.FieldType)).Inc()
		},
		OnExtractionFailed: func(_ context.Context, e *domain.SlotEvent) {
			m.misses.WithLabelValues(e.FormID, string(e.FieldType)).Inc()
		},
		OnEscalated: func(_ context.Context, e *domain.SlotEvent) {
			m.escalated.WithLabelValues(e.FormID).Inc()
		},
		OnResponderFailed: func(context.Context, *domain.FailureEvent) {
			m.failures.WithLabelValues("responder").Inc()
		},
		OnPersistFailed: func(context.Context, *domain.FailureEvent) {
			m.failures.WithLabelValues("documents").Inc()
		},
	}
}
