// Package metrics exposes Prometheus counters for the task mutation and
// notification pipeline.
//
// All methods are safe on a nil *Pipeline, which lets tests and tools build
// services without a registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tasktrail"

// Outcome label values.
const (
	OutcomeApplied = "applied"
	OutcomeNoop    = "noop"
	OutcomeError   = "error"
	OutcomeOK      = "ok"
)

// Pipeline holds the counters shared by the coordinator and the dispatcher.
type Pipeline struct {
	// Mutations counts coordinator calls.
	// Labels: operation (create, update, delete, assign, unassign, comment), outcome
	Mutations *prometheus.CounterVec

	// AuditRecords counts appended audit records by action.
	AuditRecords *prometheus.CounterVec

	// Emissions counts events handed to the notification channel.
	// Labels: event (task.updated, ...), outcome (ok, error)
	Emissions *prometheus.CounterVec

	// Deliveries counts per-recipient deliveries by dispatcher consumer.
	// Labels: consumer (store, push), outcome (ok, error)
	Deliveries *prometheus.CounterVec
}

// New creates the pipeline counters and registers them with reg.
func New(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tasks",
			Name:      "mutations_total",
			Help:      "Task mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		AuditRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "audit",
			Name:      "records_total",
			Help:      "Audit records appended by action.",
		}, []string{"action"}),
		Emissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "emissions_total",
			Help:      "Notification events handed to the channel.",
		}, []string{"event", "outcome"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Per-recipient deliveries by dispatcher consumer.",
		}, []string{"consumer", "outcome"}),
	}
}

// ObserveMutation records one coordinator call.
func (p *Pipeline) ObserveMutation(operation, outcome string) {
	if p == nil {
		return
	}
	p.Mutations.WithLabelValues(operation, outcome).Inc()
}

// ObserveAudit records one appended audit record.
func (p *Pipeline) ObserveAudit(action string) {
	if p == nil {
		return
	}
	p.AuditRecords.WithLabelValues(action).Inc()
}

// ObserveEmission records one hand-off to the notification channel.
func (p *Pipeline) ObserveEmission(event, outcome string) {
	if p == nil {
		return
	}
	p.Emissions.WithLabelValues(event, outcome).Inc()
}

// ObserveDelivery records one per-recipient delivery attempt.
func (p *Pipeline) ObserveDelivery(consumer, outcome string) {
	if p == nil {
		return
	}
	p.Deliveries.WithLabelValues(consumer, outcome).Inc()
}
