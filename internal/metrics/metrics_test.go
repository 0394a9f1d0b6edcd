package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPipeline_Counters(t *testing.T) {
	p := New(prometheus.NewRegistry())

	p.ObserveMutation("update", OutcomeApplied)
	p.ObserveMutation("update", OutcomeApplied)
	p.ObserveMutation("update", OutcomeNoop)
	p.ObserveAudit("STATUS_CHANGE")
	p.ObserveEmission("task.updated", OutcomeOK)
	p.ObserveDelivery("store", OutcomeError)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.Mutations.WithLabelValues("update", OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Mutations.WithLabelValues("update", OutcomeNoop)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.AuditRecords.WithLabelValues("STATUS_CHANGE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Emissions.WithLabelValues("task.updated", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Deliveries.WithLabelValues("store", OutcomeError)))
}

func TestPipeline_NilIsNoop(t *testing.T) {
	var p *Pipeline
	assert.NotPanics(t, func() {
		p.ObserveMutation("create", OutcomeApplied)
		p.ObserveAudit("CREATED")
		p.ObserveEmission("task.created", OutcomeOK)
		p.ObserveDelivery("push", OutcomeOK)
	})
}
