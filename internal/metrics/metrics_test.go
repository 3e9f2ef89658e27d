package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCountsEvaluations(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveEvaluation("primary", 120*time.Millisecond)
	r.ObserveEvaluation("fallback", time.Millisecond)
	r.ObserveEvaluation("fallback", time.Millisecond)
	r.Fallback(ReasonTimeout)
	r.Fallback(ReasonUnavailable)
	r.Skipped()
	r.ObserveBatch(time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.evaluations.WithLabelValues("primary")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.evaluations.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues(ReasonTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.skipped))

	count, err := testutil.GatherAndCount(reg, "care_matcher_evaluation_duration_seconds", "care_matcher_batch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder

	assert.NotPanics(t, func() {
		r.ObserveEvaluation("primary", time.Second)
		r.Fallback(ReasonOther)
		r.Skipped()
		r.ObserveBatch(time.Second)
	})
}

func TestNewWithoutRegistry(t *testing.T) {
	r := New(nil)
	r.Fallback(ReasonMalformed)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.fallbacks.WithLabelValues(ReasonMalformed)))
}
