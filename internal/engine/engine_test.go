package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/care-matcher/internal/ai"
	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/matching/heuristic"
	"github.com/spigell/care-matcher/internal/matching/llm"
	"github.com/spigell/care-matcher/internal/metrics"
)

type stubScorer struct {
	result matching.Result
	err    error
	calls  int
}

func (s *stubScorer) Score(context.Context, *matching.CareRecipientProfile, *matching.CaregiverCandidate) (matching.Result, error) {
	s.calls++
	return s.result, s.err
}

// scriptedEvaluator returns a record with a fixed overall score per candidate id.
type scriptedEvaluator struct {
	scores map[string]int
	panics map[string]bool
	order  []string
}

func (s *scriptedEvaluator) Evaluate(_ context.Context, _ *matching.CareRecipientProfile, c *matching.CaregiverCandidate) *matching.MatchRecord {
	s.order = append(s.order, c.ID)
	if s.panics[c.ID] {
		panic("boom")
	}
	return matching.NewRecord(c, matching.Result{
		Score: matching.MatchScore{Overall: s.scores[c.ID]},
	}, matching.SourceFallback)
}

func recipient() *matching.CareRecipientProfile {
	return &matching.CareRecipientProfile{
		Name:            "Rosa",
		Age:             84,
		Location:        "Miraflores, Lima",
		Comorbidities:   "Diabetes tipo 2, hipertensión",
		MobilityLevel:   3,
		CognitiveStatus: matching.CognitiveMild,
		AssistanceTasks: []string{"bathing", "medication"},
		CareIntensity:   matching.IntensityContinuous,
	}
}

func candidate(id string) *matching.CaregiverCandidate {
	return &matching.CaregiverCandidate{
		ID:              id,
		Name:            "Cuidador " + id,
		Location:        "Miraflores, Lima",
		YearsExperience: 4,
		Skills:          []string{"Baño y aseo", "Administración de medicamentos"},
		Bio:             "Experiencia con pacientes con diabetes",
		HourlyRate:      25,
	}
}

func TestEvaluatorUsesPrimaryResult(t *testing.T) {
	t.Parallel()

	primary := &stubScorer{result: matching.Result{
		Score:     matching.MatchScore{Overall: 91},
		Reasoning: matching.MatchReasoning{Summary: "Muy buena compatibilidad"},
	}}
	e := NewEvaluator(primary, nil, nil)

	record := e.Evaluate(context.Background(), recipient(), candidate("cg-1"))

	require.NotNil(t, record)
	assert.Equal(t, matching.SourcePrimary, record.Source)
	assert.Equal(t, 91, record.Score.Overall)
	assert.Equal(t, "cg-1", record.CandidateID)
	assert.Equal(t, matching.StatusPending, record.Status)
	assert.NotEmpty(t, record.MatchID)
}

func TestEvaluatorFallsBackOnAnyPrimaryFailure(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err    error
		reason string
	}{
		"timeout":     {err: fmt.Errorf("%w after 30s", llm.ErrTimeout), reason: metrics.ReasonTimeout},
		"malformed":   {err: fmt.Errorf("%w: not json", llm.ErrMalformedResponse), reason: metrics.ReasonMalformed},
		"provider":    {err: fmt.Errorf("%w: status 500", llm.ErrProvider), reason: metrics.ReasonProvider},
		"unavailable": {err: fmt.Errorf("%w: missing key", ai.ErrProviderUnavailable), reason: metrics.ReasonUnavailable},
		"unknown":     {err: errors.New("something else"), reason: metrics.ReasonOther},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			recorder := metrics.New(prometheus.NewRegistry())
			e := NewEvaluator(&stubScorer{err: tt.err}, nil, recorder)
			r, c := recipient(), candidate("cg-1")

			record := e.Evaluate(context.Background(), r, c)

			require.NotNil(t, record)
			assert.Equal(t, matching.SourceFallback, record.Source)
			assert.Equal(t, heuristic.Score(r, c).Score, record.Score)
			assert.NotEmpty(t, record.Reasoning.Summary)
			assert.Equal(t, tt.reason, FallbackReason(tt.err))
		})
	}
}

func TestEvaluatorWithoutPrimaryUsesFallback(t *testing.T) {
	t.Parallel()

	record := NewEvaluator(nil, nil, nil).Evaluate(context.Background(), recipient(), candidate("cg-1"))

	require.NotNil(t, record)
	assert.Equal(t, matching.SourceFallback, record.Source)
}

func TestEvaluatorLogsFallbackReason(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEvaluator(&stubScorer{err: llm.ErrTimeout}, zap.New(core), nil)

	e.Evaluate(context.Background(), recipient(), candidate("cg-7"))

	entries := logs.FilterMessage("primary scorer failed, using fallback scorer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, metrics.ReasonTimeout, entries[0].ContextMap()["fallback_reason"])
	assert.Equal(t, "cg-7", entries[0].ContextMap()["candidate_id"])

	core, logs = observer.New(zapcore.DebugLevel)
	NewEvaluator(&stubScorer{err: ai.ErrProviderUnavailable}, zap.New(core), nil).
		Evaluate(context.Background(), recipient(), candidate("cg-8"))

	entries = logs.FilterMessage("primary scorer unavailable, using fallback scorer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)

	entries = logs.FilterMessage("candidate scored by fallback scorer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, string(matching.SourceFallback), entries[0].ContextMap()["score_source"])
}

type panickingScorer struct{}

func (panickingScorer) Score(context.Context, *matching.CareRecipientProfile, *matching.CaregiverCandidate) (matching.Result, error) {
	var m map[string]int
	m["boom"]++
	return matching.Result{}, nil
}

func TestEvaluatorFallsBackWhenPrimaryPanics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	core, logs := observer.New(zapcore.WarnLevel)
	evaluator := NewEvaluator(panickingScorer{}, zap.New(core), recorder)

	r, c := recipient(), candidate("cg-1")
	record := evaluator.Evaluate(context.Background(), r, c)

	require.NotNil(t, record)
	assert.Equal(t, matching.SourceFallback, record.Source)
	assert.Equal(t, heuristic.Score(r, c).Score, record.Score)

	entries := logs.FilterMessage("primary scorer failed, using fallback scorer").All()
	require.Len(t, entries, 1)
	assert.Equal(t, metrics.ReasonProvider, entries[0].ContextMap()["fallback_reason"])

	records, err := NewRanker(evaluator, nil, recorder).RankAll(context.Background(), r,
		[]*matching.CaregiverCandidate{candidate("a"), candidate("b")}, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, matching.SourceFallback, rec.Source)
	}
}

func TestEvaluatorRecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)

	NewEvaluator(&stubScorer{err: llm.ErrMalformedResponse}, nil, recorder).
		Evaluate(context.Background(), recipient(), candidate("cg-1"))
	NewEvaluator(&stubScorer{result: matching.Result{Score: matching.MatchScore{Overall: 60}}}, nil, recorder).
		Evaluate(context.Background(), recipient(), candidate("cg-2"))

	count, err := testutil.GatherAndCount(reg, "care_matcher_fallbacks_total", "care_matcher_evaluations_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRankAllOrdersByOverallAndAssignsRanks(t *testing.T) {
	t.Parallel()

	evaluator := &scriptedEvaluator{scores: map[string]int{"a": 70, "b": 95, "c": 70}}
	ranker := NewRanker(evaluator, nil, nil)

	records, err := ranker.RankAll(context.Background(), recipient(),
		[]*matching.CaregiverCandidate{candidate("a"), candidate("b"), candidate("c")}, nil)

	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"b", "a", "c"}, records.CandidateIDs())
	assert.Equal(t, []string{"a", "b", "c"}, evaluator.order)

	ranks := map[string]int{}
	for _, r := range records {
		ranks[r.CandidateID] = r.Rank
	}
	assert.Equal(t, map[string]int{"a": 2, "b": 1, "c": 3}, ranks)
}

func TestRankAllReportsProgress(t *testing.T) {
	t.Parallel()

	evaluator := &scriptedEvaluator{scores: map[string]int{"a": 50, "b": 60, "c": 70}}
	var percents []int
	var steps []string

	_, err := NewRanker(evaluator, nil, nil).RankAll(context.Background(), recipient(),
		[]*matching.CaregiverCandidate{candidate("a"), candidate("b"), candidate("c")},
		func(p int, step string) {
			percents = append(percents, p)
			steps = append(steps, step)
		})

	require.NoError(t, err)
	assert.Equal(t, []int{33, 67, 100}, percents)
	assert.Equal(t, "Evaluado Cuidador a (1/3)", steps[0])
	assert.Equal(t, "Evaluado Cuidador c (3/3)", steps[2])
}

func TestRankAllSkipsFailingCandidate(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	recorder := metrics.New(reg)
	evaluator := &scriptedEvaluator{
		scores: map[string]int{"a": 50, "c": 70},
		panics: map[string]bool{"b": true},
	}
	var percents []int

	records, err := NewRanker(evaluator, zap.New(core), recorder).RankAll(context.Background(), recipient(),
		[]*matching.CaregiverCandidate{candidate("a"), candidate("b"), candidate("c")},
		func(p int, _ string) { percents = append(percents, p) })

	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, records.CandidateIDs())
	assert.Equal(t, 1, records[0].Rank)
	assert.Equal(t, 2, records[1].Rank)
	assert.Equal(t, []int{33, 67, 100}, percents)
	assert.Equal(t, 1, logs.FilterMessage("skipping candidate").Len())
}

func TestRankAllSkipsNilCandidate(t *testing.T) {
	t.Parallel()

	records, err := NewRanker(NewEvaluator(nil, nil, nil), nil, nil).RankAll(context.Background(), recipient(),
		[]*matching.CaregiverCandidate{nil, candidate("a")}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, records.CandidateIDs())
}

func TestRankAllEmptyBatch(t *testing.T) {
	t.Parallel()

	called := false
	records, err := NewRanker(NewEvaluator(nil, nil, nil), nil, nil).RankAll(context.Background(), recipient(), nil,
		func(int, string) { called = true })

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.False(t, called)
}

func TestRankAllRejectsInvalidRecipient(t *testing.T) {
	t.Parallel()

	evaluator := &scriptedEvaluator{scores: map[string]int{}}
	ranker := NewRanker(evaluator, nil, nil)

	bad := recipient()
	bad.MobilityLevel = 9

	_, err := ranker.RankAll(context.Background(), bad, []*matching.CaregiverCandidate{candidate("a")}, nil)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.Empty(t, evaluator.order)

	_, err = ranker.RankAll(context.Background(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestRankAllEndToEndWithFallback(t *testing.T) {
	t.Parallel()

	evaluator := NewEvaluator(llm.New(ai.Unavailable("no key"), nil), nil, nil)
	far := candidate("far")
	far.Location = "Arequipa"
	far.YearsExperience = 0

	records, err := NewRanker(evaluator, nil, nil).RankAll(context.Background(), recipient(),
		[]*matching.CaregiverCandidate{far, candidate("near")}, nil)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "near", records[0].CandidateID)
	for _, r := range records {
		assert.Equal(t, matching.SourceFallback, r.Source)
		assert.GreaterOrEqual(t, r.Score.Overall, 0)
		assert.LessOrEqual(t, r.Score.Overall, 100)
	}
}

func TestProgressPercent(t *testing.T) {
	t.Parallel()

	tests := []struct{ done, total, want int }{
		{1, 1, 100},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{0, 0, 100},
	}
	for _, tt := range tests {
		if got := progressPercent(tt.done, tt.total); got != tt.want {
			t.Fatalf("progressPercent(%d, %d) = %d, want %d", tt.done, tt.total, got, tt.want)
		}
	}
}
