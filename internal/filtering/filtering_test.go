package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/care-matcher/internal/matching"
)

func candidates() *matching.Candidates {
	return &matching.Candidates{Items: []*matching.CaregiverCandidate{
		{ID: "a", Active: true, OnboardingCompleted: true},
		{ID: "b", Active: false, OnboardingCompleted: true},
		{ID: "c", Active: true, OnboardingCompleted: true},
		{ID: "d", Active: true, OnboardingCompleted: false},
		{ID: "e", Active: true, OnboardingCompleted: true},
	}}
}

func ids(c *matching.Candidates) []string {
	out := make([]string, 0, c.Len())
	for _, item := range c.Items {
		out = append(out, item.ID)
	}
	return out
}

func TestRunAppliesFiltersInOrder(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	cfg := &Config{ExcludeIDs: []string{" e ", ""}}

	left, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core)}, Default(), candidates())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(left))

	steps := logs.FilterMessage("filter step").All()
	require.Len(t, steps, 3)
	assert.Equal(t, "active", steps[0].ContextMap()["name"])
	assert.EqualValues(t, 2, steps[0].ContextMap()["dropped"])
	assert.Equal(t, "exclude_ids", steps[1].ContextMap()["name"])
	assert.EqualValues(t, 1, steps[1].ContextMap()["dropped"])
}

func TestDisableActiveKeepsInactive(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "active", "include inactive requested via flag")

	left, err := Run(context.Background(), &Config{}, Deps{}, steps, candidates())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(left))

	statuses := Describe(steps)
	require.Len(t, statuses, 3)
	assert.False(t, statuses[0].Enabled)
	assert.Equal(t, "include inactive requested via flag", statuses[0].Reason)
}

func TestExcludeFileFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := &matching.ExcludedCaregivers{Items: []*matching.ExcludedCaregiver{{ID: "c"}, {ID: "zz"}}}
	require.NoError(t, excluded.ToFile(path))

	f := NewExcludeFile()
	require.NoError(t, f.Validate(&Config{ExcludeFile: path}))

	left, step, err := f.Apply(context.Background(), Deps{}, candidates())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d", "e"}, ids(left))
	assert.Equal(t, Step{Initial: 5, Dropped: 1, Left: 4}, step)
	assert.Equal(t, path, f.(statusProvider).Status().Details["path"])
}

func TestExcludeFileFilterMissingAndBrokenFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	f := NewExcludeFile()
	require.NoError(t, f.Validate(&Config{ExcludeFile: filepath.Join(dir, "missing.json")}))
	left, step, err := f.Apply(context.Background(), Deps{}, candidates())
	require.NoError(t, err)
	assert.Equal(t, 5, left.Len())
	assert.Zero(t, step.Dropped)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{not json"), 0o600))
	require.NoError(t, f.Validate(&Config{ExcludeFile: broken}))
	_, _, err = f.Apply(context.Background(), Deps{}, candidates())
	assert.Error(t, err)

	_, err = Run(context.Background(), &Config{ExcludeFile: broken}, Deps{}, Default(), candidates())
	assert.ErrorContains(t, err, "exclude_file")
}

func TestFiltersSkipNilCandidates(t *testing.T) {
	t.Parallel()

	c := &matching.Candidates{Items: []*matching.CaregiverCandidate{
		nil,
		{ID: "a", Active: true, OnboardingCompleted: true},
	}}

	left, err := Run(context.Background(), &Config{ExcludeIDs: []string{"x"}}, Deps{}, Default(), c)

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(left))
}
