package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/matching"
)

type activeFilter struct {
	disabled bool
	reason   string
}

// NewActive creates a filter that removes caregivers who are inactive or have not finished onboarding.
func NewActive() Filter {
	return &activeFilter{}
}

func (f *activeFilter) Name() string { return "active" }

func (f *activeFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *activeFilter) IsEnabled() bool { return !f.disabled }

func (f *activeFilter) Validate(*Config) error { return nil }

func (f *activeFilter) Apply(_ context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Retain(func(candidate *matching.CaregiverCandidate) bool {
		return candidate != nil && candidate.Active && candidate.OnboardingCompleted
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding inactive caregivers",
			zap.Strings("excluded_caregivers", excluded),
			zap.Int("caregivers_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *activeFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
