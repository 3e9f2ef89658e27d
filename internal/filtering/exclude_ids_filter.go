package filtering

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/matching"
)

type excludeIDsFilter struct {
	ids []string
}

// NewExcludeIDs creates a filter that removes caregivers by ids configured in the config.
func NewExcludeIDs() Filter {
	return &excludeIDsFilter{}
}

func (f *excludeIDsFilter) Name() string { return "exclude_ids" }

func (f *excludeIDsFilter) Disable(string) {}

func (f *excludeIDsFilter) IsEnabled() bool { return true }

func (f *excludeIDsFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg != nil {
		for _, id := range cfg.ExcludeIDs {
			if id = strings.TrimSpace(id); id != "" {
				f.ids = append(f.ids, id)
			}
		}
	}
	return nil
}

func (f *excludeIDsFilter) Apply(_ context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error) {
	initial := c.Len()
	if len(f.ids) == 0 {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded := c.Exclude(f.ids)
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding caregivers by configured ids",
			zap.Strings("excluded_caregivers", excluded),
			zap.Int("caregivers_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *excludeIDsFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["ids"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
