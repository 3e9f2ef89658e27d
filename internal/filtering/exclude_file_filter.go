package filtering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/matching"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes caregivers listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, c *matching.Candidates) (*matching.Candidates, Step, error) {
	initial := c.Len()
	if f.path == "" {
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	excluded, err := matching.GetExcludedFromFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		// The file is created on the first append from the action menu.
		if deps.Logger != nil {
			deps.Logger.Debug("exclude file does not exist yet", zap.String("path", f.path))
		}
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}
	if err != nil {
		return c, Step{}, fmt.Errorf("getting excluded caregivers from file: %w", err)
	}

	removed := c.Exclude(excluded.IDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding caregivers based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_caregivers", removed),
			zap.Int("caregivers_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(removed), Left: c.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
