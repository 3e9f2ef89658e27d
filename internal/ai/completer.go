package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrProviderUnavailable means no usable text-completion provider is configured.
var ErrProviderUnavailable = errors.New("text completion provider is unavailable")

// Completer sends a single prompt to a text-completion service and returns its raw text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Describer is implemented by completers that can name their provider and model for logging.
type Describer interface {
	Provider() string
	Model() string
}

type unavailable struct {
	reason string
}

// Unavailable returns a Completer that always fails with ErrProviderUnavailable.
// It stands in for a provider whose credential is missing or invalid.
func Unavailable(reason string) Completer {
	return &unavailable{reason: reason}
}

func (u *unavailable) Complete(context.Context, string, int) (string, error) {
	if u.reason == "" {
		return "", ErrProviderUnavailable
	}
	return "", fmt.Errorf("%w: %s", ErrProviderUnavailable, u.reason)
}

func (u *unavailable) Provider() string { return "none" }

func (u *unavailable) Model() string { return "" }
