// Package llm scores caregivers by asking a text-completion service to apply the matching rubric.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/ai"
	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/utils"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxTokens = 2000

	defaultMaxLogLength = 500
)

var (
	// ErrTimeout means the provider did not answer within the scorer timeout.
	ErrTimeout = errors.New("provider timeout")
	// ErrMalformedResponse means the answer was not valid JSON or violated the response schema.
	ErrMalformedResponse = errors.New("malformed provider response")
	// ErrProvider covers every other provider failure.
	ErrProvider = errors.New("provider error")
)

// Scorer is the primary matching.Scorer. It never returns a partially filled result.
type Scorer struct {
	completer ai.Completer
	timeout   time.Duration
	maxTokens int
	maxLogLen int
	logger    *zap.Logger
}

type Option func(*Scorer)

func WithTimeout(d time.Duration) Option {
	return func(s *Scorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithMaxLogLength limits prompt and response previews in debug logs.
func WithMaxLogLength(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.maxLogLen = n
		}
	}
}

// New creates a Scorer around completer. A nil completer behaves as an unavailable provider.
func New(completer ai.Completer, logger *zap.Logger, opts ...Option) *Scorer {
	if completer == nil {
		completer = ai.Unavailable("no completer configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scorer{
		completer: completer,
		timeout:   DefaultTimeout,
		maxTokens: DefaultMaxTokens,
		maxLogLen: defaultMaxLogLength,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score asks the provider to evaluate candidate against recipient.
func (s *Scorer) Score(ctx context.Context, recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) (matching.Result, error) {
	if recipient == nil || candidate == nil {
		return matching.Result{}, errors.New("recipient and candidate are required")
	}

	prompt := buildPrompt(recipient, candidate)
	s.logger.Debug("sending evaluation prompt",
		zap.String("candidate_id", candidate.ID),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return matching.Result{}, err
	}

	s.logger.Debug("received evaluation response",
		zap.String("candidate_id", candidate.ID),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseResponse(raw)
}

type completion struct {
	text string
	err  error
}

// complete races the provider call against the scorer timeout. The first to settle wins.
func (s *Scorer) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan completion, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- completion{err: fmt.Errorf("%w: panic: %v", ErrProvider, p)}
			}
		}()
		text, err := s.completer.Complete(ctx, prompt, s.maxTokens)
		done <- completion{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
		}
		return "", fmt.Errorf("%w: %w", ErrProvider, ctx.Err())
	case res := <-done:
		return res.text, classify(res.err, s.timeout)
	}
}

func classify(err error, timeout time.Duration) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ai.ErrProviderUnavailable), errors.Is(err, ErrProvider):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
}
