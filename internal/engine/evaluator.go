package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/ai"
	"github.com/spigell/care-matcher/internal/logger"
	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/matching/heuristic"
	"github.com/spigell/care-matcher/internal/matching/llm"
	"github.com/spigell/care-matcher/internal/metrics"
)

// Evaluator scores one candidate with the primary scorer and falls back to the
// heuristic scorer on any primary failure. It always returns a complete record.
type Evaluator struct {
	primary matching.Scorer
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// NewEvaluator creates an Evaluator. A nil primary scorer means every evaluation uses the fallback path.
func NewEvaluator(primary matching.Scorer, log *zap.Logger, recorder *metrics.Recorder) *Evaluator {
	return &Evaluator{
		primary: primary,
		logger:  logger.WithFields(log),
		metrics: recorder,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) *matching.MatchRecord {
	start := time.Now()
	log := logger.WithFields(e.logger, logger.CandidateFields(candidate)...)

	if e.primary != nil {
		result, err := e.scorePrimary(ctx, recipient, candidate)
		if err == nil {
			e.metrics.ObserveEvaluation(string(matching.SourcePrimary), time.Since(start))
			log.Debug("candidate scored by primary scorer",
				zap.String(logger.FieldScoreSource, string(matching.SourcePrimary)),
				zap.Int("overall", result.Score.Overall),
			)
			return matching.NewRecord(candidate, result, matching.SourcePrimary)
		}

		reason := FallbackReason(err)
		e.metrics.Fallback(reason)

		fields := []zap.Field{zap.String(logger.FieldFallbackReason, reason), zap.Error(err)}
		if reason == metrics.ReasonUnavailable {
			log.Debug("primary scorer unavailable, using fallback scorer", fields...)
		} else {
			log.Warn("primary scorer failed, using fallback scorer", fields...)
		}
	}

	result := heuristic.Score(recipient, candidate)
	e.metrics.ObserveEvaluation(string(matching.SourceFallback), time.Since(start))
	log.Debug("candidate scored by fallback scorer",
		zap.String(logger.FieldScoreSource, string(matching.SourceFallback)),
		zap.Int("overall", result.Score.Overall),
	)

	return matching.NewRecord(candidate, result, matching.SourceFallback)
}

// scorePrimary turns a panic in the primary scorer into a provider error.
func (e *Evaluator) scorePrimary(ctx context.Context, recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) (result matching.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: primary scorer panicked: %v", llm.ErrProvider, p)
		}
	}()
	return e.primary.Score(ctx, recipient, candidate)
}

// FallbackReason maps a primary scorer error to a metrics label.
func FallbackReason(err error) string {
	switch {
	case errors.Is(err, ai.ErrProviderUnavailable):
		return metrics.ReasonUnavailable
	case errors.Is(err, llm.ErrTimeout):
		return metrics.ReasonTimeout
	case errors.Is(err, llm.ErrMalformedResponse):
		return metrics.ReasonMalformed
	case errors.Is(err, llm.ErrProvider):
		return metrics.ReasonProvider
	default:
		return metrics.ReasonOther
	}
}
