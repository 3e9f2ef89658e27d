package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/logger"
	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/metrics"
	"github.com/spigell/care-matcher/internal/utils"
)

var (
	// ErrInvalidRecipient is returned before any candidate is evaluated.
	ErrInvalidRecipient = errors.New("invalid recipient profile")
	// ErrCandidateEvaluation marks a candidate dropped from the batch.
	ErrCandidateEvaluation = errors.New("candidate evaluation failed")
)

// ProgressFunc receives the completed percentage and a description of the last step.
type ProgressFunc func(percent int, step string)

// CandidateEvaluator produces an unranked record for one candidate.
type CandidateEvaluator interface {
	Evaluate(ctx context.Context, recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) *matching.MatchRecord
}

// Ranker evaluates candidates one at a time and ranks them by overall score.
type Ranker struct {
	evaluator CandidateEvaluator
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

func NewRanker(evaluator CandidateEvaluator, log *zap.Logger, recorder *metrics.Recorder) *Ranker {
	return &Ranker{
		evaluator: evaluator,
		logger:    logger.WithFields(log),
		metrics:   recorder,
	}
}

// RankAll evaluates every candidate in input order and returns them sorted by
// overall score, highest first, with dense 1-based ranks. Equal scores keep input order.
// Candidates whose evaluation fails are skipped. The only error is an invalid recipient.
func (r *Ranker) RankAll(ctx context.Context, recipient *matching.CareRecipientProfile, candidates []*matching.CaregiverCandidate, onProgress ProgressFunc) (matching.Records, error) {
	if err := matching.ValidateRecipient(recipient); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecipient, err)
	}
	if r.evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	start := time.Now()
	total := len(candidates)
	records := make(matching.Records, 0, total)
	fallbacks := 0

	for i, candidate := range candidates {
		record, err := r.evaluate(ctx, recipient, candidate)
		if err != nil {
			r.metrics.Skipped()
			r.logger.Error("skipping candidate",
				append(logger.CandidateFields(candidate), zap.Int("position", i), zap.Error(err))...,
			)
		} else {
			if record.Source == matching.SourceFallback {
				fallbacks++
			}
			records = append(records, record)
		}

		if onProgress != nil {
			onProgress(progressPercent(i+1, total), stepDescription(candidate, i+1, total))
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].Score.Overall > records[b].Score.Overall
	})
	for i, record := range records {
		record.Rank = i + 1
	}

	r.metrics.ObserveBatch(time.Since(start))
	r.logger.Info("ranking finished",
		zap.Int("candidates", total),
		zap.Int("ranked", len(records)),
		zap.Int("skipped", total-len(records)),
		zap.Int("fallback_scored", fallbacks),
		zap.Duration("duration", time.Since(start)),
	)

	return records, nil
}

func (r *Ranker) evaluate(ctx context.Context, recipient *matching.CareRecipientProfile, candidate *matching.CaregiverCandidate) (record *matching.MatchRecord, err error) {
	if candidate == nil {
		return nil, fmt.Errorf("%w: candidate is nil", ErrCandidateEvaluation)
	}

	defer func() {
		if p := recover(); p != nil {
			record = nil
			err = fmt.Errorf("%w: panic: %v", ErrCandidateEvaluation, p)
		}
	}()

	record = r.evaluator.Evaluate(ctx, recipient, candidate)
	if record == nil {
		return nil, fmt.Errorf("%w: no result", ErrCandidateEvaluation)
	}
	return record, nil
}

func progressPercent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return utils.Percent(done, total)
}

func stepDescription(candidate *matching.CaregiverCandidate, done, total int) string {
	name := ""
	if candidate != nil {
		name = strings.TrimSpace(candidate.Name)
		if name == "" {
			name = candidate.ID
		}
	}
	if name == "" {
		name = "cuidador"
	}
	return fmt.Sprintf("Evaluado %s (%d/%d)", name, done, total)
}
