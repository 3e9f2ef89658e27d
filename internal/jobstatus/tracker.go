package jobstatus

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/care-matcher/internal/logger"
)

const (
	startProgress = 10
	rankingBase   = 20
	rankingSpan   = 70
)

// Tracker moves a job through its lifecycle. Store failures are logged and never returned,
// so a broken status backend cannot stop a ranking run.
type Tracker struct {
	store  Store
	jobID  string
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker creates a Tracker. A nil store makes every call a no-op.
func NewTracker(store Store, jobID string, log *zap.Logger) *Tracker {
	return &Tracker{
		store:  store,
		jobID:  jobID,
		logger: logger.WithFields(log, zap.String(logger.FieldJobID, jobID)),
		now:    time.Now,
	}
}

// JobID returns the tracked job id. It is empty for a nil tracker.
func (t *Tracker) JobID() string {
	if t == nil {
		return ""
	}
	return t.jobID
}

func (t *Tracker) Queue(ctx context.Context) {
	t.set(ctx, &Status{State: StateQueued, Progress: 0, CurrentStep: "En cola"})
}

func (t *Tracker) Start(ctx context.Context) {
	t.set(ctx, &Status{State: StateProcessing, Progress: startProgress, CurrentStep: "Preparando evaluación"})
}

// Progress maps the ranking percentage onto the 20..90 band of the job.
func (t *Tracker) Progress(ctx context.Context, percent int, step string) {
	t.set(ctx, &Status{State: StateProcessing, Progress: RankingProgress(percent), CurrentStep: step})
}

func (t *Tracker) Complete(ctx context.Context, matches int) {
	t.set(ctx, &Status{State: StateReady, Progress: 100, CurrentStep: "Completado", MatchCount: matches})
}

func (t *Tracker) Fail(ctx context.Context, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.set(ctx, &Status{State: StateError, Progress: 0, CurrentStep: "Error", Error: msg})
}

// RankingProgress returns 20 + round(0.7*percent) for percent clamped to 0..100.
func RankingProgress(percent int) int {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return rankingBase + (percent*rankingSpan*2+100)/200
}

func (t *Tracker) set(ctx context.Context, status *Status) {
	if t == nil || t.store == nil {
		return
	}

	status.LastUpdated = t.now().UTC()
	if err := t.store.Set(ctx, t.jobID, status); err != nil {
		t.logger.Warn("failed to update job status",
			zap.String("state", string(status.State)),
			zap.Int("progress", status.Progress),
			zap.Error(err),
		)
		return
	}

	t.logger.Debug("job status updated",
		zap.String("state", string(status.State)),
		zap.Int("progress", status.Progress),
		zap.String("step", status.CurrentStep),
	)
}
