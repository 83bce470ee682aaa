package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	applogger "SqueezeWatch/pkg/logger"
	"SqueezeWatch/pkg/queue"
)

// BackfillJobType is the queue message type for historical re-scoring runs.
const BackfillJobType = "signals.backfill"

// BackfillPayload is the queued request: re-run the pipeline for every stored
// trade date in [From, To].
type BackfillPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BackfillUseCase replays the daily pipeline over a historical date range.
// Each date runs through the same path as the nightly job, so signal and CB
// rows are recomputed and replaced in place.
type BackfillUseCase struct {
	pipeline *DailyPipeline
	log      *applogger.Logger
}

func NewBackfillUseCase(pipeline *DailyPipeline, log *applogger.Logger) *BackfillUseCase {
	return &BackfillUseCase{pipeline: pipeline, log: log}
}

// Run replays the range in chronological order. Dates with no stored metrics
// simply do not appear in the range; a date whose run fails stops the replay
// so consecutive-day CB state never skips a day.
func (u *BackfillUseCase) Run(ctx context.Context, from, to string) (int, error) {
	if from == "" || to == "" || from > to {
		return 0, fmt.Errorf("backfill: invalid range %q..%q", from, to)
	}

	dates, err := u.pipeline.metrics.TradeDates(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("backfill: list trade dates: %w", err)
	}
	if u.log != nil {
		u.log.Info("backfill started",
			applogger.String("from", from),
			applogger.String("to", to),
			applogger.Int("dates", len(dates)),
		)
	}

	start := time.Now()
	done := 0
	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := u.pipeline.Run(ctx, date); err != nil {
			if errors.Is(err, ErrPipelineRunning) {
				return done, err
			}
			return done, fmt.Errorf("backfill: date %s: %w", date, err)
		}
		done++
	}

	if u.log != nil {
		u.log.Info("backfill finished",
			applogger.Int("dates", done),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return done, nil
}

// BackfillJob runs queued backfill requests on the worker pool.
type BackfillJob struct {
	uc *BackfillUseCase
}

func NewBackfillJob(uc *BackfillUseCase) *BackfillJob { return &BackfillJob{uc: uc} }

func (j *BackfillJob) Name() string { return "backfill signals" }
func (j *BackfillJob) Type() string { return BackfillJobType }

func (j *BackfillJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[BackfillPayload](payload)
	if err != nil {
		return err
	}
	_, err = j.uc.Run(ctx, p.From, p.To)
	return err
}

var _ queue.Job = (*BackfillJob)(nil)
