package scheduler

import (
	"context"
	"errors"
	"time"

	"SqueezeWatch/internal/usecase"
	applogger "SqueezeWatch/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly scoring pipeline on a cron spec (with seconds,
// e.g. "0 30 18 * * 1-5" for 18:30 on weekdays) in the exchange timezone.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *usecase.DailyPipeline
	log      *applogger.Logger
	spec     string
	timeout  time.Duration
}

func New(pipeline *usecase.DailyPipeline, spec, timezone string, log *applogger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		pipeline: pipeline,
		log:      log,
		spec:     spec,
		timeout:  25 * time.Minute,
	}, nil
}

// Start registers the nightly job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runNightly); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", applogger.String("spec", s.spec))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runNightly() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// Empty date scores the latest stored trade date.
	if err := s.pipeline.Run(ctx, ""); err != nil {
		if errors.Is(err, usecase.ErrPipelineRunning) {
			s.log.Warn("nightly run skipped, already running")
			return
		}
		s.log.Error("nightly run failed", applogger.Error(err))
		return
	}
	s.log.Info("nightly run complete")
}
