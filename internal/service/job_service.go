package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"nextstop/internal/metrics"
)

// Sweeper removes expired entries and reports how many were dropped.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// JobService runs housekeeping on a cron schedule.
type JobService struct {
	sweeper Sweeper
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewJobService(sweeper Sweeper, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobService{
		sweeper: sweeper,
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
	}
}

// SweepExpiredFlows drops booking flows whose TTL has passed.
func (s *JobService) SweepExpiredFlows(ctx context.Context) error {
	removed, err := s.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("cron job: sweeping expired flows: %w", err)
	}
	metrics.AddFlowsSwept(removed)
	if removed > 0 {
		s.logger.InfoContext(ctx, "cron job: swept expired flows", "removed", removed)
	}
	return nil
}

// Start schedules the sweep with a standard cron spec or a descriptor such
// as "@every 5m" and starts the scheduler.
func (s *JobService) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := s.SweepExpiredFlows(context.Background()); err != nil {
			s.logger.Error("cron job failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron job: invalid schedule %q: %w", spec, err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish or ctx
// to end.
func (s *JobService) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
