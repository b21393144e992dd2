// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/ledgerlens/internal/ingest/queue"
)

// Scheduler runs periodic queue maintenance.
type Scheduler struct {
	cron       *cron.Cron
	store      queue.JobStore
	staleAfter time.Duration
	logger     *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(store queue.JobStore, staleAfter time.Duration, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:       c,
		store:      store,
		staleAfter: staleAfter,
		logger:     logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Requeue jobs orphaned by crashed workers every five minutes.
	if _, err := s.cron.AddFunc("*/5 * * * *", s.requeueStaleJobs); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// requeueStaleJobs returns jobs stuck in active back to waiting, so a worker
// crash never strands a user's upload.
func (s *Scheduler) requeueStaleJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.store.RequeueStale(ctx, s.staleAfter)
	if err != nil {
		s.logger.Error("failed to requeue stale jobs", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Warn("requeued stale ingest jobs", slog.Int("count", n))
	}
}
