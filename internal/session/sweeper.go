package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bankbot/internal/metrics"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically expires idle sessions held in a MemoryStore.
type Sweeper struct {
	cron    *cron.Cron
	store   *MemoryStore
	idle    time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewSweeper(store *MemoryStore, idle time.Duration, metrics *metrics.Metrics, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		cron:    cron.New(),
		store:   store,
		idle:    idle,
		metrics: metrics,
		logger:  logger.With("component", "session-sweeper"),
	}
}

// Start registers the sweep on schedule (e.g. "@every 1m") and starts the scheduler.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return fmt.Errorf("register session sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("session sweeper started", "schedule", schedule, "idle_timeout", s.idle)
	return nil
}

// Stop halts the scheduler; the returned context is done once a running sweep finishes.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce expires idle sessions immediately.
func (s *Sweeper) RunOnce() {
	removed := s.store.Sweep(s.idle)
	if removed > 0 {
		s.metrics.ExpiredSessions.Add(float64(removed))
		s.logger.Info("expired idle sessions", "count", removed)
	}
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
}
