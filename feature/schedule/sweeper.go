package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper triggers a full sync sweep on a fixed interval. Sweeps never
// overlap: the single loop finishes one sweep before waiting again.
type Sweeper struct {
	reconciler *Reconciler
	interval   time.Duration
	log        *zap.Logger
}

// NewSweeper creates a sweeper. A non-positive interval defaults to five
// minutes.
func NewSweeper(reconciler *Reconciler, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{reconciler: reconciler, interval: interval, log: log}
}

// Run sweeps until the context is cancelled. Intended to be launched as a
// goroutine from the start command.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.Info("Schedule sweeper started", zap.Duration("interval", s.interval))
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Schedule sweeper stopped")
			return
		case <-timer.C:
		}

		if err := s.reconciler.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("Sweep failed", zap.Error(err))
		}
		timer.Reset(s.interval)
	}
}
