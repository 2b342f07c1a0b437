package engine

import (
	"context"
	"time"

	"skysentry/internal/types"
)

// DefaultCheckInterval is the period between orchestrator cycles. It must
// not be tighter than the cooldown window, or every rule would be perpetually
// suppressed; the config loader enforces that relationship.
const DefaultCheckInterval = 2 * time.Minute

// CycleRunner is anything that can run one orchestration cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) error
}

// TickerScheduler drives a CycleRunner on a fixed period. It is the
// in-process stand-in for a host periodic-task runtime: one cycle runs
// immediately on Start, then one per tick, never concurrently. Cycle errors
// are logged and the loop continues; there is no cancellation of an in-flight
// cycle beyond its own deadline.
type TickerScheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   types.Logger
}

// NewTickerScheduler creates a TickerScheduler. A non-positive interval falls
// back to DefaultCheckInterval.
func NewTickerScheduler(runner CycleRunner, interval time.Duration, logger types.Logger) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &TickerScheduler{runner: runner, interval: interval, logger: logger}
}

// Start blocks, running cycles until ctx is cancelled.
func (s *TickerScheduler) Start(ctx context.Context) {
	s.logger.Info("periodic alert engine started", "interval", s.interval.String())

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("periodic alert engine stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *TickerScheduler) runOnce(ctx context.Context) {
	if err := s.runner.RunCycle(ctx); err != nil {
		// The next tick retries naturally; a timeout outcome needs no special
		// handling beyond logging.
		s.logger.Error("orchestrator cycle failed", "error", err)
	}
}
