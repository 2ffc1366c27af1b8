package scheduler

import (
	"context"
	"time"

	"leadgen_backend/platform/logger"
)

const defaultSweepInterval = 10 * time.Minute

// Pruner drops finished sessions older than a cutoff.
type Pruner interface {
	PruneFinished(cutoff time.Time) int
}

// SessionSweeper periodically evicts finished sessions from the in-memory
// store. Redis-backed sessions expire on their own TTL.
type SessionSweeper struct {
	pruner    Pruner
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewSessionSweeper(pruner Pruner, log *logger.Logger, interval, retention time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &SessionSweeper{
		pruner:    pruner,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (s *SessionSweeper) Run(ctx context.Context) {
	if s == nil || s.pruner == nil {
		return
	}

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionSweeper) sweep() int {
	removed := s.pruner.PruneFinished(s.now().Add(-s.retention))
	if removed > 0 {
		s.log.Info("session sweep removed finished sessions", "removed", removed)
	}
	return removed
}
