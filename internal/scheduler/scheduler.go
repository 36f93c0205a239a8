package scheduler

import (
	"context"
	"sync"
	"time"

	"DivPulse/internal/series"
	applogger "DivPulse/pkg/logger"
)

// Scheduler refreshes every managed dataset on a fixed interval, with one
// immediate pass at startup so a cold start serves data without waiting a
// full tick.
type Scheduler struct {
	manager  *series.Manager
	interval time.Duration
	log      *applogger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(manager *series.Manager, interval time.Duration, log *applogger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{manager: manager, interval: interval, log: log}
}

// Start launches the refresh loop. Safe to call once.
func (s *Scheduler) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	failures := s.manager.RefreshAll(ctx)
	for name, err := range failures {
		s.log.Error("scheduled refresh failed",
			applogger.String("dataset", name),
			applogger.Error(err),
		)
	}
	s.log.Info("refresh cycle complete",
		applogger.Int("datasets", len(s.manager.Names())),
		applogger.Int("failures", len(failures)),
		applogger.Duration("took_ms", time.Since(start)),
	)
}

// Stop halts the loop and waits for an in-flight cycle to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
