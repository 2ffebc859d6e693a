// Package scheduler runs batch evaluations on a fixed interval and keeps the
// latest run available for the status API.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stiventc/hostmon/internal/alarm"
)

// BatchFunc performs one batch run and returns its outcome.
type BatchFunc func(ctx context.Context) (alarm.Severity, []alarm.Result)

// Snapshot is the outcome of the most recent batch run.
type Snapshot struct {
	Results []alarm.Result
	Worst   alarm.Severity
	RanAt   time.Time
}

// Scheduler triggers batch runs on a ticker.
type Scheduler struct {
	interval time.Duration
	run      BatchFunc
	logger   *slog.Logger

	mu     sync.RWMutex
	latest *Snapshot
	wg     sync.WaitGroup
}

// New creates a Scheduler. Pass nil logger to use the default logger.
func New(interval time.Duration, run BatchFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{interval: interval, run: run, logger: logger}
}

// Start launches the run loop. It is non-blocking; the first run fires
// immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Wait blocks until the run loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Latest returns the most recent snapshot, or nil before the first run
// completes.
func (s *Scheduler) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	worst, results := s.run(ctx)
	s.logger.Info("batch run complete", "worst", worst.String(), "metrics", len(results))

	s.mu.Lock()
	s.latest = &Snapshot{Results: results, Worst: worst, RanAt: time.Now()}
	s.mu.Unlock()
}
