package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stiventc/hostmon/internal/alarm"
	"github.com/stiventc/hostmon/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func countingBatch(runs *int32, worst alarm.Severity) scheduler.BatchFunc {
	return func(ctx context.Context) (alarm.Severity, []alarm.Result) {
		atomic.AddInt32(runs, 1)
		return worst, []alarm.Result{
			{Reading: alarm.Reading{Name: "disk", Value: 85, Soft: 80, Hard: 95}, Severity: alarm.SoftWarning},
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestScheduler_RunsImmediately(t *testing.T) {
	var runs int32
	s := scheduler.New(time.Hour, countingBatch(&runs, alarm.SoftWarning), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, func() bool { return s.Latest() != nil })

	snap := s.Latest()
	if snap.Worst != alarm.SoftWarning {
		t.Errorf("snapshot worst = %s, want SOFT_WARNING", snap.Worst)
	}
	if len(snap.Results) != 1 {
		t.Errorf("snapshot has %d results, want 1", len(snap.Results))
	}
	if snap.RanAt.IsZero() {
		t.Error("snapshot has no run timestamp")
	}
}

func TestScheduler_RunsPeriodically(t *testing.T) {
	var runs int32
	s := scheduler.New(10*time.Millisecond, countingBatch(&runs, alarm.OK), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	waitFor(t, func() bool { return atomic.LoadInt32(&runs) >= 3 })
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	var runs int32
	s := scheduler.New(10*time.Millisecond, countingBatch(&runs, alarm.OK), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	waitFor(t, func() bool { return atomic.LoadInt32(&runs) >= 1 })

	cancel()
	s.Wait()

	stopped := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != stopped {
		t.Errorf("runs continued after cancel: %d -> %d", stopped, got)
	}
}

func TestScheduler_LatestNilBeforeFirstRun(t *testing.T) {
	s := scheduler.New(time.Hour, countingBatch(new(int32), alarm.OK), discardLogger())
	if s.Latest() != nil {
		t.Error("expected nil snapshot before Start")
	}
}
