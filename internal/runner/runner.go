// Package runner drives a batch of metric evaluations and decides whether a
// consolidated digest is sent for the run.
package runner

import (
	"context"
	"log/slog"
	"math"

	"github.com/stiventc/hostmon/internal/alarm"
	"github.com/stiventc/hostmon/internal/collector"
	"github.com/stiventc/hostmon/internal/config"
)

// Spec binds one collector to its limits for a batch run.
type Spec struct {
	Name      string
	Collector collector.Collector
	Soft      float64
	Hard      float64
	// InfoOnly metrics are evaluated and reported but never influence the
	// batch outcome.
	InfoOnly bool
}

// Digester sends the consolidated alert for a batch run.
type Digester interface {
	SendDigest(results []alarm.Result, onlyIfAnyHard bool)
}

// Runner evaluates a metric set in order and aggregates the outcome.
type Runner struct {
	engine   *alarm.Engine
	digester Digester
	logger   *slog.Logger
}

// New creates a Runner. digester may be nil when digests are never wanted;
// pass nil logger to use the default logger.
func New(engine *alarm.Engine, digester Digester, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{engine: engine, digester: digester, logger: logger}
}

// RunAll collects and evaluates every spec in order. A failed collection
// skips that metric without failing the batch. When consolidate is set,
// per-metric alerts are suppressed and one digest is sent at the end,
// covering results in evaluation order. The returned severity is the worst
// across all non-informational results, OK when nothing was evaluated.
func (r *Runner) RunAll(ctx context.Context, specs []Spec, consolidate bool) (alarm.Severity, []alarm.Result) {
	worst := alarm.OK
	var results []alarm.Result

	for _, sp := range specs {
		value, err := sp.Collector.Collect(ctx)
		if err != nil {
			r.logger.Info("metric unavailable, skipping", "metric", sp.Name, "error", err)
			continue
		}

		reading := alarm.Reading{
			Name:  sp.Collector.Name(),
			Value: value,
			Soft:  sp.Soft,
			Hard:  sp.Hard,
		}
		sev := r.engine.Evaluate(reading, !consolidate)
		results = append(results, alarm.Result{Reading: reading, Severity: sev})

		if !sp.InfoOnly {
			worst = alarm.Worse(worst, sev)
		}
	}

	if consolidate && r.digester != nil {
		r.digester.SendDigest(results, true)
	}
	return worst, results
}

// Build turns metric configs into runnable specs, excluding collectors that
// report themselves unavailable on this host.
func Build(metrics []config.Metric, logger *slog.Logger) ([]Spec, error) {
	if logger == nil {
		logger = slog.Default()
	}
	specs := make([]Spec, 0, len(metrics))
	for _, m := range metrics {
		c, err := collector.New(m)
		if err != nil {
			return nil, err
		}
		if err := c.Available(); err != nil {
			logger.Warn("excluding unavailable collector", "metric", m.Name, "error", err)
			continue
		}
		sp := Spec{
			Name:      m.Name,
			Collector: c,
			Soft:      m.Soft,
			Hard:      m.Hard,
			InfoOnly:  m.InfoOnly,
		}
		// Sentinel limits: an info-only metric must never classify above OK,
		// so it cannot page anyone no matter what it reads.
		if sp.InfoOnly {
			sp.Soft = math.Inf(1)
			sp.Hard = math.Inf(1)
		}
		specs = append(specs, sp)
	}
	return specs, nil
}
