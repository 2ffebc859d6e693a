package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stiventc/hostmon/internal/alarm"
	"github.com/stiventc/hostmon/internal/collector"
	"github.com/stiventc/hostmon/internal/config"
	"github.com/stiventc/hostmon/internal/journal"
	"github.com/stiventc/hostmon/internal/mail"
	"github.com/stiventc/hostmon/internal/runner"
)

// overrides carries the limit flags that were explicitly set on the command
// line; unset flags leave the configured values in place.
type overrides struct {
	soft   *float64
	hard   *float64
	path   string
	digest bool
}

func checkCmd() *cobra.Command {
	var (
		soft   float64
		hard   float64
		path   string
		digest bool
	)
	cmd := &cobra.Command{
		Use:   "check <metric>",
		Short: "Run a one-off check of one metric, or \"all\" for the configured set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			ov := overrides{path: path, digest: digest}
			if cmd.Flags().Changed("soft") {
				ov.soft = &soft
			}
			if cmd.Flags().Changed("hard") {
				ov.hard = &hard
			}
			return runCheck(cmd.OutOrStdout(), cfg, args[0], ov)
		},
	}
	cmd.Flags().Float64VarP(&soft, "soft", "s", 80, "soft limit override")
	cmd.Flags().Float64VarP(&hard, "hard", "H", 95, "hard limit override")
	cmd.Flags().StringVarP(&path, "path", "p", "", "file system path for disk_usage")
	cmd.Flags().BoolVar(&digest, "digest", false, "consolidate batch alerts into one digest email")
	return cmd
}

func runCheck(out io.Writer, cfg *config.Config, metric string, ov overrides) error {
	logger := slog.Default()
	hostname := resolveHostname()

	jw := journal.New(cfg.LogFile, hostname, logger)
	mailer := mail.New(cfg.Mail, hostname, logger)
	engine := alarm.NewEngine(jw, mailer, logger)

	if metric == "all" {
		return runBatch(out, cfg, engine, mailer, ov.digest, logger)
	}
	if !config.ValidMetrics[metric] {
		return fmt.Errorf("unknown metric %q (use disk_usage, memory_usage, process_count, user_count, or all)", metric)
	}

	mcfg := metricConfig(cfg, metric)
	if ov.soft != nil {
		mcfg.Soft = *ov.soft
	}
	if ov.hard != nil {
		mcfg.Hard = *ov.hard
	}
	if ov.path != "" {
		mcfg.Path = ov.path
	}
	if mcfg.Soft > mcfg.Hard {
		logger.Warn("soft limit exceeds hard limit, warnings may be unreachable",
			"metric", metric, "soft", mcfg.Soft, "hard", mcfg.Hard)
	}

	ctx := context.Background()

	if metric == "user_count" {
		return runUserCheck(out, engine, logger)
	}

	c, err := collector.New(mcfg)
	if err != nil {
		return err
	}

	value, err := c.Collect(ctx)
	if err != nil {
		// Collection failure is recovered locally, not a failed run.
		logger.Error("collection failed", "metric", metric, "error", err)
		fmt.Fprintf(out, "ERROR: %s unavailable: %v\n", c.Name(), err)
		return nil
	}

	sev := engine.Evaluate(alarm.Reading{
		Name:  c.Name(),
		Value: value,
		Soft:  mcfg.Soft,
		Hard:  mcfg.Hard,
	}, true)

	fmt.Fprintf(out, "%s: %s (current %g, soft %g, hard %g)\n", sev, c.Name(), value, mcfg.Soft, mcfg.Hard)
	return nil
}

func runUserCheck(out io.Writer, engine *alarm.Engine, logger *slog.Logger) error {
	uc := collector.NewUsersCollector()
	sessions, err := uc.Sessions(context.Background())
	if err != nil {
		logger.Error("collection failed", "metric", "user_count", "error", err)
		fmt.Fprintf(out, "ERROR: %s unavailable: %v\n", uc.Name(), err)
		return nil
	}

	converted := make([]alarm.Session, 0, len(sessions))
	for _, s := range sessions {
		converted = append(converted, alarm.Session{User: s.User, Host: s.Host, Started: s.Started})
	}
	count := engine.LogUsers(converted)
	fmt.Fprintf(out, "USER_LOGGED: %d users currently logged in\n", count)
	return nil
}

func runBatch(out io.Writer, cfg *config.Config, engine *alarm.Engine, mailer *mail.Mailer, digest bool, logger *slog.Logger) error {
	specs, err := runner.Build(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	run := runner.New(engine, mailer, logger)
	worst, results := run.RunAll(context.Background(), specs, digest)

	printBatch(out, worst, results)
	return nil
}

func printBatch(out io.Writer, worst alarm.Severity, results []alarm.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tVALUE\tSOFT\tHARD\tSEVERITY")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%s\n",
			r.Reading.Name,
			r.Reading.Value,
			r.Reading.Soft,
			r.Reading.Hard,
			r.Severity,
		)
	}
	w.Flush()
	fmt.Fprintf(out, "\nOverall: %s\n", worst)
}

func metricConfig(cfg *config.Config, name string) config.Metric {
	for _, m := range cfg.Metrics {
		if m.Name == name {
			return m
		}
	}
	m := config.Metric{Name: name, Soft: 80, Hard: 95}
	if name == "disk_usage" {
		m.Path = "/"
	}
	return m
}

func resolveHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
