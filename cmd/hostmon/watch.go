package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stiventc/hostmon/internal/alarm"
	"github.com/stiventc/hostmon/internal/config"
	"github.com/stiventc/hostmon/internal/journal"
	"github.com/stiventc/hostmon/internal/mail"
	"github.com/stiventc/hostmon/internal/runner"
	"github.com/stiventc/hostmon/internal/scheduler"
	"github.com/stiventc/hostmon/internal/server"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run batch checks on an interval and serve the latest status",
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("config loaded", "metrics", len(cfg.Metrics), "log_file", cfg.LogFile)

	hostname := resolveHostname()
	jw := journal.New(cfg.LogFile, hostname, logger)
	mailer := mail.New(cfg.Mail, hostname, logger)
	if !mailer.Configured() {
		logger.Warn("mail delivery not configured, alerts disabled")
	}
	engine := alarm.NewEngine(jw, mailer, logger)

	specs, err := runner.Build(cfg.Metrics, logger)
	if err != nil {
		return fmt.Errorf("building metric set: %w", err)
	}

	run := runner.New(engine, mailer, logger)
	batch := func(ctx context.Context) (alarm.Severity, []alarm.Result) {
		return run.RunAll(ctx, specs, cfg.Watch.Digest)
	}

	sched := scheduler.New(cfg.Watch.Interval.Duration, batch, logger)
	apiServer := server.New(sched, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: apiServer.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	sched.Start(ctx)
	logger.Info("scheduler started", "interval", cfg.Watch.Interval.Duration, "metrics", len(specs))

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("HTTP server: %w", err)
	}

	sched.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
