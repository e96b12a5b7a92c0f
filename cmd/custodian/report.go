package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"custodyPool/internal/config"
	"custodyPool/internal/ledger/postgres"
	"custodyPool/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate the audit log into per-pool window stats",
		RunE:  runReport,
	}
	cmd.Flags().String("window", "1h", "aggregation window (e.g. 5m, 1h, 24h)")
	cmd.Flags().String("out", "", "output JSONL path (writes to Postgres when empty)")
	cmd.Flags().Int("batch-size", 1000, "windows per write")
	cmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	cmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	cmd.Flags().StringSlice("slug", nil, "only report these pools (comma-separated)")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	windowSeconds := uint64(cfg.Window.Seconds())

	var (
		writer     report.StatsWriter
		stateStore report.StateStore
	)
	if cfg.StateFile != "" {
		stateStore = &report.FileStateStore{Path: cfg.StateFile}
	}
	if cfg.Out != "" {
		writer = &report.JsonlWriter{Path: cfg.Out}
	} else {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		writer = store
		if stateStore == nil {
			stateStore = &report.DBStateStore{Backend: store, Name: fmt.Sprintf("report:%d", windowSeconds)}
		}
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer in.Close()

	reporter := report.NewReporter(report.Config{
		WindowSeconds: windowSeconds,
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: cfg.RecomputeFrom,
		StateStore:    stateStore,
		Slugs:         cfg.Slugs,
	}, writer, logger)

	logger.Info("report start",
		zap.String("in", cfg.Input),
		zap.Uint64("window_seconds", windowSeconds),
		zap.String("out", cfg.Out),
		zap.Uint64("recompute_from", cfg.RecomputeFrom),
	)

	return reporter.Run(ctx, in)
}
