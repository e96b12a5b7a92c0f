package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"custodyPool/internal/audit"
	"custodyPool/internal/config"
	"custodyPool/internal/custody"
	"custodyPool/internal/ledger"
	"custodyPool/internal/ledger/postgres"
	"custodyPool/internal/ledger/sqlite"
	"custodyPool/internal/telemetry"
	"custodyPool/internal/vault"
)

const serviceName = "custodian"

// app is the wiring shared by the lifecycle commands.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   ledger.Store
	gateway *vault.Ledger
	svc     *custody.Service

	closers []func()
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func() { _ = logger.Sync() })

	shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint, serviceName)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	})

	store, err := openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	var sink audit.Sink = audit.Nop{}
	if cfg.AuditOut != "" {
		sink = audit.NewJsonlSink(cfg.AuditOut)
	}

	a.gateway = vault.NewLedger(cfg.ProgramID, logger.Named("vault"))
	a.svc = custody.NewService(custody.Config{
		Program: cfg.ProgramID,
		Audit:   sink,
	}, store, a.gateway, logger.Named("custody"))

	logger.Debug("custodian ready",
		zap.String("program", cfg.ProgramID.Hex()),
		zap.String("store", cfg.Store),
		zap.String("audit_out", cfg.AuditOut),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func openStore(ctx context.Context, cfg config.Config) (ledger.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := store.Migrate(); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// runApp runs fn with a signal-aware context and a wired app.
func runApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(ctx, a); err != nil {
		a.logger.Error(cmd.Name()+" failed",
			zap.String("class", string(custody.ClassOf(err))),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
