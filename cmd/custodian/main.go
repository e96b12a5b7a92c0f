package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "custodian",
		Short:        "Custodial deposit pool service",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("program-id", "", "program address the records derive from")
	flags.String("store", "sqlite", "record store (sqlite, postgres)")
	flags.String("sqlite-path", "./data/custody.db", "SQLite database file")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("audit-out", "./data/audit.jsonl", "audit event JSONL path")
	flags.String("rpc", "", "EVM RPC URL for asset metadata")
	flags.String("otel-endpoint", "", "OTLP/HTTP trace endpoint")
	flags.Int("max-retries", 3, "maximum RPC retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial RPC retry backoff")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		createStateCmd(),
		createPoolCmd(),
		fundCmd(),
		depositCmd(),
		withdrawCmd(),
		showCmd(),
		migrateCmd(),
		reportCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
