package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the report command.
type ReportConfig struct {
	Input         string
	Window        time.Duration
	Out           string
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom uint64
	Slugs         []string
	LogLevel      string
}

// LoadReport merges config file, environment variables, and flags into
// ReportConfig.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"audit-out":  "./data/audit.jsonl",
		"window":     "1h",
		"batch-size": 1000,
		"log-level":  "info",
	})
	if err != nil {
		return ReportConfig{}, err
	}

	window, err := time.ParseDuration(v.GetString("window"))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("invalid window: %w", err)
	}
	if window < time.Second {
		return ReportConfig{}, fmt.Errorf("window must be at least 1s")
	}

	recompute, err := ParseTimestamp(v.GetString("recompute-from"))
	if err != nil {
		return ReportConfig{}, fmt.Errorf("invalid recompute-from: %w", err)
	}

	cfg := ReportConfig{
		Input:         v.GetString("audit-out"),
		Window:        window,
		Out:           v.GetString("out"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: recompute,
		Slugs:         getStringSlice(v, "slug"),
		LogLevel:      v.GetString("log-level"),
	}
	if cfg.Out == "" && cfg.PGDSN == "" {
		return ReportConfig{}, fmt.Errorf("one of out or pg-dsn is required")
	}
	return cfg, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	if val, err := strconv.ParseUint(input, 10, 64); err == nil {
		return val, nil
	}
	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}
