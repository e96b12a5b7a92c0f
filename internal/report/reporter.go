// Package report folds the audit log into per-pool time windows.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"custodyPool/internal/audit"
	"custodyPool/internal/model"
)

// StatsWriter receives completed windows.
type StatsWriter interface {
	UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error
}

// Config controls report behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
	// Slugs limits the report to these pools when non-empty.
	Slugs []string
}

// Reporter aggregates audit events into pool window stats.
type Reporter struct {
	cfg          Config
	writer       StatsWriter
	logger       *zap.Logger
	slugs        map[string]struct{}
	accumulators map[string]*Accumulator
	resumeFrom   uint64
}

func NewReporter(cfg Config, writer StatsWriter, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	var slugs map[string]struct{}
	if len(cfg.Slugs) > 0 {
		slugs = make(map[string]struct{}, len(cfg.Slugs))
		for _, slug := range cfg.Slugs {
			slugs[slug] = struct{}{}
		}
	}
	return &Reporter{
		cfg:          cfg,
		writer:       writer,
		logger:       logger,
		slugs:        slugs,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run reads audit events from r. Events must arrive in commit order, which
// the audit sink guarantees for a single custodian.
func (r *Reporter) Run(ctx context.Context, in io.Reader) error {
	if r.writer == nil {
		return fmt.Errorf("stats writer is nil")
	}
	if r.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}

	startTs, err := r.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}
	r.resumeFrom = startTs

	batch := make([]model.PoolWindowStats, 0, r.cfg.BatchSize)
	var total, windows, skipped, failed int

	err = audit.ReadEvents(in, func(event model.Event) error {
		total++
		if event.Kind != model.EventDeposited && event.Kind != model.EventWithdrawn {
			skipped++
			return nil
		}
		if event.Timestamp < startTs || event.Pool == "" {
			skipped++
			return nil
		}
		if r.slugs != nil {
			if _, ok := r.slugs[event.Slug]; !ok {
				skipped++
				return nil
			}
		}

		ws := windowStart(event.Timestamp, r.cfg.WindowSeconds)
		key := strings.ToLower(event.Pool)
		acc := r.accumulators[key]
		if acc == nil {
			acc = NewAccumulator(event, ws, ws+r.cfg.WindowSeconds)
			r.accumulators[key] = acc
		} else if acc.WindowStart != ws {
			batch = append(batch, r.stats(acc))
			windows++
			acc = NewAccumulator(event, ws, ws+r.cfg.WindowSeconds)
			r.accumulators[key] = acc
		}

		if err := acc.AddEvent(event); err != nil {
			failed++
			r.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", event.Pool), zap.String("id", event.ID))
			return nil
		}
		if len(batch) >= r.cfg.BatchSize {
			if err := r.writer.UpsertWindowStats(ctx, batch); err != nil {
				return fmt.Errorf("write stats: %w", err)
			}
			batch = batch[:0]
			if err := r.saveState(ctx); err != nil {
				return err
			}
		}
		return nil
	}, func(_ []byte, err error) {
		failed++
		r.logger.Warn("decode audit event", zap.Error(err))
	})
	if err != nil {
		return err
	}

	// Open windows are written as they stand; the checkpoint stays at the
	// oldest of them so the next run rebuilds each one in full.
	for _, acc := range r.accumulators {
		batch = append(batch, r.stats(acc))
		windows++
	}
	if len(batch) > 0 {
		if err := r.writer.UpsertWindowStats(ctx, batch); err != nil {
			return fmt.Errorf("write stats: %w", err)
		}
	}
	if err := r.saveState(ctx); err != nil {
		return err
	}
	r.accumulators = make(map[string]*Accumulator)

	r.logger.Info("report complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func (r *Reporter) stats(acc *Accumulator) model.PoolWindowStats {
	return model.PoolWindowStats{
		PoolAddress:     acc.Pool,
		Slug:            acc.Slug,
		WindowSizeSecs:  int64(r.cfg.WindowSeconds),
		WindowStart:     time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:       time.Unix(int64(acc.WindowEnd), 0).UTC(),
		Deposits:        acc.Deposits,
		Withdrawals:     acc.Withdrawals,
		DepositVolume:   formatTokenAmount(acc.Deposited, acc.Decimals),
		WithdrawnVolume: formatTokenAmount(acc.Withdrawn, acc.Decimals),
		NetPaid:         formatTokenAmount(acc.NetPaid, acc.Decimals),
		Fees:            formatTokenAmount(acc.Fees, acc.Decimals),
		EffectiveFeeBps: effectiveFeeBps(acc.Fees, acc.Withdrawn),
	}
}

// loadStartTimestamp returns the first timestamp to aggregate, inclusive.
func (r *Reporter) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if r.cfg.RecomputeFrom > 0 {
		return windowStart(r.cfg.RecomputeFrom, r.cfg.WindowSeconds), nil
	}
	if r.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := r.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return windowStart(last, r.cfg.WindowSeconds), nil
}

// saveState checkpoints at the start of the oldest open window. Windows
// written so far that start before it are final.
func (r *Reporter) saveState(ctx context.Context) error {
	if r.cfg.StateStore == nil {
		return nil
	}
	if start, ok := minOpenWindowStart(r.accumulators); ok {
		r.resumeFrom = start
	}
	return r.cfg.StateStore.Save(ctx, r.resumeFrom)
}
