package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"custodyPool/internal/model"
)

// UpsertWindowStats inserts or updates pool window stats.
func (s *Store) UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, st := range stats {
		batch.Queue(`
			INSERT INTO pool_window_stats (
				pool_address, slug, window_size_seconds, window_start_ts, window_end_ts,
				deposits, withdrawals, deposit_volume, withdrawn_volume, net_paid, fees,
				effective_fee_bps, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9::numeric,$10::numeric,$11::numeric,$12::numeric,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				slug = EXCLUDED.slug,
				window_end_ts = EXCLUDED.window_end_ts,
				deposits = EXCLUDED.deposits,
				withdrawals = EXCLUDED.withdrawals,
				deposit_volume = EXCLUDED.deposit_volume,
				withdrawn_volume = EXCLUDED.withdrawn_volume,
				net_paid = EXCLUDED.net_paid,
				fees = EXCLUDED.fees,
				effective_fee_bps = EXCLUDED.effective_fee_bps,
				updated_at = now()
		`,
			st.PoolAddress,
			st.Slug,
			st.WindowSizeSecs,
			st.WindowStart,
			st.WindowEnd,
			int64(st.Deposits),
			int64(st.Withdrawals),
			st.DepositVolume,
			st.WithdrawnVolume,
			st.NetPaid,
			st.Fees,
			st.EffectiveFeeBps,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the resume checkpoint stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT resume_from_ts FROM report_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts the resume checkpoint for name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_state (name, resume_from_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET resume_from_ts = EXCLUDED.resume_from_ts, updated_at = now()
	`, name, int64(ts))
	return err
}
