package model

import "time"

// PoolWindowStats stores aggregated audit activity for a pool window.
// Volumes are decimal strings scaled by the asset decimals.
type PoolWindowStats struct {
	PoolAddress     string    `json:"pool_address"`
	Slug            string    `json:"slug"`
	WindowSizeSecs  int64     `json:"window_size_seconds"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	Deposits        uint64    `json:"deposits"`
	Withdrawals     uint64    `json:"withdrawals"`
	DepositVolume   string    `json:"deposit_volume"`
	WithdrawnVolume string    `json:"withdrawn_volume"`
	NetPaid         string    `json:"net_paid"`
	Fees            string    `json:"fees"`
	EffectiveFeeBps *string   `json:"effective_fee_bps,omitempty"`
}
