package model

import "github.com/ethereum/go-ethereum/common"

// Pool is the per-slug pool record.
type Pool struct {
	Address        common.Address `json:"address"`
	Administrator  common.Address `json:"administrator"`
	Asset          common.Address `json:"asset"`
	AssetDecimals  uint8          `json:"asset_decimals"`
	DepositVault   common.Address `json:"deposit_vault"`
	FeeVault       common.Address `json:"fee_vault"`
	Slug           string         `json:"slug"`
	AcceptedAmount uint64         `json:"accepted_amount"`
	TotalAmount    uint64         `json:"total_amount"`
	FeeRate        uint16         `json:"fee_rate"`
	FeeAmount      uint64         `json:"fee_amount"`
}
