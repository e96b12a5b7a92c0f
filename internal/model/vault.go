package model

import "github.com/ethereum/go-ethereum/common"

// Vault is an asset-holding account. Owner is the only identity allowed to
// move funds out of it.
type Vault struct {
	Address  common.Address `json:"address"`
	Owner    common.Address `json:"owner"`
	Asset    common.Address `json:"asset"`
	Decimals uint8          `json:"decimals"`
	Balance  uint64         `json:"balance"`
}

// Asset identifies a fungible asset and its decimal precision.
type Asset struct {
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol,omitempty"`
	Name     string         `json:"name,omitempty"`
}
