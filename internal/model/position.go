package model

import "github.com/ethereum/go-ethereum/common"

// Position tracks one participant's deposit in one pool. Amount is either 0
// or the pool's accepted amount.
type Position struct {
	Address     common.Address `json:"address"`
	Pool        common.Address `json:"pool"`
	Participant common.Address `json:"participant"`
	Amount      uint64         `json:"amount"`
}

// Deposited reports whether the position currently holds funds.
func (p Position) Deposited() bool {
	return p.Amount > 0
}
