package model

import "github.com/ethereum/go-ethereum/common"

// Authority is the singleton record naming the administrator.
type Authority struct {
	Address       common.Address `json:"address"`
	Administrator common.Address `json:"administrator"`
}
