package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"custodyPool/internal/model"
)

var (
	// ErrConflict is returned by a Create when the key already holds a record.
	ErrConflict = errors.New("record already exists")
	// ErrNotFound is returned by an Update when the key holds no record.
	ErrNotFound = errors.New("record not found")
)

// Tx is a view of the record store inside one atomic unit. Reads through a Tx
// that was opened by Update hold the record exclusively until the Tx ends.
// Every Get returns ok=false rather than an error for a missing record.
type Tx interface {
	Authority(ctx context.Context, addr common.Address) (model.Authority, bool, error)
	CreateAuthority(ctx context.Context, rec model.Authority) error

	Pool(ctx context.Context, addr common.Address) (model.Pool, bool, error)
	CreatePool(ctx context.Context, rec model.Pool) error
	UpdatePool(ctx context.Context, rec model.Pool) error

	Position(ctx context.Context, addr common.Address) (model.Position, bool, error)
	CreatePosition(ctx context.Context, rec model.Position) error
	UpdatePosition(ctx context.Context, rec model.Position) error

	Vault(ctx context.Context, addr common.Address) (model.Vault, bool, error)
	CreateVault(ctx context.Context, rec model.Vault) error
	UpdateVault(ctx context.Context, rec model.Vault) error
}

// Store runs functions against the record store. Update commits all writes
// made through the Tx when fn returns nil and discards every one of them
// otherwise.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Close()
}

// FormatAmount renders a base-unit amount for SQL numeric/text columns.
func FormatAmount(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParseAmount reads a base-unit amount written by FormatAmount. NUMERIC
// columns may come back with a trailing fractional part of zeros.
func ParseAmount(s string) (uint64, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return 0, fmt.Errorf("amount %q is not integral", s)
		}
		s = s[:i]
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// ParseAddress reads a hex address column.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	return common.HexToAddress(s), nil
}
