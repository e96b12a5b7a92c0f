// Package vault keeps custody vault balances in the ledger store and moves
// assets between them. Every call joins the caller's ledger transaction, so
// a transfer is committed or discarded together with the records the caller
// changed in the same unit.
package vault

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"custodyPool/internal/derive"
	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
)

var (
	ErrVaultNotFound     = errors.New("vault not found")
	ErrVaultExists       = errors.New("vault already exists")
	ErrUnauthorized      = errors.New("authorizer does not own source vault")
	ErrAssetMismatch     = errors.New("vault asset mismatch")
	ErrDecimalsMismatch  = errors.New("asset decimals mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrSameVault         = errors.New("source and destination are the same vault")
)

// TransferRequest moves Amount of Asset from From to To under Authority.
type TransferRequest struct {
	From      common.Address
	To        common.Address
	Authority derive.Authorizer
	Asset     common.Address
	Amount    uint64
	Decimals  uint8
}

// Ledger is the vault gateway for one program.
type Ledger struct {
	program common.Address
	logger  *zap.Logger
}

func NewLedger(program common.Address, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{program: program, logger: logger}
}

// AssociatedAddress is the conventional vault address for an owner and asset.
func AssociatedAddress(owner, asset common.Address) common.Address {
	hash := crypto.Keccak256([]byte("associated_vault"), owner.Bytes(), asset.Bytes())
	return common.BytesToAddress(hash[12:])
}

// OpenVault creates an empty vault.
func (l *Ledger) OpenVault(ctx context.Context, tx ledger.Tx, v model.Vault) error {
	v.Balance = 0
	if err := tx.CreateVault(ctx, v); err != nil {
		if errors.Is(err, ledger.ErrConflict) {
			return fmt.Errorf("open vault %s: %w", v.Address.Hex(), ErrVaultExists)
		}
		return fmt.Errorf("open vault %s: %w", v.Address.Hex(), err)
	}
	return nil
}

// Vault loads a vault record.
func (l *Ledger) Vault(ctx context.Context, tx ledger.Tx, addr common.Address) (model.Vault, error) {
	v, ok, err := tx.Vault(ctx, addr)
	if err != nil {
		return model.Vault{}, fmt.Errorf("load vault %s: %w", addr.Hex(), err)
	}
	if !ok {
		return model.Vault{}, fmt.Errorf("load vault %s: %w", addr.Hex(), ErrVaultNotFound)
	}
	return v, nil
}

// Mint credits amount to a vault out of thin air. It exists for funding
// participant vaults in local deployments and tests.
func (l *Ledger) Mint(ctx context.Context, tx ledger.Tx, addr common.Address, amount uint64) error {
	v, err := l.Vault(ctx, tx, addr)
	if err != nil {
		return err
	}
	if v.Balance > math.MaxUint64-amount {
		return fmt.Errorf("mint %s: %w", addr.Hex(), ErrBalanceOverflow)
	}
	v.Balance += amount
	return tx.UpdateVault(ctx, v)
}

// Transfer performs a checked transfer. Either both balances change or the
// call returns an error and neither does.
func (l *Ledger) Transfer(ctx context.Context, tx ledger.Tx, req TransferRequest) error {
	if req.Authority == nil || !req.Authority.Verify(l.program) {
		return fmt.Errorf("transfer: %w", ErrUnauthorized)
	}
	if req.From == req.To {
		return fmt.Errorf("transfer: %w", ErrSameVault)
	}

	from, err := l.Vault(ctx, tx, req.From)
	if err != nil {
		return err
	}
	to, err := l.Vault(ctx, tx, req.To)
	if err != nil {
		return err
	}

	if from.Owner != req.Authority.Identity() {
		return fmt.Errorf("transfer from %s: %w", from.Address.Hex(), ErrUnauthorized)
	}
	if from.Asset != req.Asset || to.Asset != req.Asset {
		return fmt.Errorf("transfer %s: %w", req.Asset.Hex(), ErrAssetMismatch)
	}
	if from.Decimals != req.Decimals || to.Decimals != req.Decimals {
		return fmt.Errorf("transfer %s: %w", req.Asset.Hex(), ErrDecimalsMismatch)
	}
	if from.Balance < req.Amount {
		return fmt.Errorf("transfer from %s: %w", from.Address.Hex(), ErrInsufficientFunds)
	}
	if to.Balance > math.MaxUint64-req.Amount {
		return fmt.Errorf("transfer to %s: %w", to.Address.Hex(), ErrBalanceOverflow)
	}

	from.Balance -= req.Amount
	to.Balance += req.Amount
	if err := tx.UpdateVault(ctx, from); err != nil {
		return fmt.Errorf("debit %s: %w", from.Address.Hex(), err)
	}
	if err := tx.UpdateVault(ctx, to); err != nil {
		return fmt.Errorf("credit %s: %w", to.Address.Hex(), err)
	}

	l.logger.Debug("transfer",
		zap.String("from", from.Address.Hex()),
		zap.String("to", to.Address.Hex()),
		zap.String("asset", req.Asset.Hex()),
		zap.Uint64("amount", req.Amount),
	)
	return nil
}
