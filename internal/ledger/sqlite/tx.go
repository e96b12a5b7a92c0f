package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
)

type sqlTx struct {
	tx       *sql.Tx
	readOnly bool
}

func (t *sqlTx) exec(ctx context.Context, addr common.Address, missing error, query string, args ...any) error {
	if t.readOnly {
		return fmt.Errorf("write in read-only transaction")
	}
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", addr.Hex(), missing)
	}
	return nil
}

func (t *sqlTx) Authority(ctx context.Context, addr common.Address) (model.Authority, bool, error) {
	var administrator string
	row := t.tx.QueryRowContext(ctx, `SELECT administrator FROM authorities WHERE address=?`, addr.Hex())
	if err := row.Scan(&administrator); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Authority{}, false, nil
		}
		return model.Authority{}, false, err
	}
	admin, err := ledger.ParseAddress(administrator)
	if err != nil {
		return model.Authority{}, false, err
	}
	return model.Authority{Address: addr, Administrator: admin}, true, nil
}

func (t *sqlTx) CreateAuthority(ctx context.Context, rec model.Authority) error {
	return t.exec(ctx, rec.Address, ledger.ErrConflict, `
		INSERT INTO authorities (address, administrator) VALUES (?, ?)
		ON CONFLICT (address) DO NOTHING
	`, rec.Address.Hex(), rec.Administrator.Hex())
}

func (t *sqlTx) Pool(ctx context.Context, addr common.Address) (model.Pool, bool, error) {
	var (
		rec                                          model.Pool
		administrator, asset, depositVault, feeVault string
		accepted, total, fees                        string
	)
	row := t.tx.QueryRowContext(ctx, `
		SELECT slug, administrator, asset, asset_decimals, deposit_vault, fee_vault,
			accepted_amount, total_amount, fee_rate, fee_amount
		FROM pools WHERE address=?`, addr.Hex())
	if err := row.Scan(&rec.Slug, &administrator, &asset, &rec.AssetDecimals, &depositVault, &feeVault,
		&accepted, &total, &rec.FeeRate, &fees); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}

	var err error
	rec.Address = addr
	if rec.Administrator, err = ledger.ParseAddress(administrator); err != nil {
		return model.Pool{}, false, err
	}
	if rec.Asset, err = ledger.ParseAddress(asset); err != nil {
		return model.Pool{}, false, err
	}
	if rec.DepositVault, err = ledger.ParseAddress(depositVault); err != nil {
		return model.Pool{}, false, err
	}
	if rec.FeeVault, err = ledger.ParseAddress(feeVault); err != nil {
		return model.Pool{}, false, err
	}
	if rec.AcceptedAmount, err = ledger.ParseAmount(accepted); err != nil {
		return model.Pool{}, false, err
	}
	if rec.TotalAmount, err = ledger.ParseAmount(total); err != nil {
		return model.Pool{}, false, err
	}
	if rec.FeeAmount, err = ledger.ParseAmount(fees); err != nil {
		return model.Pool{}, false, err
	}
	return rec, true, nil
}

func (t *sqlTx) CreatePool(ctx context.Context, rec model.Pool) error {
	return t.exec(ctx, rec.Address, ledger.ErrConflict, `
		INSERT INTO pools (
			address, slug, administrator, asset, asset_decimals, deposit_vault, fee_vault,
			accepted_amount, total_amount, fee_rate, fee_amount
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (address) DO NOTHING
	`,
		rec.Address.Hex(),
		rec.Slug,
		rec.Administrator.Hex(),
		rec.Asset.Hex(),
		rec.AssetDecimals,
		rec.DepositVault.Hex(),
		rec.FeeVault.Hex(),
		ledger.FormatAmount(rec.AcceptedAmount),
		ledger.FormatAmount(rec.TotalAmount),
		rec.FeeRate,
		ledger.FormatAmount(rec.FeeAmount),
	)
}

func (t *sqlTx) UpdatePool(ctx context.Context, rec model.Pool) error {
	return t.exec(ctx, rec.Address, ledger.ErrNotFound, `
		UPDATE pools SET total_amount = ?, fee_amount = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE address = ?
	`, ledger.FormatAmount(rec.TotalAmount), ledger.FormatAmount(rec.FeeAmount), rec.Address.Hex())
}

func (t *sqlTx) Position(ctx context.Context, addr common.Address) (model.Position, bool, error) {
	var pool, participant, amount string
	row := t.tx.QueryRowContext(ctx, `SELECT pool, participant, amount FROM positions WHERE address=?`, addr.Hex())
	if err := row.Scan(&pool, &participant, &amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Position{}, false, nil
		}
		return model.Position{}, false, err
	}

	rec := model.Position{Address: addr}
	var err error
	if rec.Pool, err = ledger.ParseAddress(pool); err != nil {
		return model.Position{}, false, err
	}
	if rec.Participant, err = ledger.ParseAddress(participant); err != nil {
		return model.Position{}, false, err
	}
	if rec.Amount, err = ledger.ParseAmount(amount); err != nil {
		return model.Position{}, false, err
	}
	return rec, true, nil
}

func (t *sqlTx) CreatePosition(ctx context.Context, rec model.Position) error {
	return t.exec(ctx, rec.Address, ledger.ErrConflict, `
		INSERT INTO positions (address, pool, participant, amount) VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING
	`, rec.Address.Hex(), rec.Pool.Hex(), rec.Participant.Hex(), ledger.FormatAmount(rec.Amount))
}

func (t *sqlTx) UpdatePosition(ctx context.Context, rec model.Position) error {
	return t.exec(ctx, rec.Address, ledger.ErrNotFound, `
		UPDATE positions SET amount = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE address = ?
	`, ledger.FormatAmount(rec.Amount), rec.Address.Hex())
}

func (t *sqlTx) Vault(ctx context.Context, addr common.Address) (model.Vault, bool, error) {
	var owner, asset, balance string
	rec := model.Vault{Address: addr}
	row := t.tx.QueryRowContext(ctx, `SELECT owner, asset, decimals, balance FROM vaults WHERE address=?`, addr.Hex())
	if err := row.Scan(&owner, &asset, &rec.Decimals, &balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Vault{}, false, nil
		}
		return model.Vault{}, false, err
	}

	var err error
	if rec.Owner, err = ledger.ParseAddress(owner); err != nil {
		return model.Vault{}, false, err
	}
	if rec.Asset, err = ledger.ParseAddress(asset); err != nil {
		return model.Vault{}, false, err
	}
	if rec.Balance, err = ledger.ParseAmount(balance); err != nil {
		return model.Vault{}, false, err
	}
	return rec, true, nil
}

func (t *sqlTx) CreateVault(ctx context.Context, rec model.Vault) error {
	return t.exec(ctx, rec.Address, ledger.ErrConflict, `
		INSERT INTO vaults (address, owner, asset, decimals, balance) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING
	`, rec.Address.Hex(), rec.Owner.Hex(), rec.Asset.Hex(), rec.Decimals, ledger.FormatAmount(rec.Balance))
}

func (t *sqlTx) UpdateVault(ctx context.Context, rec model.Vault) error {
	return t.exec(ctx, rec.Address, ledger.ErrNotFound, `
		UPDATE vaults SET balance = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE address = ?
	`, ledger.FormatAmount(rec.Balance), rec.Address.Hex())
}
