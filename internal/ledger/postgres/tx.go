package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
)

type pgTx struct {
	tx   pgx.Tx
	lock bool
}

func (t *pgTx) forUpdate(query string) string {
	if t.lock {
		return query + " FOR UPDATE"
	}
	return query
}

// insert runs an INSERT ... ON CONFLICT DO NOTHING and reports a conflict
// when no row was written.
func (t *pgTx) insert(ctx context.Context, addr common.Address, query string, args ...any) error {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("create %s: %w", addr.Hex(), ledger.ErrConflict)
	}
	return nil
}

func (t *pgTx) update(ctx context.Context, addr common.Address, query string, args ...any) error {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update %s: %w", addr.Hex(), ledger.ErrNotFound)
	}
	return nil
}

func (t *pgTx) Authority(ctx context.Context, addr common.Address) (model.Authority, bool, error) {
	var administrator string
	row := t.tx.QueryRow(ctx, t.forUpdate(`SELECT administrator FROM authorities WHERE address=$1`), addr.Hex())
	if err := row.Scan(&administrator); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (t *pgTx) CreateAuthority(ctx context.Context, rec model.Authority) error {
	return t.insert(ctx, rec.Address, `
		INSERT INTO authorities (address, administrator, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (address) DO NOTHING
	`, rec.Address.Hex(), rec.Administrator.Hex())
}

func (t *pgTx) Pool(ctx context.Context, addr common.Address) (model.Pool, bool, error) {
	var (
		rec                                          model.Pool
		administrator, asset, depositVault, feeVault string
		accepted, total, fees                        string
		decimals                                     int16
		feeRate                                      int32
	)
	row := t.tx.QueryRow(ctx, t.forUpdate(`
		SELECT slug, administrator, asset, asset_decimals, deposit_vault, fee_vault,
			accepted_amount::text, total_amount::text, fee_rate, fee_amount::text
		FROM pools WHERE address=$1`), addr.Hex())
	if err := row.Scan(&rec.Slug, &administrator, &asset, &decimals, &depositVault, &feeVault,
		&accepted, &total, &feeRate, &fees); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, false, nil
		}
		return model.Pool{}, false, err
	}

	var err error
	rec.Address = addr
	rec.AssetDecimals = uint8(decimals)
	rec.FeeRate = uint16(feeRate)
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

func (t *pgTx) CreatePool(ctx context.Context, rec model.Pool) error {
	return t.insert(ctx, rec.Address, `
		INSERT INTO pools (
			address, slug, administrator, asset, asset_decimals, deposit_vault, fee_vault,
			accepted_amount, total_amount, fee_rate, fee_amount, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9::numeric,$10,$11::numeric,now(),now())
		ON CONFLICT (address) DO NOTHING
	`,
		rec.Address.Hex(),
		rec.Slug,
		rec.Administrator.Hex(),
		rec.Asset.Hex(),
		int16(rec.AssetDecimals),
		rec.DepositVault.Hex(),
		rec.FeeVault.Hex(),
		ledger.FormatAmount(rec.AcceptedAmount),
		ledger.FormatAmount(rec.TotalAmount),
		int32(rec.FeeRate),
		ledger.FormatAmount(rec.FeeAmount),
	)
}

// UpdatePool writes the mutable pool totals; identity columns never change.
func (t *pgTx) UpdatePool(ctx context.Context, rec model.Pool) error {
	return t.update(ctx, rec.Address, `
		UPDATE pools SET
			total_amount = $2::numeric,
			fee_amount = $3::numeric,
			updated_at = now()
		WHERE address = $1
	`, rec.Address.Hex(), ledger.FormatAmount(rec.TotalAmount), ledger.FormatAmount(rec.FeeAmount))
}

func (t *pgTx) Position(ctx context.Context, addr common.Address) (model.Position, bool, error) {
	var pool, participant, amount string
	row := t.tx.QueryRow(ctx, t.forUpdate(`SELECT pool, participant, amount::text FROM positions WHERE address=$1`), addr.Hex())
	if err := row.Scan(&pool, &participant, &amount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (t *pgTx) CreatePosition(ctx context.Context, rec model.Position) error {
	return t.insert(ctx, rec.Address, `
		INSERT INTO positions (address, pool, participant, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4::numeric, now(), now())
		ON CONFLICT (address) DO NOTHING
	`, rec.Address.Hex(), rec.Pool.Hex(), rec.Participant.Hex(), ledger.FormatAmount(rec.Amount))
}

func (t *pgTx) UpdatePosition(ctx context.Context, rec model.Position) error {
	return t.update(ctx, rec.Address, `
		UPDATE positions SET amount = $2::numeric, updated_at = now() WHERE address = $1
	`, rec.Address.Hex(), ledger.FormatAmount(rec.Amount))
}

func (t *pgTx) Vault(ctx context.Context, addr common.Address) (model.Vault, bool, error) {
	var (
		owner, asset, balance string
		decimals              int16
	)
	row := t.tx.QueryRow(ctx, t.forUpdate(`SELECT owner, asset, decimals, balance::text FROM vaults WHERE address=$1`), addr.Hex())
	if err := row.Scan(&owner, &asset, &decimals, &balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Vault{}, false, nil
		}
		return model.Vault{}, false, err
	}

	rec := model.Vault{Address: addr, Decimals: uint8(decimals)}
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

func (t *pgTx) CreateVault(ctx context.Context, rec model.Vault) error {
	return t.insert(ctx, rec.Address, `
		INSERT INTO vaults (address, owner, asset, decimals, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, now(), now())
		ON CONFLICT (address) DO NOTHING
	`, rec.Address.Hex(), rec.Owner.Hex(), rec.Asset.Hex(), int16(rec.Decimals), ledger.FormatAmount(rec.Balance))
}

func (t *pgTx) UpdateVault(ctx context.Context, rec model.Vault) error {
	return t.update(ctx, rec.Address, `
		UPDATE vaults SET balance = $2::numeric, updated_at = now() WHERE address = $1
	`, rec.Address.Hex(), ledger.FormatAmount(rec.Balance))
}
