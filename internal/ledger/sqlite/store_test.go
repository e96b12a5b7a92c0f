package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	pool := model.Pool{
		Address:        common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Administrator:  common.HexToAddress("0x2222222222222222222222222222222222222222"),
		Asset:          common.HexToAddress("0x3333333333333333333333333333333333333333"),
		AssetDecimals:  9,
		DepositVault:   common.HexToAddress("0x4444444444444444444444444444444444444444"),
		FeeVault:       common.HexToAddress("0x5555555555555555555555555555555555555555"),
		Slug:           "test",
		AcceptedAmount: 18446744073709551615,
		FeeRate:        10000,
	}
	position := model.Position{
		Address:     common.HexToAddress("0x6666666666666666666666666666666666666666"),
		Pool:        pool.Address,
		Participant: common.HexToAddress("0x7777777777777777777777777777777777777777"),
	}

	err := store.Update(ctx, func(tx ledger.Tx) error {
		if err := tx.CreatePool(ctx, pool); err != nil {
			return err
		}
		if err := tx.CreatePosition(ctx, position); err != nil {
			return err
		}
		position.Amount = pool.AcceptedAmount
		if err := tx.UpdatePosition(ctx, position); err != nil {
			return err
		}
		pool.TotalAmount = pool.AcceptedAmount
		return tx.UpdatePool(ctx, pool)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = store.View(ctx, func(tx ledger.Tx) error {
		gotPool, ok, err := tx.Pool(ctx, pool.Address)
		if err != nil || !ok {
			t.Fatalf("pool lookup: ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(gotPool, pool) {
			t.Fatalf("pool mismatch: %+v != %+v", gotPool, pool)
		}
		gotPosition, ok, err := tx.Position(ctx, position.Address)
		if err != nil || !ok {
			t.Fatalf("position lookup: ok=%v err=%v", ok, err)
		}
		if !reflect.DeepEqual(gotPosition, position) {
			t.Fatalf("position mismatch: %+v != %+v", gotPosition, position)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestStoreConflictAndRollback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	vault := model.Vault{
		Address: common.HexToAddress("0x8888888888888888888888888888888888888888"),
		Owner:   common.HexToAddress("0x9999999999999999999999999999999999999999"),
		Asset:   common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
		Balance: 100,
	}

	if err := store.Update(ctx, func(tx ledger.Tx) error { return tx.CreateVault(ctx, vault) }); err != nil {
		t.Fatalf("create vault: %v", err)
	}

	err := store.Update(ctx, func(tx ledger.Tx) error { return tx.CreateVault(ctx, vault) })
	if !errors.Is(err, ledger.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}

	boom := errors.New("boom")
	err = store.Update(ctx, func(tx ledger.Tx) error {
		updated := vault
		updated.Balance = 1
		if err := tx.UpdateVault(ctx, updated); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}

	_ = store.View(ctx, func(tx ledger.Tx) error {
		got, _, err := tx.Vault(ctx, vault.Address)
		if err != nil {
			t.Fatalf("vault lookup: %v", err)
		}
		if got.Balance != 100 {
			t.Fatalf("balance = %d after rollback, want 100", got.Balance)
		}
		return nil
	})
}
