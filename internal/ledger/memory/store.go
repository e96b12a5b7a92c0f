// Package memory provides an in-process ledger store. Writes made inside an
// Update are staged in an overlay and only merged into the committed state
// when the function succeeds.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
)

type state struct {
	authorities map[common.Address]model.Authority
	pools       map[common.Address]model.Pool
	positions   map[common.Address]model.Position
	vaults      map[common.Address]model.Vault
}

func newState() *state {
	return &state{
		authorities: make(map[common.Address]model.Authority),
		pools:       make(map[common.Address]model.Pool),
		positions:   make(map[common.Address]model.Position),
		vaults:      make(map[common.Address]model.Vault),
	}
}

// Store is a ledger.Store held entirely in memory.
type Store struct {
	mu        sync.RWMutex
	committed *state
}

var _ ledger.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{committed: newState()}
}

// Update runs fn with exclusive access to the whole store.
func (s *Store) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{base: s.committed, staged: newState(), writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// View runs fn against a read-only snapshot of the committed state.
func (s *Store) View(ctx context.Context, fn func(tx ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{base: s.committed, staged: newState()})
}

func (s *Store) Close() {}

type memTx struct {
	base     *state
	staged   *state
	writable bool
}

func (t *memTx) commit() {
	for k, v := range t.staged.authorities {
		t.base.authorities[k] = v
	}
	for k, v := range t.staged.pools {
		t.base.pools[k] = v
	}
	for k, v := range t.staged.positions {
		t.base.positions[k] = v
	}
	for k, v := range t.staged.vaults {
		t.base.vaults[k] = v
	}
}

func (t *memTx) checkWritable() error {
	if !t.writable {
		return fmt.Errorf("write in read-only transaction")
	}
	return nil
}

func (t *memTx) Authority(_ context.Context, addr common.Address) (model.Authority, bool, error) {
	rec, ok := lookup(t.staged.authorities, t.base.authorities, addr)
	return rec, ok, nil
}

func (t *memTx) CreateAuthority(_ context.Context, rec model.Authority) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return create(t.staged.authorities, t.base.authorities, rec.Address, rec)
}

func (t *memTx) Pool(_ context.Context, addr common.Address) (model.Pool, bool, error) {
	rec, ok := lookup(t.staged.pools, t.base.pools, addr)
	return rec, ok, nil
}

func (t *memTx) CreatePool(_ context.Context, rec model.Pool) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return create(t.staged.pools, t.base.pools, rec.Address, rec)
}

func (t *memTx) UpdatePool(_ context.Context, rec model.Pool) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return update(t.staged.pools, t.base.pools, rec.Address, rec)
}

func (t *memTx) Position(_ context.Context, addr common.Address) (model.Position, bool, error) {
	rec, ok := lookup(t.staged.positions, t.base.positions, addr)
	return rec, ok, nil
}

func (t *memTx) CreatePosition(_ context.Context, rec model.Position) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return create(t.staged.positions, t.base.positions, rec.Address, rec)
}

func (t *memTx) UpdatePosition(_ context.Context, rec model.Position) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return update(t.staged.positions, t.base.positions, rec.Address, rec)
}

func (t *memTx) Vault(_ context.Context, addr common.Address) (model.Vault, bool, error) {
	rec, ok := lookup(t.staged.vaults, t.base.vaults, addr)
	return rec, ok, nil
}

func (t *memTx) CreateVault(_ context.Context, rec model.Vault) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return create(t.staged.vaults, t.base.vaults, rec.Address, rec)
}

func (t *memTx) UpdateVault(_ context.Context, rec model.Vault) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	return update(t.staged.vaults, t.base.vaults, rec.Address, rec)
}

func lookup[T any](staged, base map[common.Address]T, addr common.Address) (T, bool) {
	if rec, ok := staged[addr]; ok {
		return rec, true
	}
	rec, ok := base[addr]
	return rec, ok
}

func create[T any](staged, base map[common.Address]T, addr common.Address, rec T) error {
	if _, ok := lookup(staged, base, addr); ok {
		return fmt.Errorf("create %s: %w", addr.Hex(), ledger.ErrConflict)
	}
	staged[addr] = rec
	return nil
}

func update[T any](staged, base map[common.Address]T, addr common.Address, rec T) error {
	if _, ok := lookup(staged, base, addr); !ok {
		return fmt.Errorf("update %s: %w", addr.Hex(), ledger.ErrNotFound)
	}
	staged[addr] = rec
	return nil
}
