package custody

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"custodyPool/internal/derive"
	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
)

// ErrNotFound is returned by the read methods for a missing record.
var ErrNotFound = ledger.ErrNotFound

func (s *Service) Authority(ctx context.Context) (model.Authority, error) {
	var out model.Authority
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		rec, ok, err := tx.Authority(ctx, derive.State(s.program))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("authority: %w", ErrNotFound)
		}
		out = rec
		return nil
	})
	return out, err
}

func (s *Service) Pool(ctx context.Context, slugInput string) (model.Pool, error) {
	slug, err := parseSlug(slugInput)
	if err != nil {
		return model.Pool{}, err
	}
	var out model.Pool
	err = s.store.View(ctx, func(tx ledger.Tx) error {
		rec, ok, err := tx.Pool(ctx, derive.Pool(s.program, slug))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("pool %s: %w", slug, ErrNotFound)
		}
		out = rec
		return nil
	})
	return out, err
}

// Position returns the participant's position in the pool. A participant who
// never deposited gets ErrNotFound.
func (s *Service) Position(ctx context.Context, slugInput string, participant common.Address) (model.Position, error) {
	slug, err := parseSlug(slugInput)
	if err != nil {
		return model.Position{}, err
	}
	var out model.Position
	err = s.store.View(ctx, func(tx ledger.Tx) error {
		rec, ok, err := tx.Position(ctx, derive.Position(s.program, slug, participant))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("position %s/%s: %w", slug, participant.Hex(), ErrNotFound)
		}
		out = rec
		return nil
	})
	return out, err
}

func (s *Service) Vault(ctx context.Context, addr common.Address) (model.Vault, error) {
	var out model.Vault
	err := s.store.View(ctx, func(tx ledger.Tx) error {
		v, err := s.gateway.Vault(ctx, tx, addr)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
