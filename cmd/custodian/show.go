package main

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"custodyPool/internal/config"
	"custodyPool/internal/custody"
	"custodyPool/internal/derive"
	"custodyPool/internal/model"
)

type poolView struct {
	Pool      model.Pool       `json:"pool"`
	Custody   []model.Vault    `json:"custody_vaults"`
	Positions []model.Position `json:"positions,omitempty"`
}

type stateView struct {
	Program   string           `json:"program"`
	Authority *model.Authority `json:"authority,omitempty"`
	Pool      *poolView        `json:"pool,omitempty"`
	Vaults    []model.Vault    `json:"vaults,omitempty"`
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print committed records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(ctx context.Context, a *app) error {
				view := stateView{Program: a.cfg.ProgramID.Hex()}

				auth, err := a.svc.Authority(ctx)
				switch {
				case err == nil:
					view.Authority = &auth
				case !errors.Is(err, custody.ErrNotFound):
					return err
				}

				if slug, _ := cmd.Flags().GetString("slug"); slug != "" {
					pv, err := showPool(ctx, cmd, a, slug)
					if err != nil {
						return err
					}
					view.Pool = pv
				}

				vaults, _ := cmd.Flags().GetStringSlice("vault")
				addrs, err := config.ParseAddresses(vaults)
				if err != nil {
					return err
				}
				for _, addr := range addrs {
					v, err := a.svc.Vault(ctx, addr)
					if err != nil {
						return err
					}
					view.Vaults = append(view.Vaults, v)
				}

				return printJSON(cmd, view)
			})
		},
	}
	cmd.Flags().String("slug", "", "pool slug to show")
	cmd.Flags().StringSlice("participant", nil, "participants whose positions to show (comma-separated)")
	cmd.Flags().StringSlice("vault", nil, "vault addresses to show (comma-separated)")
	return cmd
}

func showPool(ctx context.Context, cmd *cobra.Command, a *app, slug string) (*poolView, error) {
	pool, err := a.svc.Pool(ctx, slug)
	if err != nil {
		return nil, err
	}
	pv := &poolView{Pool: pool}
	for _, addr := range []common.Address{pool.DepositVault, pool.FeeVault} {
		v, err := a.svc.Vault(ctx, addr)
		if err != nil {
			return nil, err
		}
		pv.Custody = append(pv.Custody, v)
	}

	participants, _ := cmd.Flags().GetStringSlice("participant")
	addrs, err := config.ParseAddresses(participants)
	if err != nil {
		return nil, err
	}
	for _, who := range addrs {
		pos, err := a.svc.Position(ctx, slug, who)
		if errors.Is(err, custody.ErrNotFound) {
			pos = model.Position{Address: derive.Position(a.cfg.ProgramID, derive.MustSlug(slug), who), Pool: pool.Address, Participant: who}
		} else if err != nil {
			return nil, err
		}
		pv.Positions = append(pv.Positions, pos)
	}
	return pv, nil
}
