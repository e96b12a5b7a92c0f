package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"custodyPool/internal/chain"
	"custodyPool/internal/config"
	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
	"custodyPool/internal/vault"
)

func createStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-state",
		Short: "Record the caller as the pool administrator",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(ctx context.Context, a *app) error {
				caller, err := addressFlag(cmd, "caller")
				if err != nil {
					return err
				}
				return a.svc.CreateState(ctx, caller)
			})
		},
	}
	cmd.Flags().String("caller", "", "authenticated caller address")
	return cmd
}

func createPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool",
		Short: "Create a deposit pool for a slug",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(ctx context.Context, a *app) error {
				caller, err := addressFlag(cmd, "caller")
				if err != nil {
					return err
				}
				asset, err := resolveAsset(ctx, cmd, a)
				if err != nil {
					return err
				}
				slug, _ := cmd.Flags().GetString("slug")
				accepted, _ := cmd.Flags().GetUint64("accepted-amount")
				feeRate, _ := cmd.Flags().GetUint16("fee-rate")

				if err := a.svc.CreatePool(ctx, caller, slug, asset, accepted, feeRate); err != nil {
					return err
				}
				pool, err := a.svc.Pool(ctx, slug)
				if err != nil {
					return err
				}
				return printJSON(cmd, pool)
			})
		},
	}
	cmd.Flags().String("caller", "", "authenticated caller address")
	cmd.Flags().String("slug", "", "pool slug ([A-Za-z0-9-], up to 32 bytes)")
	cmd.Flags().String("asset", "", "asset address")
	cmd.Flags().Uint8("decimals", 0, "asset decimals (looked up over --rpc when unset)")
	cmd.Flags().Uint64("accepted-amount", 0, "fixed deposit amount in base units")
	cmd.Flags().Uint16("fee-rate", 0, "withdrawal fee in basis points (0-10000)")
	return cmd
}

// resolveAsset reads the asset flags. Decimals come from the flag when set,
// otherwise from the asset contract over RPC.
func resolveAsset(ctx context.Context, cmd *cobra.Command, a *app) (model.Asset, error) {
	addr, err := addressFlag(cmd, "asset")
	if err != nil {
		return model.Asset{}, err
	}
	if cmd.Flags().Changed("decimals") || a.cfg.RPCURL == "" {
		decimals, _ := cmd.Flags().GetUint8("decimals")
		return model.Asset{Address: addr, Decimals: decimals}, nil
	}

	client, err := chain.NewClient(ctx, a.cfg.RPCURL)
	if err != nil {
		return model.Asset{}, fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	ok, err := client.HasCode(ctx, addr)
	if err != nil {
		return model.Asset{}, fmt.Errorf("check asset code: %w", err)
	}
	if !ok {
		return model.Asset{}, fmt.Errorf("asset %s has no contract code", addr.Hex())
	}

	resolver := chain.NewAssetResolver(client, chain.Backoff{
		MaxRetries: a.cfg.MaxRetries,
		BaseDelay:  a.cfg.RetryBackoff,
	}, a.logger.Named("chain"))
	asset, err := resolver.Resolve(ctx, addr)
	if err != nil {
		return model.Asset{}, err
	}
	a.logger.Info("asset resolved",
		zap.String("asset", asset.Address.Hex()),
		zap.String("symbol", asset.Symbol),
		zap.Uint8("decimals", asset.Decimals),
	)
	return asset, nil
}

func fundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Open an owner's vault for an asset and mint into it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(ctx context.Context, a *app) error {
				owner, err := addressFlag(cmd, "owner")
				if err != nil {
					return err
				}
				asset, err := resolveAsset(ctx, cmd, a)
				if err != nil {
					return err
				}
				amount, _ := cmd.Flags().GetUint64("amount")

				addr := vault.AssociatedAddress(owner, asset.Address)
				err = a.store.Update(ctx, func(tx ledger.Tx) error {
					err := a.gateway.OpenVault(ctx, tx, model.Vault{
						Address:  addr,
						Owner:    owner,
						Asset:    asset.Address,
						Decimals: asset.Decimals,
					})
					if err != nil && !errors.Is(err, vault.ErrVaultExists) {
						return err
					}
					return a.gateway.Mint(ctx, tx, addr, amount)
				})
				if err != nil {
					return fmt.Errorf("fund vault: %w", err)
				}

				v, err := a.svc.Vault(ctx, addr)
				if err != nil {
					return err
				}
				return printJSON(cmd, v)
			})
		},
	}
	cmd.Flags().String("owner", "", "vault owner address")
	cmd.Flags().String("asset", "", "asset address")
	cmd.Flags().Uint8("decimals", 0, "asset decimals (looked up over --rpc when unset)")
	cmd.Flags().Uint64("amount", 0, "amount to mint in base units")
	return cmd
}

func depositCmd() *cobra.Command {
	return transferCmd("deposit", "Deposit the pool's accepted amount", func(ctx context.Context, a *app, caller common.Address, slug string, v common.Address) error {
		return a.svc.Deposit(ctx, caller, slug, v)
	})
}

func withdrawCmd() *cobra.Command {
	return transferCmd("withdraw", "Withdraw a deposit minus the pool fee", func(ctx context.Context, a *app, caller common.Address, slug string, v common.Address) error {
		return a.svc.Withdraw(ctx, caller, slug, v)
	})
}

type transferFunc func(ctx context.Context, a *app, caller common.Address, slug string, target common.Address) error

// transferCmd builds deposit and withdraw. The vault defaults to the caller's
// associated vault for the pool asset.
func transferCmd(use, short string, fn transferFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, func(ctx context.Context, a *app) error {
				caller, err := addressFlag(cmd, "caller")
				if err != nil {
					return err
				}
				slug, _ := cmd.Flags().GetString("slug")

				var target common.Address
				if cmd.Flags().Changed("vault") {
					if target, err = addressFlag(cmd, "vault"); err != nil {
						return err
					}
				} else {
					pool, err := a.svc.Pool(ctx, slug)
					if err != nil {
						return err
					}
					target = vault.AssociatedAddress(caller, pool.Asset)
				}

				if err := fn(ctx, a, caller, slug, target); err != nil {
					return err
				}
				pos, err := a.svc.Position(ctx, slug, caller)
				if err != nil {
					return err
				}
				return printJSON(cmd, pos)
			})
		},
	}
	cmd.Flags().String("caller", "", "authenticated caller address")
	cmd.Flags().String("slug", "", "pool slug")
	cmd.Flags().String("vault", "", "caller vault (defaults to the associated vault)")
	return cmd
}

func addressFlag(cmd *cobra.Command, name string) (common.Address, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return common.Address{}, fmt.Errorf("--%s is required", name)
	}
	addr, err := config.ParseAddress(value)
	if err != nil {
		return common.Address{}, fmt.Errorf("--%s: %w", name, err)
	}
	return addr, nil
}
