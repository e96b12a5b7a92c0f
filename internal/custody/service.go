package custody

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"custodyPool/internal/audit"
	"custodyPool/internal/derive"
	"custodyPool/internal/ledger"
	"custodyPool/internal/model"
	"custodyPool/internal/vault"
)

const tracerName = "custodyPool/internal/custody"

// Gateway moves assets between custody vaults inside a ledger transaction.
type Gateway interface {
	OpenVault(ctx context.Context, tx ledger.Tx, v model.Vault) error
	Vault(ctx context.Context, tx ledger.Tx, addr common.Address) (model.Vault, error)
	Transfer(ctx context.Context, tx ledger.Tx, req vault.TransferRequest) error
}

type Config struct {
	Program common.Address
	Audit   audit.Sink
}

// Service runs the pool lifecycle for one program. Every operation is a
// single ledger transaction: it commits completely or not at all.
type Service struct {
	program common.Address
	store   ledger.Store
	gateway Gateway
	audit   audit.Sink
	logger  *zap.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(cfg Config, store ledger.Store, gateway Gateway, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := cfg.Audit
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{
		program: cfg.Program,
		store:   store,
		gateway: gateway,
		audit:   sink,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
	}
}

func (s *Service) Program() common.Address {
	return s.program
}

// CreateState records caller as the administrator. It succeeds once.
func (s *Service) CreateState(ctx context.Context, caller common.Address) (err error) {
	ctx, span := s.start(ctx, "CreateState", caller, "")
	defer func() { s.finish(span, "create_state", err) }()

	if caller == (common.Address{}) {
		return fail(ErrUnauthorized, "empty caller", nil)
	}

	addr := derive.State(s.program)
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		err := tx.CreateAuthority(ctx, model.Authority{Address: addr, Administrator: caller})
		if errors.Is(err, ledger.ErrConflict) {
			return fail(ErrAlreadyExists, "authority", nil)
		}
		if err != nil {
			return fmt.Errorf("create authority: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("state created",
		zap.String("authority", addr.Hex()),
		zap.String("administrator", caller.Hex()),
	)
	s.record(ctx, span, model.Event{Kind: model.EventStateCreated, Participant: caller.Hex()})
	return nil
}

// CreatePool creates the pool for slug and opens its two custody vaults.
func (s *Service) CreatePool(ctx context.Context, caller common.Address, slugInput string, asset model.Asset, acceptedAmount uint64, feeRate uint16) (err error) {
	ctx, span := s.start(ctx, "CreatePool", caller, slugInput)
	defer func() { s.finish(span, "create_pool", err) }()

	slug, err := parseSlug(slugInput)
	if err != nil {
		return err
	}
	if acceptedAmount == 0 {
		return fail(ErrInvalidAcceptedAmount, "must be positive", nil)
	}
	if feeRate > MaxFeeRate {
		return fail(ErrInvalidFeeRate, fmt.Sprintf("%d bps", feeRate), nil)
	}
	if asset.Address == (common.Address{}) {
		return fail(ErrAssetMismatch, "empty asset", nil)
	}

	pool := model.Pool{
		Address:        derive.Pool(s.program, slug),
		Administrator:  caller,
		Asset:          asset.Address,
		AssetDecimals:  asset.Decimals,
		DepositVault:   derive.DepositVault(s.program, slug),
		FeeVault:       derive.FeeVault(s.program, slug),
		Slug:           slug.String(),
		AcceptedAmount: acceptedAmount,
		FeeRate:        feeRate,
	}

	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		auth, ok, err := tx.Authority(ctx, derive.State(s.program))
		if err != nil {
			return fmt.Errorf("load authority: %w", err)
		}
		if !ok {
			return fail(ErrCallerNotAdministrator, "no authority", nil)
		}
		if auth.Administrator != caller {
			return fail(ErrCallerNotAdministrator, caller.Hex(), nil)
		}

		err = tx.CreatePool(ctx, pool)
		if errors.Is(err, ledger.ErrConflict) {
			return fail(ErrAlreadyExists, "pool "+pool.Slug, nil)
		}
		if err != nil {
			return fmt.Errorf("create pool: %w", err)
		}

		for _, addr := range []common.Address{pool.DepositVault, pool.FeeVault} {
			err := s.gateway.OpenVault(ctx, tx, model.Vault{
				Address:  addr,
				Owner:    pool.Address,
				Asset:    pool.Asset,
				Decimals: pool.AssetDecimals,
			})
			if errors.Is(err, vault.ErrVaultExists) {
				return fail(ErrAlreadyExists, "vault "+addr.Hex(), err)
			}
			if err != nil {
				return fmt.Errorf("open custody vault: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("pool created",
		zap.String("slug", pool.Slug),
		zap.String("pool", pool.Address.Hex()),
		zap.String("asset", pool.Asset.Hex()),
		zap.Uint64("accepted_amount", acceptedAmount),
		zap.Uint16("fee_rate", feeRate),
	)
	s.record(ctx, span, model.Event{
		Kind:        model.EventPoolCreated,
		Slug:        pool.Slug,
		Pool:        pool.Address.Hex(),
		Participant: caller.Hex(),
		Asset:       pool.Asset.Hex(),
		Decimals:    pool.AssetDecimals,
		Amount:      ledger.FormatAmount(acceptedAmount),
		FeeRate:     feeRate,
	})
	return nil
}

// Deposit moves the pool's accepted amount from the caller's funding vault
// into custody and marks the caller's position as deposited.
func (s *Service) Deposit(ctx context.Context, caller common.Address, slugInput string, fundingVault common.Address) (err error) {
	ctx, span := s.start(ctx, "Deposit", caller, slugInput)
	defer func() { s.finish(span, "deposit", err) }()

	slug, err := parseSlug(slugInput)
	if err != nil {
		return err
	}

	var pool model.Pool
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		p, err := s.loadPool(ctx, tx, slug)
		if err != nil {
			return err
		}
		pool = p

		posAddr := derive.Position(s.program, slug, caller)
		pos, ok, err := tx.Position(ctx, posAddr)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if !ok {
			pos = model.Position{Address: posAddr, Pool: pool.Address, Participant: caller}
			err = tx.CreatePosition(ctx, pos)
			if errors.Is(err, ledger.ErrConflict) {
				return fail(ErrDuplicateDeposit, "position created concurrently", nil)
			}
			if err != nil {
				return fmt.Errorf("create position: %w", err)
			}
		} else if pos.Pool != pool.Address || pos.Participant != caller {
			return fail(ErrUnauthorized, "position "+posAddr.Hex(), nil)
		}
		if pos.Deposited() {
			return fail(ErrDuplicateDeposit, "", nil)
		}

		if err := s.checkParticipantVault(ctx, tx, caller, pool, fundingVault); err != nil {
			return err
		}

		total, err := checkedAdd(pool.TotalAmount, pool.AcceptedAmount, "total_amount")
		if err != nil {
			return err
		}

		err = s.gateway.Transfer(ctx, tx, vault.TransferRequest{
			From:      fundingVault,
			To:        pool.DepositVault,
			Authority: derive.Participant(caller),
			Asset:     pool.Asset,
			Amount:    pool.AcceptedAmount,
			Decimals:  pool.AssetDecimals,
		})
		if err != nil {
			return transferFailed("deposit", err)
		}

		pos.Amount = pool.AcceptedAmount
		if err := tx.UpdatePosition(ctx, pos); err != nil {
			return fmt.Errorf("update position: %w", err)
		}
		pool.TotalAmount = total
		if err := tx.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("update pool: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("deposited",
		zap.String("slug", pool.Slug),
		zap.String("participant", caller.Hex()),
		zap.Uint64("amount", pool.AcceptedAmount),
		zap.Uint64("total_amount", pool.TotalAmount),
	)
	s.record(ctx, span, model.Event{
		Kind:        model.EventDeposited,
		Slug:        pool.Slug,
		Pool:        pool.Address.Hex(),
		Participant: caller.Hex(),
		Asset:       pool.Asset.Hex(),
		Decimals:    pool.AssetDecimals,
		Amount:      ledger.FormatAmount(pool.AcceptedAmount),
		FeeRate:     pool.FeeRate,
	})
	return nil
}

// Withdraw releases the caller's deposit minus the pool fee into the
// receiving vault and moves the fee into the pool's fee vault.
func (s *Service) Withdraw(ctx context.Context, caller common.Address, slugInput string, receivingVault common.Address) (err error) {
	ctx, span := s.start(ctx, "Withdraw", caller, slugInput)
	defer func() { s.finish(span, "withdraw", err) }()

	slug, err := parseSlug(slugInput)
	if err != nil {
		return err
	}

	var (
		pool             model.Pool
		amount, fee, net uint64
	)
	err = s.store.Update(ctx, func(tx ledger.Tx) error {
		p, err := s.loadPool(ctx, tx, slug)
		if err != nil {
			return err
		}
		pool = p

		posAddr := derive.Position(s.program, slug, caller)
		pos, ok, err := tx.Position(ctx, posAddr)
		if err != nil {
			return fmt.Errorf("load position: %w", err)
		}
		if !ok {
			return fail(ErrNothingToWithdraw, "no position", nil)
		}
		if pos.Pool != pool.Address || pos.Participant != caller {
			return fail(ErrUnauthorized, "position "+posAddr.Hex(), nil)
		}
		if !pos.Deposited() {
			return fail(ErrNothingToWithdraw, "", nil)
		}

		if err := s.checkParticipantVault(ctx, tx, caller, pool, receivingVault); err != nil {
			return err
		}

		amount = pos.Amount
		fee, net, err = SplitFee(amount, pool.FeeRate)
		if err != nil {
			return err
		}
		total, err := checkedSub(pool.TotalAmount, amount, "total_amount")
		if err != nil {
			return err
		}
		fees, err := checkedAdd(pool.FeeAmount, fee, "fee_amount")
		if err != nil {
			return err
		}

		pool.TotalAmount = total
		pool.FeeAmount = fees
		if err := tx.UpdatePool(ctx, pool); err != nil {
			return fmt.Errorf("update pool: %w", err)
		}
		pos.Amount = 0
		if err := tx.UpdatePosition(ctx, pos); err != nil {
			return fmt.Errorf("update position: %w", err)
		}

		signer := derive.PoolCapability(s.program, slug)
		legs := []struct {
			name   string
			to     common.Address
			amount uint64
		}{
			{"withdraw", receivingVault, net},
			{"fee", pool.FeeVault, fee},
		}
		for _, leg := range legs {
			if leg.amount == 0 {
				continue
			}
			err := s.gateway.Transfer(ctx, tx, vault.TransferRequest{
				From:      pool.DepositVault,
				To:        leg.to,
				Authority: signer,
				Asset:     pool.Asset,
				Amount:    leg.amount,
				Decimals:  pool.AssetDecimals,
			})
			if err != nil {
				return transferFailed(leg.name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("withdrawn",
		zap.String("slug", pool.Slug),
		zap.String("participant", caller.Hex()),
		zap.Uint64("amount", amount),
		zap.Uint64("fee", fee),
		zap.Uint64("net", net),
	)
	s.record(ctx, span, model.Event{
		Kind:        model.EventWithdrawn,
		Slug:        pool.Slug,
		Pool:        pool.Address.Hex(),
		Participant: caller.Hex(),
		Asset:       pool.Asset.Hex(),
		Decimals:    pool.AssetDecimals,
		Amount:      ledger.FormatAmount(amount),
		Fee:         ledger.FormatAmount(fee),
		Net:         ledger.FormatAmount(net),
		FeeRate:     pool.FeeRate,
	})
	return nil
}

// loadPool reads the pool for slug and checks that the stored addresses are
// the ones the slug derives to.
func (s *Service) loadPool(ctx context.Context, tx ledger.Tx, slug derive.Slug) (model.Pool, error) {
	addr := derive.Pool(s.program, slug)
	pool, ok, err := tx.Pool(ctx, addr)
	if err != nil {
		return model.Pool{}, fmt.Errorf("load pool: %w", err)
	}
	if !ok {
		return model.Pool{}, fail(ErrPoolNotFound, slug.String(), nil)
	}
	if pool.Address != addr || pool.Slug != slug.String() {
		return model.Pool{}, fail(ErrVaultMismatch, "pool address", nil)
	}
	if pool.DepositVault != derive.DepositVault(s.program, slug) {
		return model.Pool{}, fail(ErrVaultMismatch, "deposit vault", nil)
	}
	if pool.FeeVault != derive.FeeVault(s.program, slug) {
		return model.Pool{}, fail(ErrVaultMismatch, "fee vault", nil)
	}
	return pool, nil
}

// checkParticipantVault requires addr to be a vault the caller owns that
// holds the pool asset.
func (s *Service) checkParticipantVault(ctx context.Context, tx ledger.Tx, caller common.Address, pool model.Pool, addr common.Address) error {
	if addr == pool.DepositVault || addr == pool.FeeVault {
		return fail(ErrUnauthorized, "custody vault", nil)
	}
	v, err := s.gateway.Vault(ctx, tx, addr)
	if errors.Is(err, vault.ErrVaultNotFound) {
		return fail(ErrUnauthorized, "unknown vault "+addr.Hex(), err)
	}
	if err != nil {
		return err
	}
	if v.Owner != caller {
		return fail(ErrUnauthorized, "vault "+addr.Hex()+" not owned by caller", nil)
	}
	if v.Asset != pool.Asset {
		return fail(ErrAssetMismatch, v.Asset.Hex(), nil)
	}
	return nil
}

func parseSlug(input string) (derive.Slug, error) {
	slug, err := derive.ParseSlug(input)
	if err != nil {
		return slug, fail(ErrInvalidSlug, fmt.Sprintf("%q", input), err)
	}
	return slug, nil
}

func (s *Service) start(ctx context.Context, op string, caller common.Address, slug string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "custody."+op, trace.WithAttributes(
		attribute.String("custody.caller", caller.Hex()),
		attribute.String("custody.slug", slug),
	))
}

func (s *Service) finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Debug("operation rejected",
			zap.String("op", op),
			zap.String("class", string(ClassOf(err))),
			zap.Error(err),
		)
	}
	span.End()
}

// record emits the audit event for a committed operation. A sink failure
// does not undo the commit; it is logged.
func (s *Service) record(ctx context.Context, span trace.Span, event model.Event) {
	now := s.now().UTC()
	event.ID = uuid.NewString()
	event.Timestamp = uint64(now.Unix())
	event.RecordedAt = now.Format(time.RFC3339)
	if sc := span.SpanContext(); sc.HasTraceID() {
		event.TraceID = sc.TraceID().String()
	}
	if err := s.audit.PutEvents(ctx, []model.Event{event}); err != nil {
		s.logger.Warn("audit write failed", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
