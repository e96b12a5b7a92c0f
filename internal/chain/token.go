package chain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"custodyPool/internal/model"
)

var errNilCaller = errors.New("chain caller is nil")

// AssetResolver looks up ERC-20 metadata for pool assets and caches it.
// Decimals are required; symbol and name are best effort.
type AssetResolver struct {
	caller  Caller
	backoff Backoff
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[common.Address]model.Asset
}

func NewAssetResolver(caller Caller, backoff Backoff, logger *zap.Logger) *AssetResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetResolver{
		caller:  caller,
		backoff: backoff,
		logger:  logger,
		cache:   make(map[common.Address]model.Asset),
	}
}

// Resolve returns the metadata of token.
func (r *AssetResolver) Resolve(ctx context.Context, token common.Address) (model.Asset, error) {
	r.mu.RLock()
	asset, ok := r.cache[token]
	r.mu.RUnlock()
	if ok {
		return asset, nil
	}

	err := r.backoff.Do(ctx, func(ctx context.Context) error {
		var err error
		asset, err = r.fetch(ctx, token)
		return err
	})
	if err != nil {
		return model.Asset{}, fmt.Errorf("resolve asset %s: %w", token.Hex(), err)
	}

	r.mu.Lock()
	r.cache[token] = asset
	r.mu.Unlock()
	return asset, nil
}

func (r *AssetResolver) fetch(ctx context.Context, token common.Address) (model.Asset, error) {
	asset := model.Asset{Address: token}
	if r.caller == nil {
		return asset, errNilCaller
	}

	stringABI, err := erc20StringABI()
	if err != nil {
		return asset, fmt.Errorf("parse erc20 abi: %w", err)
	}
	bytes32ABI, err := erc20Bytes32ABI()
	if err != nil {
		return asset, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := r.call(ctx, token, stringABI, "decimals")
	if err != nil {
		return asset, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return asset, fmt.Errorf("decimals: %w", err)
	}
	asset.Decimals = decimals

	asset.Symbol = r.text(ctx, token, stringABI, bytes32ABI, "symbol")
	asset.Name = r.text(ctx, token, stringABI, bytes32ABI, "name")
	return asset, nil
}

// text reads a string method, falling back to the bytes32 variant.
func (r *AssetResolver) text(ctx context.Context, token common.Address, stringABI, bytes32ABI abi.ABI, method string) string {
	if values, err := r.call(ctx, token, stringABI, method); err == nil {
		if s, ok := values[0].(string); ok {
			return s
		}
	}
	values, err := r.call(ctx, token, bytes32ABI, method)
	if err != nil {
		r.logger.Debug("metadata call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
		return ""
	}
	if raw, ok := values[0].([32]byte); ok {
		return string(bytes.TrimRight(raw[:], "\x00"))
	}
	return ""
}

func (r *AssetResolver) call(ctx context.Context, token common.Address, parsed abi.ABI, method string) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("value %s out of range", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
