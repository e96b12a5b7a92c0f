package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

type fakeCaller struct {
	mu        sync.Mutex
	responses map[string][]byte
	failFirst int
	calls     int
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failFirst > 0 {
		f.failFirst--
		return nil, errors.New("rpc unavailable")
	}
	resp, ok := f.responses[string(msg.Data[:4])]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func packed(t *testing.T, bytes32 bool, method string, value interface{}) (string, []byte) {
	t.Helper()
	parsed, err := erc20StringABI()
	if bytes32 {
		parsed, err = erc20Bytes32ABI()
	}
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	m := parsed.Methods[method]
	out, err := m.Outputs.Pack(value)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	return string(m.ID), out
}

func TestAssetResolverStringMetadata(t *testing.T) {
	token := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	caller := &fakeCaller{responses: map[string][]byte{}}
	for method, value := range map[string]interface{}{"decimals": uint8(6), "symbol": "USDC", "name": "USD Coin"} {
		id, out := packed(t, false, method, value)
		caller.responses[id] = out
	}

	r := NewAssetResolver(caller, Backoff{}, nil)
	asset, err := r.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if asset.Address != token || asset.Decimals != 6 || asset.Symbol != "USDC" || asset.Name != "USD Coin" {
		t.Fatalf("unexpected asset %+v", asset)
	}

	calls := caller.calls
	if _, err := r.Resolve(context.Background(), token); err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if caller.calls != calls {
		t.Fatalf("cached resolve hit rpc")
	}
}

func TestAssetResolverBytes32Fallback(t *testing.T) {
	token := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	var symbol [32]byte
	copy(symbol[:], "MKR")

	caller := &fakeCaller{responses: map[string][]byte{}}
	id, out := packed(t, false, "decimals", uint8(18))
	caller.responses[id] = out
	id, out = packed(t, true, "symbol", symbol)
	caller.responses[id] = out

	asset, err := NewAssetResolver(caller, Backoff{}, nil).Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if asset.Decimals != 18 || asset.Symbol != "MKR" || asset.Name != "" {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestAssetResolverRetries(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{}, failFirst: 2}
	id, out := packed(t, false, "decimals", uint8(9))
	caller.responses[id] = out

	r := NewAssetResolver(caller, Backoff{MaxRetries: 2, BaseDelay: time.Millisecond}, nil)
	asset, err := r.Resolve(context.Background(), common.HexToAddress("0x01"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if asset.Decimals != 9 {
		t.Fatalf("decimals = %d", asset.Decimals)
	}
}

func TestAssetResolverRequiresDecimals(t *testing.T) {
	caller := &fakeCaller{responses: map[string][]byte{}}
	r := NewAssetResolver(caller, Backoff{}, nil)
	if _, err := r.Resolve(context.Background(), common.HexToAddress("0x02")); err == nil {
		t.Fatalf("expected error for missing decimals")
	}
}

func TestBackoffStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Backoff{MaxRetries: 5, BaseDelay: time.Hour}.Do(ctx, func(context.Context) error {
		attempts++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) || attempts != 1 {
		t.Fatalf("err=%v attempts=%d", err, attempts)
	}
}
