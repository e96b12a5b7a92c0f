package custody

import (
	"errors"
	"math"
	"testing"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		amount  uint64
		feeRate uint16
		fee     uint64
		net     uint64
	}{
		{amount: 1_000_000, feeRate: 250, fee: 25_000, net: 975_000},
		{amount: 7, feeRate: 1, fee: 0, net: 7},
		{amount: 100_000_000_000, feeRate: 200, fee: 2_000_000_000, net: 98_000_000_000},
		{amount: 100, feeRate: 0, fee: 0, net: 100},
		{amount: 100, feeRate: 10_000, fee: 100, net: 0},
		{amount: 9_999, feeRate: 1, fee: 0, net: 9_999},
		{amount: 10_000, feeRate: 1, fee: 1, net: 9_999},
		{amount: math.MaxUint64, feeRate: 10_000, fee: math.MaxUint64, net: 0},
		{amount: math.MaxUint64, feeRate: 9_999, fee: 18_444_899_399_302_180_659, net: 1_844_674_407_370_956},
	}
	for _, tt := range tests {
		fee, net, err := SplitFee(tt.amount, tt.feeRate)
		if err != nil {
			t.Fatalf("split %d@%d: %v", tt.amount, tt.feeRate, err)
		}
		if fee != tt.fee || net != tt.net {
			t.Fatalf("split %d@%d = %d/%d, want %d/%d", tt.amount, tt.feeRate, fee, net, tt.fee, tt.net)
		}
		if fee+net != tt.amount {
			t.Fatalf("split %d@%d does not conserve", tt.amount, tt.feeRate)
		}
	}
}

func TestSplitFeeRejectsRate(t *testing.T) {
	_, _, err := SplitFee(100, MaxFeeRate+1)
	if !errors.Is(err, ErrInvalidFeeRate) {
		t.Fatalf("expected InvalidFeeRate, got %v", err)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	if _, err := checkedAdd(math.MaxUint64, 1, "x"); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
	if _, err := checkedSub(1, 2, "x"); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("expected underflow, got %v", err)
	}
	if v, err := checkedAdd(1, 2, "x"); err != nil || v != 3 {
		t.Fatalf("add = %d, %v", v, err)
	}
}

func TestErrorMatchesByCode(t *testing.T) {
	err := fail(ErrDuplicateDeposit, "detail", nil)
	if !errors.Is(err, ErrDuplicateDeposit) {
		t.Fatalf("expected match")
	}
	if errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("unexpected match")
	}
	if ClassOf(err) != ClassState {
		t.Fatalf("class = %s", ClassOf(err))
	}
	if ClassOf(errors.New("x")) != "" {
		t.Fatalf("expected empty class")
	}
}
