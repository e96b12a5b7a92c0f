package custody

import (
	"github.com/holiman/uint256"
)

const (
	// BasisPoints is the fee rate denominator: 10000 bps is 100%.
	BasisPoints = 10_000
	// MaxFeeRate is the largest accepted fee rate.
	MaxFeeRate = BasisPoints
)

var basisPoints = uint256.NewInt(BasisPoints)

// SplitFee computes floor(amount*feeRate/10000) and the remainder owed to the
// depositor. The product is formed in 256 bits so no input overflows, and
// fee+net always equals amount.
func SplitFee(amount uint64, feeRate uint16) (fee uint64, net uint64, err error) {
	if feeRate > MaxFeeRate {
		return 0, 0, fail(ErrInvalidFeeRate, "", nil)
	}
	product := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(feeRate)))
	quotient := new(uint256.Int).Div(product, basisPoints)
	if !quotient.IsUint64() {
		return 0, 0, fail(ErrArithmeticOverflow, "fee", nil)
	}
	fee = quotient.Uint64()
	return fee, amount - fee, nil
}

func checkedAdd(a, b uint64, what string) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, fail(ErrArithmeticOverflow, what, nil)
	}
	return sum, nil
}

func checkedSub(a, b uint64, what string) (uint64, error) {
	if b > a {
		return 0, fail(ErrArithmeticOverflow, what, nil)
	}
	return a - b, nil
}
