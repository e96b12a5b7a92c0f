package report

import (
	"math/big"
)

const bpsScale = 4

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(value, denom).FloatString(int(decimals))
}

// effectiveFeeBps is fees/withdrawn expressed in basis points, or nil when
// nothing was withdrawn.
func effectiveFeeBps(fees, withdrawn *big.Int) *string {
	if fees == nil || withdrawn == nil || withdrawn.Sign() == 0 {
		return nil
	}
	rat := new(big.Rat).SetFrac(new(big.Int).Mul(fees, big.NewInt(10_000)), withdrawn)
	val := rat.FloatString(bpsScale)
	return &val
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[string]*Accumulator) (uint64, bool) {
	var (
		min   uint64
		found bool
	)
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if !found || entry.WindowStart < min {
			min = entry.WindowStart
			found = true
		}
	}
	return min, found
}
