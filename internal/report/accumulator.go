package report

import (
	"fmt"
	"math/big"

	"custodyPool/internal/model"
)

// Accumulator holds the running totals of one pool window.
type Accumulator struct {
	Pool        string
	Slug        string
	Decimals    uint8
	WindowStart uint64
	WindowEnd   uint64
	Deposits    uint64
	Withdrawals uint64
	Deposited   *big.Int
	Withdrawn   *big.Int
	NetPaid     *big.Int
	Fees        *big.Int
}

func NewAccumulator(event model.Event, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		Pool:        event.Pool,
		Slug:        event.Slug,
		Decimals:    event.Decimals,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Deposited:   big.NewInt(0),
		Withdrawn:   big.NewInt(0),
		NetPaid:     big.NewInt(0),
		Fees:        big.NewInt(0),
	}
}

// AddEvent folds a deposited or withdrawn event into the window. Other kinds
// are ignored.
func (a *Accumulator) AddEvent(event model.Event) error {
	switch event.Kind {
	case model.EventDeposited:
		amount, err := parseAmount(event.Amount)
		if err != nil {
			return fmt.Errorf("deposit amount: %w", err)
		}
		a.Deposited.Add(a.Deposited, amount)
		a.Deposits++
	case model.EventWithdrawn:
		amount, err := parseAmount(event.Amount)
		if err != nil {
			return fmt.Errorf("withdraw amount: %w", err)
		}
		fee, err := parseAmount(event.Fee)
		if err != nil {
			return fmt.Errorf("withdraw fee: %w", err)
		}
		net, err := parseAmount(event.Net)
		if err != nil {
			return fmt.Errorf("withdraw net: %w", err)
		}
		if new(big.Int).Add(fee, net).Cmp(amount) != 0 {
			return fmt.Errorf("withdraw %s: fee %s + net %s != amount", event.ID, fee, net)
		}
		a.Withdrawn.Add(a.Withdrawn, amount)
		a.Fees.Add(a.Fees, fee)
		a.NetPaid.Add(a.NetPaid, net)
		a.Withdrawals++
	}
	return nil
}

func parseAmount(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}
