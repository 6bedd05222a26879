package money

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/shopspring/decimal"
)

// Money is a type that represents a monetary amount in satoshis for Bitcoin.
type Money uint64

// ErrNegativeAmount is returned when trying to create a Money with a negative amount.
var ErrNegativeAmount = errors.New("amount cannot be negative")

// ErrSubSatoshi is returned when a millisatoshi amount is not a whole number of satoshis.
var ErrSubSatoshi = errors.New("amount is not a whole number of satoshis")

func NewFromBtc(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}

	return Money(amount.Mul(decimal.NewFromInt(1e8)).IntPart()), nil // nolint:gosec
}

// FromMsat rounds down to whole satoshis.
func FromMsat(amount lnwire.MilliSatoshi) Money {
	return Money(amount / 1000)
}

// ExactFromMsat fails instead of rounding.
func ExactFromMsat(amount lnwire.MilliSatoshi) (Money, error) {
	if amount%1000 != 0 {
		return 0, ErrSubSatoshi
	}

	return FromMsat(amount), nil
}

func (m Money) ToBtc() decimal.Decimal {
	return decimal.NewFromUint64(uint64(m)).Div(decimal.NewFromInt(1e8))
}

func (m Money) ToMsat() lnwire.MilliSatoshi {
	return lnwire.NewMSatFromSatoshis(m.Amount())
}

func (m Money) Amount() btcutil.Amount {
	return btcutil.Amount(m) // nolint:gosec
}

// FeeReserve is the routing fee budget held back for an outgoing payment: a
// percentage of the amount with an absolute floor.
type FeeReserve struct {
	Percent decimal.Decimal
	Min     Money
}

func (f FeeReserve) For(amount Money) Money {
	relative := decimal.NewFromUint64(uint64(amount)).Mul(f.Percent).Floor()
	if relative.IsNegative() {
		return f.Min
	}

	reserve := Money(relative.IntPart()) // nolint:gosec
	if reserve < f.Min {
		return f.Min
	}

	return reserve
}
