package bitcoin

import (
	"context"
	"errors"
)

type Speed string

const (
	FastestFee  Speed = "fastestFee"
	HalfHourFee Speed = "halfHourFee"
	HourFee     Speed = "hourFee"
	EconomyFee  Speed = "economyFee"
	MinimumFee  Speed = "minimumFee"
)

// DefaultConfTarget is the confirmation target used for on-chain sends. Six
// blocks is roughly an hour, the same horizon as HalfHourFee/HourFee.
const DefaultConfTarget = 6

// ErrNoEstimate is returned when the source has no fee rate for the target.
var ErrNoEstimate = errors.New("no fee estimate available")

// FeeSource recommends a fee rate for on-chain sends.
//
//go:generate go tool mockgen -destination=mock.go -package=bitcoin . FeeSource
type FeeSource interface {
	// RecommendedFeeRate returns the fee rate in sat/vB.
	RecommendedFeeRate(ctx context.Context) (uint64, error)
}
