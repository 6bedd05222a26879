// Package bitcoind recommends on-chain fee rates from a bitcoind node through
// its JSON-RPC interface.
package bitcoind

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/40acres/cashu-lnd/bitcoin"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/shopspring/decimal"
)

// bitcoind reports estimatesmartfee in BTC per kvB.
var satPerVbytePerBtcPerKvb = decimal.NewFromInt(100_000)

type estimator interface {
	EstimateSmartFee(confTarget int64, mode *btcjson.EstimateSmartFeeMode) (*btcjson.EstimateSmartFeeResult, error)
	Shutdown()
}

type Option func(*Options)

// WithConfTarget overrides the confirmation target in blocks.
func WithConfTarget(blocks int64) func(*Options) {
	return func(o *Options) {
		o.confTarget = blocks
	}
}

type Options struct {
	confTarget int64
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
}

type Bitcoind struct {
	client     estimator
	confTarget int64
}

var _ bitcoin.FeeSource = (*Bitcoind)(nil)

// New connects to bitcoind over HTTP POST mode. No request is made until the
// first estimate.
func New(cfg Config, options ...Option) (*Bitcoind, error) {
	client, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		User:         cfg.User,
		Pass:         cfg.Password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create bitcoind client: %w", err)
	}

	return newWithEstimator(client, options...), nil
}

func newWithEstimator(client estimator, options ...Option) *Bitcoind {
	opts := Options{
		confTarget: bitcoin.DefaultConfTarget,
	}
	for _, option := range options {
		option(&opts)
	}

	return &Bitcoind{
		client:     client,
		confTarget: opts.confTarget,
	}
}

// RecommendedFeeRate asks estimatesmartfee for the conservative rate at the
// configured target and converts it to sat/vB, rounding up.
func (b *Bitcoind) RecommendedFeeRate(ctx context.Context) (uint64, error) {
	type result struct {
		res *btcjson.EstimateSmartFeeResult
		err error
	}

	// rpcclient has no context support, so the call runs on its own goroutine.
	done := make(chan result, 1)
	go func() {
		mode := btcjson.EstimateModeConservative
		res, err := b.client.EstimateSmartFee(b.confTarget, &mode)
		done <- result{res, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r = <-done:
	}

	if r.err != nil {
		return 0, fmt.Errorf("estimatesmartfee: %w", r.err)
	}
	if r.res.FeeRate == nil {
		return 0, fmt.Errorf("%s: %w", strings.Join(r.res.Errors, "; "), bitcoin.ErrNoEstimate)
	}

	rate := decimal.NewFromFloat(*r.res.FeeRate).Mul(satPerVbytePerBtcPerKvb).Ceil()
	if !rate.IsPositive() {
		return 0, bitcoin.ErrNoEstimate
	}

	return uint64(rate.IntPart()), nil
}

func (b *Bitcoind) Close() {
	b.client.Shutdown()
}
