package rpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/40acres/cashu-lnd/channels"
	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/payments"
	"github.com/lightningnetwork/lnd/lnwire"
)

func optionalMsat(v *uint64) *lnwire.MilliSatoshi {
	if v == nil {
		return nil
	}
	m := lnwire.MilliSatoshi(*v)

	return &m
}

func unixSeconds(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}

	return uint64(t.Unix()) // nolint:gosec
}

func normalizeUnit(unit string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case UnitSat, "":
		return UnitSat, nil
	case UnitMsat:
		return UnitMsat, nil
	default:
		return "", fmt.Errorf("%w: unsupported unit %q", payments.ErrValidation, unit)
	}
}

// toMsat converts an amount expressed in unit.
func toMsat(amount uint64, unit string) lnwire.MilliSatoshi {
	if unit == UnitSat {
		return lnwire.MilliSatoshi(amount * 1000)
	}

	return lnwire.MilliSatoshi(amount)
}

// fromMsat converts to unit, rounding sub-satoshi remainders up so a quote
// never under-reserves.
func fromMsat(amount lnwire.MilliSatoshi, unit string) uint64 {
	if unit == UnitSat {
		return uint64((amount + 999) / 1000)
	}

	return uint64(amount)
}

func toPaymentResponse(outcome *payments.Outcome) *PaymentResponse {
	resp := &PaymentResponse{
		PaymentHash: outcome.PaymentHash.String(),
		FeeMsats:    uint64(outcome.FeeMsat),
		Success:     outcome.Success,
	}
	if outcome.Preimage != nil {
		resp.PaymentPreimage = outcome.Preimage.String()
	}
	if !outcome.Success {
		reason := outcome.FailureReason
		resp.FailureReason = &reason
	}

	return resp
}

func toChannelInfo(c lightning.Channel) ChannelInfo {
	return ChannelInfo{
		ChannelID:            c.ChannelPoint,
		CounterpartyNodeID:   c.CounterpartyNodeID,
		BalanceMsat:          uint64(c.BalanceMsat),
		OutboundCapacityMsat: uint64(c.OutboundCapacityMsat),
		InboundCapacityMsat:  uint64(c.InboundCapacityMsat),
		IsUsable:             c.Usable,
		IsPublic:             c.Public,
		ShortChannelID:       c.ShortChannelID,
	}
}

func toBalanceResponse(b *channels.Balance) *ListBalanceResponse {
	return &ListBalanceResponse{
		TotalOnchainBalanceSats:     uint64(b.TotalOnchain),
		SpendableOnchainBalanceSats: uint64(b.SpendableOnchain),
		TotalLightningBalanceSats:   uint64(b.TotalLightning),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
