package payments

import (
	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Outcome is the terminal result of an outgoing payment. Once produced for an
// identifier it is never replaced.
type Outcome struct {
	ID          lightning.PaymentID
	PaymentHash lntypes.Hash
	// Preimage is set iff Success.
	Preimage   *lntypes.Preimage
	AmountMsat lnwire.MilliSatoshi
	FeeMsat    lnwire.MilliSatoshi
	Success    bool
	// FailureReason is set iff !Success.
	FailureReason string
}

func (o Outcome) result() string {
	if o.Success {
		return "success"
	}

	return "failure"
}

// outcomeFromEvent converts terminal payment events. Other events are ignored.
func outcomeFromEvent(event lightning.Event) (Outcome, bool) {
	switch e := event.(type) {
	case lightning.PaymentSucceeded:
		preimage := e.Preimage

		return Outcome{
			ID:          e.ID,
			PaymentHash: e.PaymentHash,
			Preimage:    &preimage,
			AmountMsat:  e.AmountMsat,
			FeeMsat:     e.FeeMsat,
			Success:     true,
		}, true
	case lightning.PaymentFailed:
		reason := e.Reason
		if reason == "" {
			reason = "unknown"
		}

		return Outcome{
			ID:            e.ID,
			PaymentHash:   e.PaymentHash,
			FailureReason: reason,
		}, true
	default:
		return Outcome{}, false
	}
}
