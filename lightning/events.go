package lightning

import (
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// Event is something the node reports asynchronously.
type Event interface {
	isEvent()
}

// PaymentReceived is emitted once an invoice or offer issued by this node has
// been paid.
type PaymentReceived struct {
	PaymentHash lntypes.Hash
	// OfferID is set when the payment was made against an offer.
	OfferID    string
	AmountMsat lnwire.MilliSatoshi
	SettledAt  time.Time
}

type PaymentSucceeded struct {
	ID          PaymentID
	PaymentHash lntypes.Hash
	Preimage    lntypes.Preimage
	AmountMsat  lnwire.MilliSatoshi
	FeeMsat     lnwire.MilliSatoshi
}

type PaymentFailed struct {
	ID          PaymentID
	PaymentHash lntypes.Hash
	Reason      string
}

type ChannelStateChanged struct {
	ChannelPoint       string
	CounterpartyNodeID string
	State              ChannelState
}

func (PaymentReceived) isEvent()     {}
func (PaymentSucceeded) isEvent()    {}
func (PaymentFailed) isEvent()       {}
func (ChannelStateChanged) isEvent() {}
