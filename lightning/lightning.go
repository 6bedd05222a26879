package lightning

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

// DefaultInvoiceExpiry is used when the caller does not ask for a specific expiry.
const DefaultInvoiceExpiry = time.Hour

// PaymentID identifies an outgoing payment. For bolt11 payments it is the hex
// encoded payment hash, for offers it is whatever the node assigned.
type PaymentID string

// PaymentIDFromHash returns the identifier of a bolt11 payment.
func PaymentIDFromHash(hash lntypes.Hash) PaymentID {
	return PaymentID(hash.String())
}

// Node is the lightning node capability. Every call returns as soon as the node
// accepted the request; outgoing payment results and incoming payments are
// reported through SubscribeEvents.
//
//go:generate go tool mockgen -destination=mock.go -package=lightning . Node
type Node interface {
	GetInfo(ctx context.Context) (*NodeInfo, error)
	NewAddress(ctx context.Context) (string, error)
	OpenChannel(ctx context.Context, req OpenChannelRequest) (string, error)
	CloseChannel(ctx context.Context, channelPoint string, counterparty string) error
	ListChannels(ctx context.Context) ([]Channel, error)
	WalletBalance(ctx context.Context) (*WalletBalance, error)
	SendOnchain(ctx context.Context, req SendOnchainRequest) (string, error)
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	CreateOffer(ctx context.Context, req OfferRequest) (*Offer, error)
	LookupInvoice(ctx context.Context, hash lntypes.Hash) (*Invoice, error)
	SendPayment(ctx context.Context, req PaymentRequest) (PaymentID, error)
	SendOfferPayment(ctx context.Context, req OfferPaymentRequest) (PaymentID, error)
	LookupPayment(ctx context.Context, id PaymentID) (*PaymentStatus, error)
	SubscribeEvents(ctx context.Context) (<-chan Event, error)
}

type NodeInfo struct {
	NodeID                string
	Alias                 string
	Network               Network
	NumPeers              uint64
	NumConnectedPeers     uint64
	NumActiveChannels     uint64
	NumInactiveChannels   uint64
	AnnouncementAddresses []string
	ListeningAddresses    []string
	BlockHeight           uint32
	SyncedToChain         bool
}

type OpenChannelRequest struct {
	NodeID string
	// Host is the peer's address in host:port form.
	Host     string
	Amount   btcutil.Amount
	PushMsat lnwire.MilliSatoshi
	Private  bool
}

type ChannelState int

const (
	ChannelPendingOpen ChannelState = iota
	ChannelActive
	ChannelInactive
	ChannelClosing
	ChannelClosed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelPendingOpen:
		return "pending_open"
	case ChannelActive:
		return "active"
	case ChannelInactive:
		return "inactive"
	case ChannelClosing:
		return "closing"
	case ChannelClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Channel is the node's view of a single channel. ChannelPoint is the funding
// outpoint (txid:index) and doubles as the channel id.
type Channel struct {
	ChannelPoint         string
	CounterpartyNodeID   string
	BalanceMsat          lnwire.MilliSatoshi
	OutboundCapacityMsat lnwire.MilliSatoshi
	InboundCapacityMsat  lnwire.MilliSatoshi
	Usable               bool
	Public               bool
	// ShortChannelID is nil until the funding transaction confirms.
	ShortChannelID *uint64
	State          ChannelState
}

type WalletBalance struct {
	Total     btcutil.Amount
	Confirmed btcutil.Amount
	// Reserved is kept aside by the node for anchor channel fee bumping.
	Reserved btcutil.Amount
}

type SendOnchainRequest struct {
	Address string
	Amount  btcutil.Amount
	// SatPerVbyte of zero lets the node estimate the fee.
	SatPerVbyte uint64
}

type InvoiceRequest struct {
	AmountMsat  lnwire.MilliSatoshi
	Description string
	Expiry      time.Duration
}

type InvoiceState int

const (
	InvoiceOpen InvoiceState = iota
	InvoiceAccepted
	InvoiceSettled
	InvoiceCanceled
)

type Invoice struct {
	PaymentHash    lntypes.Hash
	PaymentRequest string
	AmountMsat     lnwire.MilliSatoshi
	Description    string
	CreatedAt      time.Time
	ExpiresAt      time.Time
	State          InvoiceState
	AmountPaidMsat lnwire.MilliSatoshi
}

type OfferRequest struct {
	// AmountMsat is nil for variable amount offers.
	AmountMsat  *lnwire.MilliSatoshi
	Description string
	Expiry      time.Duration
}

type Offer struct {
	OfferID     string
	Offer       string
	AmountMsat  *lnwire.MilliSatoshi
	Description string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type PaymentRequest struct {
	Invoice string
	// AmountMsat is only set for invoices that do not carry an amount.
	AmountMsat lnwire.MilliSatoshi
	// MaxFeeMsat bounds the routing fee. Zero means the route must be free.
	MaxFeeMsat lnwire.MilliSatoshi
}

type OfferPaymentRequest struct {
	Offer      string
	AmountMsat lnwire.MilliSatoshi
	MaxFeeMsat lnwire.MilliSatoshi
}

type PaymentState int

const (
	PaymentStateInFlight PaymentState = iota
	PaymentStateSucceeded
	PaymentStateFailed
)

func (s PaymentState) String() string {
	switch s {
	case PaymentStateInFlight:
		return "in_flight"
	case PaymentStateSucceeded:
		return "succeeded"
	case PaymentStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PaymentStatus is the node's current record of an outgoing payment.
type PaymentStatus struct {
	ID            PaymentID
	PaymentHash   lntypes.Hash
	State         PaymentState
	Preimage      lntypes.Preimage
	AmountMsat    lnwire.MilliSatoshi
	FeeMsat       lnwire.MilliSatoshi
	FailureReason string
}

// Event converts a terminal status into the matching payment event. It returns
// nil while the payment is still in flight.
func (s *PaymentStatus) Event() Event {
	switch s.State {
	case PaymentStateSucceeded:
		return PaymentSucceeded{
			ID:          s.ID,
			PaymentHash: s.PaymentHash,
			Preimage:    s.Preimage,
			AmountMsat:  s.AmountMsat,
			FeeMsat:     s.FeeMsat,
		}
	case PaymentStateFailed:
		return PaymentFailed{
			ID:          s.ID,
			PaymentHash: s.PaymentHash,
			Reason:      s.FailureReason,
		}
	default:
		return nil
	}
}
