package payments

import (
	"context"
	"strings"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

type InvoiceParams struct {
	AmountMsat  lnwire.MilliSatoshi
	Description string
	// ExpirySeconds nil means the default expiry.
	ExpirySeconds *uint64
}

type OfferParams struct {
	// AmountMsat nil issues a variable amount offer.
	AmountMsat    *lnwire.MilliSatoshi
	Description   string
	ExpirySeconds *uint64
}

// Issuer creates invoices and offers on the node and remembers them so their
// paid status can be answered.
type Issuer struct {
	node          lightning.Node
	index         *Index
	broadcaster   *Broadcaster
	clock         clock.Clock
	defaultExpiry time.Duration
	logger        *log.Entry
}

// NewIssuer returns an Issuer. Settlements it discovers itself are published on
// broadcaster, which may be nil.
func NewIssuer(node lightning.Node, index *Index, broadcaster *Broadcaster, clk clock.Clock, defaultExpiry time.Duration) *Issuer {
	if defaultExpiry <= 0 {
		defaultExpiry = lightning.DefaultInvoiceExpiry
	}

	return &Issuer{
		node:          node,
		index:         index,
		broadcaster:   broadcaster,
		clock:         clk,
		defaultExpiry: defaultExpiry,
		logger:        log.WithField("component", "issuer"),
	}
}

func (i *Issuer) expiry(seconds *uint64) (time.Duration, error) {
	if seconds == nil {
		return i.defaultExpiry, nil
	}
	if *seconds == 0 {
		return 0, validationError("expiry must be greater than zero")
	}

	return time.Duration(*seconds) * time.Second, nil
}

// CreateInvoice issues a bolt11 invoice. Node failures are returned as they
// are, issuing again is the caller's decision.
func (i *Issuer) CreateInvoice(ctx context.Context, params InvoiceParams) (*lightning.Invoice, error) {
	if params.AmountMsat == 0 {
		return nil, validationError("amount must be greater than zero")
	}
	expiry, err := i.expiry(params.ExpirySeconds)
	if err != nil {
		return nil, err
	}

	invoice, err := i.node.CreateInvoice(ctx, lightning.InvoiceRequest{
		AmountMsat:  params.AmountMsat,
		Description: params.Description,
		Expiry:      expiry,
	})
	if err != nil {
		return nil, err
	}
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = i.clock.Now()
	}
	if invoice.ExpiresAt.IsZero() {
		invoice.ExpiresAt = invoice.CreatedAt.Add(expiry)
	}

	amount := invoice.AmountMsat
	i.index.Add(IncomingRecord{
		LookupID:   invoice.PaymentHash.String(),
		Kind:       KindBolt11,
		Request:    invoice.PaymentRequest,
		AmountMsat: &amount,
		CreatedAt:  invoice.CreatedAt,
		ExpiresAt:  invoice.ExpiresAt,
	})

	i.logger.WithContext(ctx).WithFields(log.Fields{
		"payment_hash": invoice.PaymentHash,
		"amount":       invoice.AmountMsat,
		"expires_at":   invoice.ExpiresAt,
	}).Info("invoice issued")

	return invoice, nil
}

func (i *Issuer) CreateOffer(ctx context.Context, params OfferParams) (*lightning.Offer, error) {
	if params.AmountMsat != nil && *params.AmountMsat == 0 {
		return nil, validationError("amount must be greater than zero when set")
	}
	expiry, err := i.expiry(params.ExpirySeconds)
	if err != nil {
		return nil, err
	}

	offer, err := i.node.CreateOffer(ctx, lightning.OfferRequest{
		AmountMsat:  params.AmountMsat,
		Description: params.Description,
		Expiry:      expiry,
	})
	if err != nil {
		return nil, err
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = i.clock.Now()
	}
	if offer.ExpiresAt.IsZero() {
		offer.ExpiresAt = offer.CreatedAt.Add(expiry)
	}

	i.index.Add(IncomingRecord{
		LookupID:   offer.OfferID,
		Kind:       KindBolt12,
		Request:    offer.Offer,
		AmountMsat: offer.AmountMsat,
		CreatedAt:  offer.CreatedAt,
		ExpiresAt:  offer.ExpiresAt,
	})

	i.logger.WithContext(ctx).WithField("offer_id", offer.OfferID).Info("offer issued")

	return offer, nil
}

// Incoming reports what was paid to an issued request. Unpaid invoices are
// re-checked against the node in case a settlement was missed.
func (i *Issuer) Incoming(ctx context.Context, lookupID string) (*IncomingRecord, error) {
	lookupID = strings.TrimSpace(lookupID)
	if lookupID == "" {
		return nil, validationError("request identifier is required")
	}

	record, known := i.index.Get(lookupID)
	if known && (record.Kind == KindBolt12 || len(record.Payments) > 0) {
		return &record, nil
	}

	hash, err := lntypes.MakeHashFromStr(lookupID)
	if err != nil {
		if known {
			return &record, nil
		}

		return nil, lightning.NewError(lightning.ErrInvoiceNotFound, "%s", lookupID)
	}

	invoice, err := i.node.LookupInvoice(ctx, hash)
	if err != nil {
		if known {
			return &record, nil
		}

		return nil, err
	}

	if invoice.State == lightning.InvoiceSettled {
		payment, isNew := recordReceived(i.index, i.broadcaster, lightning.PaymentReceived{
			PaymentHash: hash,
			AmountMsat:  invoice.AmountPaidMsat,
			SettledAt:   i.clock.Now(),
		})
		if isNew {
			i.logger.WithContext(ctx).WithFields(log.Fields{
				"lookup_id": payment.LookupID,
				"amount":    payment.AmountMsat,
			}).Info("settlement found by lookup")
		}
		record, _ = i.index.Get(lookupID)
		if !known {
			record.ExpiresAt = invoice.ExpiresAt
			record.Request = invoice.PaymentRequest
		}

		return &record, nil
	}

	if known {
		return &record, nil
	}

	amount := invoice.AmountMsat

	return &IncomingRecord{
		LookupID:   lookupID,
		Kind:       KindBolt11,
		Request:    invoice.PaymentRequest,
		AmountMsat: &amount,
		CreatedAt:  invoice.CreatedAt,
		ExpiresAt:  invoice.ExpiresAt,
	}, nil
}
