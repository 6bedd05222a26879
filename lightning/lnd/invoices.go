package lnd

import (
	"context"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

func (c *Client) CreateInvoice(ctx context.Context, req lightning.InvoiceRequest) (*lightning.Invoice, error) {
	expiry := req.Expiry
	if expiry <= 0 {
		expiry = lightning.DefaultInvoiceExpiry
	}

	res, err := c.lndClient.AddInvoice(ctx, &lnrpc.Invoice{
		ValueMsat: int64(req.AmountMsat),
		Memo:      req.Description,
		Expiry:    int64(expiry.Seconds()),
	})
	if err != nil {
		return nil, translateError(err, lightning.ErrIssuance)
	}

	hash, err := lntypes.MakeHash(res.RHash)
	if err != nil {
		return nil, lightning.NewError(lightning.ErrIssuance, "invalid payment hash: %v", err)
	}

	// The invoice timestamp is what payers check the expiry against.
	decoded, err := lightning.DecodeInvoice(res.PaymentRequest, c.network)
	if err != nil {
		return nil, lightning.NewError(lightning.ErrIssuance, "decoding issued invoice: %v", err)
	}

	return &lightning.Invoice{
		PaymentHash:    hash,
		PaymentRequest: res.PaymentRequest,
		AmountMsat:     req.AmountMsat,
		Description:    req.Description,
		CreatedAt:      decoded.Timestamp,
		ExpiresAt:      lightning.InvoiceExpiresAt(decoded),
		State:          lightning.InvoiceOpen,
	}, nil
}

// CreateOffer is not available, lnd does not implement bolt12.
func (c *Client) CreateOffer(ctx context.Context, req lightning.OfferRequest) (*lightning.Offer, error) {
	return nil, lightning.NewError(lightning.ErrUnsupported, "lnd does not support bolt12 offers")
}

func (c *Client) LookupInvoice(ctx context.Context, hash lntypes.Hash) (*lightning.Invoice, error) {
	res, err := c.invoicesClient.LookupInvoiceV2(ctx, &invoicesrpc.LookupInvoiceMsg{
		InvoiceRef: &invoicesrpc.LookupInvoiceMsg_PaymentHash{
			PaymentHash: hash[:],
		},
	})
	if err != nil {
		return nil, translateError(err, lightning.ErrInvoiceNotFound)
	}

	return fromInvoice(res)
}

func fromInvoice(inv *lnrpc.Invoice) (*lightning.Invoice, error) {
	hash, err := lntypes.MakeHash(inv.RHash)
	if err != nil {
		return nil, lightning.NewError(lightning.ErrNode, "invalid payment hash: %v", err)
	}

	created := time.Unix(inv.CreationDate, 0)

	return &lightning.Invoice{
		PaymentHash:    hash,
		PaymentRequest: inv.PaymentRequest,
		AmountMsat:     lnwire.MilliSatoshi(inv.ValueMsat),
		Description:    inv.Memo,
		CreatedAt:      created,
		ExpiresAt:      created.Add(time.Duration(inv.Expiry) * time.Second),
		State:          fromInvoiceState(inv.State),
		AmountPaidMsat: lnwire.MilliSatoshi(inv.AmtPaidMsat),
	}, nil
}

func fromInvoiceState(state lnrpc.Invoice_InvoiceState) lightning.InvoiceState {
	switch state {
	case lnrpc.Invoice_SETTLED:
		return lightning.InvoiceSettled
	case lnrpc.Invoice_CANCELED:
		return lightning.InvoiceCanceled
	case lnrpc.Invoice_ACCEPTED:
		return lightning.InvoiceAccepted
	default:
		return lightning.InvoiceOpen
	}
}
