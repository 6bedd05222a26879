package lnd

import (
	"context"
	"strings"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

// SendPayment hands the invoice to lnd's router and returns as soon as the
// payment is registered. The result arrives through SubscribeEvents.
func (c *Client) SendPayment(ctx context.Context, req lightning.PaymentRequest) (lightning.PaymentID, error) {
	decoded, err := lightning.DecodeInvoice(req.Invoice, c.network)
	if err != nil {
		return "", lightning.NewError(lightning.ErrNode, "decoding invoice: %v", err)
	}
	hash := lntypes.Hash(*decoded.PaymentHash)

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.routerClient.SendPaymentV2(streamCtx, &routerrpc.SendPaymentRequest{
		PaymentRequest: req.Invoice,
		AmtMsat:        int64(req.AmountMsat),
		FeeLimitMsat:   int64(req.MaxFeeMsat),
		TimeoutSeconds: int32(c.paymentTimeout.Seconds()),
	})
	if err != nil {
		return "", translateError(err, lightning.ErrNode)
	}

	// The first update confirms lnd registered the payment. Closing the stream
	// before that makes lnd abort with "payment not initiated", see
	// https://github.com/lightningnetwork/lnd/issues/5035#issuecomment-780711315
	update, err := stream.Recv()
	if err != nil {
		return "", translateError(err, lightning.ErrNode)
	}

	log.WithFields(log.Fields{
		"payment_hash": hash,
		"status":       update.Status,
	}).Debug("payment submitted")

	return lightning.PaymentIDFromHash(hash), nil
}

// SendOfferPayment is not available, lnd does not implement bolt12.
func (c *Client) SendOfferPayment(ctx context.Context, req lightning.OfferPaymentRequest) (lightning.PaymentID, error) {
	return "", lightning.NewError(lightning.ErrUnsupported, "lnd does not support bolt12 offers")
}

// LookupPayment returns the current state of an outgoing payment.
func (c *Client) LookupPayment(ctx context.Context, id lightning.PaymentID) (*lightning.PaymentStatus, error) {
	hash, err := lntypes.MakeHashFromStr(string(id))
	if err != nil {
		return nil, lightning.NewError(lightning.ErrPaymentNotFound, "invalid payment id %q", id)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.routerClient.TrackPaymentV2(streamCtx, &routerrpc.TrackPaymentRequest{
		PaymentHash: hash[:],
	})
	if err != nil {
		return nil, translateError(err, lightning.ErrPaymentNotFound)
	}

	// The first message is the payment as currently stored.
	payment, err := stream.Recv()
	if err != nil {
		return nil, translateError(err, lightning.ErrPaymentNotFound)
	}

	return fromPayment(payment)
}

func fromPayment(p *lnrpc.Payment) (*lightning.PaymentStatus, error) {
	hash, err := lntypes.MakeHashFromStr(p.PaymentHash)
	if err != nil {
		return nil, lightning.NewError(lightning.ErrNode, "invalid payment hash %q", p.PaymentHash)
	}

	status := &lightning.PaymentStatus{
		ID:          lightning.PaymentIDFromHash(hash),
		PaymentHash: hash,
		AmountMsat:  lnwire.MilliSatoshi(p.ValueMsat),
		FeeMsat:     lnwire.MilliSatoshi(p.FeeMsat),
	}

	switch p.Status {
	case lnrpc.Payment_SUCCEEDED:
		preimage, err := lntypes.MakePreimageFromStr(p.PaymentPreimage)
		if err != nil {
			return nil, lightning.NewError(lightning.ErrNode, "invalid preimage for %s", hash)
		}
		if !preimage.Matches(hash) {
			return nil, lightning.NewError(lightning.ErrNode, "preimage does not match payment hash %s", hash)
		}
		status.State = lightning.PaymentStateSucceeded
		status.Preimage = preimage
	case lnrpc.Payment_FAILED:
		status.State = lightning.PaymentStateFailed
		status.FailureReason = failureReason(p.FailureReason)
	default:
		status.State = lightning.PaymentStateInFlight
	}

	return status, nil
}

// failureReason turns FAILURE_REASON_NO_ROUTE into "no route".
func failureReason(reason lnrpc.PaymentFailureReason) string {
	s := strings.TrimPrefix(reason.String(), "FAILURE_REASON_")

	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}
