package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/metrics"
	"github.com/40acres/cashu-lnd/money"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

// DefaultPaymentTimeout bounds how long a caller waits for an outcome.
const DefaultPaymentTimeout = 60 * time.Second

// offerPrefix is the bech32 human readable part of bolt12 offers.
const offerPrefix = "lno1"

type InvoicePayment struct {
	Invoice string
	// AmountMsat is required for invoices without amount and must match the
	// invoice amount otherwise.
	AmountMsat *lnwire.MilliSatoshi
	// MaxFeeMsat defaults to the configured fee reserve.
	MaxFeeMsat *lnwire.MilliSatoshi
}

type OfferPayment struct {
	Offer      string
	AmountMsat *lnwire.MilliSatoshi
	MaxFeeMsat *lnwire.MilliSatoshi
}

// Quote is what paying a request would take before it is paid.
type Quote struct {
	ID          lightning.PaymentID
	PaymentHash *lntypes.Hash
	AmountMsat  lnwire.MilliSatoshi
	// FeeReserveMsat is the routing fee budget held back for the payment.
	FeeReserveMsat lnwire.MilliSatoshi
	// SendAmountMsat is passed to the node, zero when the invoice carries
	// its own amount.
	SendAmountMsat lnwire.MilliSatoshi
}

// PaymentState of an outgoing payment as seen by status lookups.
type PaymentState int

const (
	PaymentUnknown PaymentState = iota
	PaymentPending
	PaymentPaid
	PaymentFailed
)

type Status struct {
	ID      lightning.PaymentID
	State   PaymentState
	Outcome *Outcome
}

type DispatcherConfig struct {
	Network    lightning.Network
	Timeout    time.Duration
	FeeReserve money.FeeReserve
}

// Dispatcher submits outgoing payments and waits for the reconciler to report
// their outcome.
type Dispatcher struct {
	node     lightning.Node
	registry *Registry
	clock    clock.Clock
	cfg      DispatcherConfig
	logger   *log.Entry
}

func NewDispatcher(node lightning.Node, registry *Registry, clk clock.Clock, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPaymentTimeout
	}

	return &Dispatcher{
		node:     node,
		registry: registry,
		clock:    clk,
		cfg:      cfg,
		logger:   log.WithField("component", "dispatcher"),
	}
}

// QuoteInvoice validates a bolt11 payment request without touching the node.
func (d *Dispatcher) QuoteInvoice(invoice string, amountMsat *lnwire.MilliSatoshi) (*Quote, error) {
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return nil, validationError("invoice is required")
	}

	decoded, err := lightning.DecodeInvoice(invoice, d.cfg.Network)
	if err != nil {
		return nil, validationError("invalid invoice: %v", err)
	}
	if decoded.PaymentHash == nil {
		return nil, validationError("invoice has no payment hash")
	}
	if expiresAt := lightning.InvoiceExpiresAt(decoded); !d.clock.Now().Before(expiresAt) {
		return nil, validationError("invoice expired at %s", expiresAt.UTC().Format(time.RFC3339))
	}

	hash := lntypes.Hash(*decoded.PaymentHash)
	quote := &Quote{
		ID:          lightning.PaymentIDFromHash(hash),
		PaymentHash: &hash,
	}

	switch {
	case decoded.MilliSat != nil:
		if amountMsat != nil && *amountMsat != *decoded.MilliSat {
			return nil, fmt.Errorf("%w: invoice is for %d msat, request is for %d msat", ErrAmountMismatch, *decoded.MilliSat, *amountMsat)
		}
		quote.AmountMsat = *decoded.MilliSat
	case amountMsat == nil || *amountMsat == 0:
		return nil, validationError("invoice has no amount, an amount is required")
	default:
		quote.AmountMsat = *amountMsat
		quote.SendAmountMsat = *amountMsat
	}
	if quote.AmountMsat == 0 {
		return nil, validationError("amount must be greater than zero")
	}

	quote.FeeReserveMsat = d.feeReserve(quote.AmountMsat)

	return quote, nil
}

// QuoteOffer validates a bolt12 payment request. Offers always need an
// explicit amount.
func (d *Dispatcher) QuoteOffer(offer string, amountMsat *lnwire.MilliSatoshi) (*Quote, error) {
	offer = strings.TrimSpace(offer)
	if offer == "" {
		return nil, validationError("offer is required")
	}
	if !strings.HasPrefix(strings.ToLower(offer), offerPrefix) {
		return nil, validationError("not a bolt12 offer")
	}
	if amountMsat == nil || *amountMsat == 0 {
		return nil, validationError("offer payments require an amount")
	}

	return &Quote{
		AmountMsat:     *amountMsat,
		SendAmountMsat: *amountMsat,
		FeeReserveMsat: d.feeReserve(*amountMsat),
	}, nil
}

func (d *Dispatcher) feeReserve(amount lnwire.MilliSatoshi) lnwire.MilliSatoshi {
	return d.cfg.FeeReserve.For(money.FromMsat(amount)).ToMsat()
}

// PayInvoice pays a bolt11 invoice. A node reported failure is an outcome
// with Success false, not an error.
func (d *Dispatcher) PayInvoice(ctx context.Context, req InvoicePayment) (*Outcome, error) {
	quote, err := d.QuoteInvoice(req.Invoice, req.AmountMsat)
	if err != nil {
		return nil, err
	}

	logger := d.logger.WithContext(ctx).WithFields(log.Fields{
		"payment_id": quote.ID,
		"amount":     quote.AmountMsat,
	})

	// Registering first means no outcome can arrive for an unknown payment.
	waiter, done, err := d.registry.Reserve(quote.ID, KindBolt11)
	if err != nil {
		return nil, err
	}
	if done != nil {
		logger.Info("invoice already paid, returning recorded outcome")

		return done, nil
	}

	_, err = d.node.SendPayment(ctx, lightning.PaymentRequest{
		Invoice:    strings.TrimSpace(req.Invoice),
		AmountMsat: quote.SendAmountMsat,
		MaxFeeMsat: d.maxFee(req.MaxFeeMsat, quote),
	})
	switch {
	case errors.Is(err, lightning.ErrPaymentInFlight):
		// The node is already paying it, keep the reservation so the outcome
		// is recorded.
		logger.Warn("node reports the payment already in flight")

		return nil, fmt.Errorf("%w: %s", ErrAlreadyPending, quote.ID)
	case errors.Is(err, lightning.ErrAlreadyPaid):
		d.registry.Release(quote.ID)

		return d.alreadyPaid(ctx, quote.ID, err)
	case err != nil:
		d.registry.Release(quote.ID)
		logger.WithError(err).Warn("node rejected payment")

		return nil, err
	}

	metrics.PaymentsDispatched.WithLabelValues(string(KindBolt11)).Inc()
	logger.Info("payment dispatched")

	return d.wait(ctx, waiter)
}

// PayOffer pays a bolt12 offer. The identifier is only known once the node
// accepted the payment.
func (d *Dispatcher) PayOffer(ctx context.Context, req OfferPayment) (*Outcome, error) {
	quote, err := d.QuoteOffer(req.Offer, req.AmountMsat)
	if err != nil {
		return nil, err
	}

	id, err := d.node.SendOfferPayment(ctx, lightning.OfferPaymentRequest{
		Offer:      strings.TrimSpace(req.Offer),
		AmountMsat: quote.AmountMsat,
		MaxFeeMsat: d.maxFee(req.MaxFeeMsat, quote),
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsDispatched.WithLabelValues(string(KindBolt12)).Inc()
	d.logger.WithContext(ctx).WithField("payment_id", id).Info("offer payment dispatched")

	waiter, done, err := d.registry.Track(id, KindBolt12)
	if err != nil {
		return nil, err
	}
	if done != nil {
		return d.finish(done), nil
	}

	return d.wait(ctx, waiter)
}

func (d *Dispatcher) maxFee(requested *lnwire.MilliSatoshi, quote *Quote) lnwire.MilliSatoshi {
	if requested != nil {
		return *requested
	}

	return quote.FeeReserveMsat
}

// wait blocks until the outcome arrives or the timeout elapses. On timeout the
// payment stays registered so its late outcome is still recorded.
func (d *Dispatcher) wait(ctx context.Context, waiter *Waiter) (*Outcome, error) {
	select {
	case outcome := <-waiter.Done():
		return d.finish(&outcome), nil
	case <-d.clock.TickAfter(d.cfg.Timeout):
		metrics.PaymentOutcomes.WithLabelValues("timeout").Inc()
		d.logger.WithContext(ctx).WithField("payment_id", waiter.ID).Warn("payment still in flight after timeout")
		d.registry.Abandon(waiter.ID)

		return nil, &TimeoutError{ID: waiter.ID, After: d.cfg.Timeout}
	case <-ctx.Done():
		d.registry.Abandon(waiter.ID)

		return nil, ctx.Err()
	}
}

func (d *Dispatcher) finish(outcome *Outcome) *Outcome {
	metrics.PaymentOutcomes.WithLabelValues(outcome.result()).Inc()

	return outcome
}

// alreadyPaid recovers the proof when the invoice was paid by this node
// earlier, for instance before a restart.
func (d *Dispatcher) alreadyPaid(ctx context.Context, id lightning.PaymentID, cause error) (*Outcome, error) {
	status, err := d.node.LookupPayment(ctx, id)
	if err != nil || status.State != lightning.PaymentStateSucceeded {
		return nil, cause
	}

	outcome, _ := outcomeFromEvent(status.Event())
	d.registry.Resolve(outcome)

	return d.finish(&outcome), nil
}

// Status reports an outgoing payment, first from the registry and then from
// the node's payment history. An id neither knows is PaymentUnknown.
func (d *Dispatcher) Status(ctx context.Context, id lightning.PaymentID) (*Status, error) {
	outcome, pending := d.registry.Status(id)
	switch {
	case outcome != nil:
		return statusFromOutcome(id, outcome), nil
	case pending:
		return &Status{ID: id, State: PaymentPending}, nil
	}

	status, err := d.node.LookupPayment(ctx, id)
	if errors.Is(err, lightning.ErrPaymentNotFound) {
		return &Status{ID: id, State: PaymentUnknown}, nil
	}
	if err != nil {
		return nil, err
	}

	if event := status.Event(); event != nil {
		outcome, _ := outcomeFromEvent(event)

		return statusFromOutcome(id, &outcome), nil
	}

	return &Status{ID: id, State: PaymentPending}, nil
}

func statusFromOutcome(id lightning.PaymentID, outcome *Outcome) *Status {
	state := PaymentFailed
	if outcome.Success {
		state = PaymentPaid
	}

	return &Status{ID: id, State: state, Outcome: outcome}
}
