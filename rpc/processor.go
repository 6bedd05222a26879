package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/payments"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type PaymentProcessorConfig struct {
	// Bolt12 is advertised in the settings when the node can handle offers.
	Bolt12 bool
}

// PaymentProcessorServer is the mint facing settlement endpoint.
type PaymentProcessorServer struct {
	dispatcher  *payments.Dispatcher
	issuer      *payments.Issuer
	broadcaster *payments.Broadcaster
	clock       clock.Clock
	cfg         PaymentProcessorConfig
}

func NewPaymentProcessorServer(dispatcher *payments.Dispatcher, issuer *payments.Issuer, broadcaster *payments.Broadcaster, clk clock.Clock, cfg PaymentProcessorConfig) *PaymentProcessorServer {
	return &PaymentProcessorServer{
		dispatcher:  dispatcher,
		issuer:      issuer,
		broadcaster: broadcaster,
		clock:       clk,
		cfg:         cfg,
	}
}

func (s *PaymentProcessorServer) GetSettings(ctx context.Context, _ *EmptyRequest) (*SettingsResponse, error) {
	settings, err := json.Marshal(Settings{
		MPP:                false,
		Unit:               UnitSat,
		InvoiceDescription: true,
		Amountless:         false,
		Bolt12:             s.cfg.Bolt12,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &SettingsResponse{Inner: string(settings)}, nil
}

// bolt12Enabled refuses offer requests when the settings do not advertise
// bolt12, so the mint never sees a capability it was told is missing.
func (s *PaymentProcessorServer) bolt12Enabled() error {
	if s.cfg.Bolt12 {
		return nil
	}

	return lightning.NewError(lightning.ErrUnsupported, "bolt12 is not enabled on this backend")
}

// expirySeconds turns an absolute unix expiry into the relative expiry the
// issuer takes.
func (s *PaymentProcessorServer) expirySeconds(unixExpiry *uint64) (*uint64, error) {
	if unixExpiry == nil {
		return nil, nil
	}

	now := uint64(s.clock.Now().Unix()) // nolint:gosec
	if *unixExpiry <= now {
		return nil, invalidRequest("unix_expiry %d is not in the future", *unixExpiry)
	}
	seconds := *unixExpiry - now

	return &seconds, nil
}

func (s *PaymentProcessorServer) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	unit, err := normalizeUnit(req.Unit)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	switch opts := req.Options; {
	case opts.Bolt11 != nil && opts.Bolt12 == nil:
		expiry, err := s.expirySeconds(opts.Bolt11.UnixExpiry)
		if err != nil {
			return nil, toStatus(ctx, err)
		}
		invoice, err := s.issuer.CreateInvoice(ctx, payments.InvoiceParams{
			AmountMsat:    toMsat(opts.Bolt11.Amount, unit),
			Description:   opts.Bolt11.Description,
			ExpirySeconds: expiry,
		})
		if err != nil {
			return nil, toStatus(ctx, err)
		}

		return &CreatePaymentResponse{
			RequestLookupID: invoice.PaymentHash.String(),
			Request:         invoice.PaymentRequest,
			Expiry:          unixSeconds(invoice.ExpiresAt),
		}, nil
	case opts.Bolt12 != nil && opts.Bolt11 == nil:
		if err := s.bolt12Enabled(); err != nil {
			return nil, toStatus(ctx, err)
		}
		expiry, err := s.expirySeconds(opts.Bolt12.UnixExpiry)
		if err != nil {
			return nil, toStatus(ctx, err)
		}
		var amount *lnwire.MilliSatoshi
		if opts.Bolt12.Amount != nil {
			m := toMsat(*opts.Bolt12.Amount, unit)
			amount = &m
		}
		offer, err := s.issuer.CreateOffer(ctx, payments.OfferParams{
			AmountMsat:    amount,
			Description:   opts.Bolt12.Description,
			ExpirySeconds: expiry,
		})
		if err != nil {
			return nil, toStatus(ctx, err)
		}

		return &CreatePaymentResponse{
			RequestLookupID: offer.OfferID,
			Request:         offer.Offer,
			Expiry:          unixSeconds(offer.ExpiresAt),
		}, nil
	default:
		return nil, toStatus(ctx, invalidRequest("exactly one of bolt11 or bolt12 options is required"))
	}
}

func requestType(req *PaymentQuoteRequest) string {
	if t := strings.ToLower(strings.TrimSpace(req.RequestType)); t != "" {
		return t
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(req.Request)), "lno1") {
		return RequestTypeBolt12
	}

	return RequestTypeBolt11
}

func (s *PaymentProcessorServer) GetPaymentQuote(ctx context.Context, req *PaymentQuoteRequest) (*PaymentQuoteResponse, error) {
	unit, err := normalizeUnit(req.Unit)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	var amount *lnwire.MilliSatoshi
	if req.Options != nil {
		amount = optionalMsat(req.Options.AmountMsat)
	}

	var quote *payments.Quote
	switch requestType(req) {
	case RequestTypeBolt11:
		quote, err = s.dispatcher.QuoteInvoice(req.Request, amount)
	case RequestTypeBolt12:
		if err = s.bolt12Enabled(); err == nil {
			quote, err = s.dispatcher.QuoteOffer(req.Request, amount)
		}
	default:
		err = invalidRequest("unknown request type %q", req.RequestType)
	}
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &PaymentQuoteResponse{
		RequestLookupID: string(quote.ID),
		Amount:          fromMsat(quote.AmountMsat, unit),
		Fee:             fromMsat(quote.FeeReserveMsat, unit),
		State:           QuoteUnpaid,
		Unit:            unit,
	}, nil
}

func (s *PaymentProcessorServer) MakePayment(ctx context.Context, req *MakePaymentRequest) (*MakePaymentResponse, error) {
	unit, err := normalizeUnit(req.Unit)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	maxFee := func(v *uint64) *lnwire.MilliSatoshi {
		if v == nil {
			return nil
		}
		m := toMsat(*v, unit)

		return &m
	}

	var outcome *payments.Outcome
	switch opts := req.PaymentOptions; {
	case opts.Bolt11 != nil && opts.Bolt12 == nil:
		outcome, err = s.dispatcher.PayInvoice(ctx, payments.InvoicePayment{
			Invoice:    opts.Bolt11.Bolt11,
			AmountMsat: optionalMsat(opts.Bolt11.MeltAmountMsat),
			MaxFeeMsat: maxFee(opts.Bolt11.MaxFeeAmount),
		})
	case opts.Bolt12 != nil && opts.Bolt11 == nil:
		if err = s.bolt12Enabled(); err != nil {
			break
		}
		outcome, err = s.dispatcher.PayOffer(ctx, payments.OfferPayment{
			Offer:      opts.Bolt12.Offer,
			AmountMsat: optionalMsat(opts.Bolt12.MeltAmountMsat),
			MaxFeeMsat: maxFee(opts.Bolt12.MaxFeeAmount),
		})
	default:
		err = invalidRequest("exactly one of bolt11 or bolt12 payment options is required")
	}

	var timeout *payments.TimeoutError
	if errors.As(err, &timeout) {
		log.WithContext(ctx).WithField("payment_id", timeout.ID).Info("payment still pending, the mint has to check back")

		return &MakePaymentResponse{
			PaymentLookupID: string(timeout.ID),
			Status:          QuotePending,
			Unit:            UnitMsat,
		}, nil
	}
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return toMakePaymentResponse(outcome.ID, outcome), nil
}

func toMakePaymentResponse(id lightning.PaymentID, outcome *payments.Outcome) *MakePaymentResponse {
	resp := &MakePaymentResponse{
		PaymentLookupID: string(id),
		Status:          QuoteFailed,
		Unit:            UnitMsat,
	}
	if outcome.Success {
		proof := outcome.Preimage.String()
		resp.PaymentProof = &proof
		resp.Status = QuotePaid
		resp.TotalSpent = uint64(outcome.AmountMsat + outcome.FeeMsat)
	}

	return resp
}

func (s *PaymentProcessorServer) CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest) (*CheckIncomingPaymentResponse, error) {
	record, err := s.issuer.Incoming(ctx, req.RequestIdentifier)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	resp := &CheckIncomingPaymentResponse{}
	for _, p := range record.Payments {
		resp.Payments = append(resp.Payments, WaitIncomingPaymentResponse{
			PaymentIdentifier: record.LookupID,
			PaymentAmount:     uint64(p.AmountMsat),
			Unit:              UnitMsat,
			PaymentID:         p.PaymentHash.String(),
		})
	}
	if len(resp.Payments) == 0 {
		resp.Payments = []WaitIncomingPaymentResponse{{
			PaymentIdentifier: record.LookupID,
			Unit:              UnitMsat,
			PaymentID:         record.LookupID,
		}}
	}

	return resp, nil
}

func (s *PaymentProcessorServer) CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest) (*MakePaymentResponse, error) {
	id := strings.TrimSpace(req.RequestIdentifier)
	if id == "" {
		return nil, toStatus(ctx, invalidRequest("request_identifier is required"))
	}

	st, err := s.dispatcher.Status(ctx, lightning.PaymentID(id))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	switch st.State {
	case payments.PaymentPaid, payments.PaymentFailed:
		return toMakePaymentResponse(st.ID, st.Outcome), nil
	case payments.PaymentPending:
		return &MakePaymentResponse{PaymentLookupID: id, Status: QuotePending, Unit: UnitMsat}, nil
	default:
		return &MakePaymentResponse{PaymentLookupID: id, Status: QuoteUnknown, Unit: UnitMsat}, nil
	}
}

// WaitIncomingPayment streams payments received while the stream is open.
func (s *PaymentProcessorServer) WaitIncomingPayment(_ *EmptyRequest, stream IncomingPaymentStream) error {
	ctx := stream.Context()
	feed, cancel := s.broadcaster.Subscribe()
	defer cancel()

	logger := log.WithContext(ctx)
	logger.Info("incoming payment stream opened")
	defer logger.Info("incoming payment stream closed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case payment, ok := <-feed:
			if !ok {
				return status.Error(codes.Unavailable, "server shutting down")
			}
			err := stream.Send(&WaitIncomingPaymentResponse{
				PaymentIdentifier: payment.LookupID,
				PaymentAmount:     uint64(payment.AmountMsat),
				Unit:              UnitMsat,
				PaymentID:         payment.PaymentHash.String(),
			})
			if err != nil {
				return err
			}
		}
	}
}
