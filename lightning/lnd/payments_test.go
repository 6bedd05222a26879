package lnd

import (
	"context"
	"testing"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestSendPayment(t *testing.T) {
	invoice := lightning.CreateMockInvoice(t, 5_000)

	t.Run("returns once lnd registered the payment", func(t *testing.T) {
		router := &fakeRouter{sendStream: newStream(&lnrpc.Payment{
			PaymentHash: lightning.TestPaymentHash.String(),
			Status:      lnrpc.Payment_IN_FLIGHT,
		})}
		client := newTestClient(&fakeLightning{}, router, &fakeInvoices{})

		id, err := client.SendPayment(context.Background(), lightning.PaymentRequest{
			Invoice:    invoice,
			MaxFeeMsat: 2_000,
		})
		require.NoError(t, err)
		require.Equal(t, lightning.PaymentIDFromHash(lightning.TestPaymentHash), id)
		require.Equal(t, invoice, router.sendReq.PaymentRequest)
		require.EqualValues(t, 2_000, router.sendReq.FeeLimitMsat)
		require.EqualValues(t, 0, router.sendReq.AmtMsat)
		require.EqualValues(t, DefaultPaymentTimeout.Seconds(), router.sendReq.TimeoutSeconds)
	})

	t.Run("already paid", func(t *testing.T) {
		router := &fakeRouter{sendErr: status.Error(codes.AlreadyExists, "invoice is already paid")}
		client := newTestClient(&fakeLightning{}, router, &fakeInvoices{})

		_, err := client.SendPayment(context.Background(), lightning.PaymentRequest{Invoice: invoice})
		require.ErrorIs(t, err, lightning.ErrAlreadyPaid)
	})

	t.Run("in flight reported on first update", func(t *testing.T) {
		stream := newStream[*lnrpc.Payment]()
		stream.err = status.Error(codes.AlreadyExists, "payment is in transition")
		client := newTestClient(&fakeLightning{}, &fakeRouter{sendStream: stream}, &fakeInvoices{})

		_, err := client.SendPayment(context.Background(), lightning.PaymentRequest{Invoice: invoice})
		require.ErrorIs(t, err, lightning.ErrPaymentInFlight)
	})

	t.Run("undecodable invoice", func(t *testing.T) {
		router := &fakeRouter{}
		client := newTestClient(&fakeLightning{}, router, &fakeInvoices{})

		_, err := client.SendPayment(context.Background(), lightning.PaymentRequest{Invoice: "lnbcrt1garbage"})
		require.ErrorIs(t, err, lightning.ErrNode)
		require.Nil(t, router.sendReq)
	})
}

func TestSendOfferPayment_Unsupported(t *testing.T) {
	client := newTestClient(&fakeLightning{}, &fakeRouter{}, &fakeInvoices{})

	_, err := client.SendOfferPayment(context.Background(), lightning.OfferPaymentRequest{Offer: "lno1", AmountMsat: 1_000})
	require.ErrorIs(t, err, lightning.ErrUnsupported)
}

func TestLookupPayment(t *testing.T) {
	id := lightning.PaymentIDFromHash(lightning.TestPaymentHash)

	tests := []struct {
		name    string
		payment *lnrpc.Payment
		check   func(t *testing.T, status *lightning.PaymentStatus)
		wantErr error
	}{
		{
			name: "succeeded",
			payment: &lnrpc.Payment{
				PaymentHash:     lightning.TestPaymentHash.String(),
				PaymentPreimage: lightning.TestPreimage.String(),
				ValueMsat:       5_000,
				FeeMsat:         12,
				Status:          lnrpc.Payment_SUCCEEDED,
			},
			check: func(t *testing.T, s *lightning.PaymentStatus) {
				require.Equal(t, lightning.PaymentStateSucceeded, s.State)
				require.Equal(t, lightning.TestPreimage, s.Preimage)
				require.EqualValues(t, 5_000, s.AmountMsat)
				require.EqualValues(t, 12, s.FeeMsat)
				require.IsType(t, lightning.PaymentSucceeded{}, s.Event())
			},
		},
		{
			name: "failed",
			payment: &lnrpc.Payment{
				PaymentHash:   lightning.TestPaymentHash.String(),
				Status:        lnrpc.Payment_FAILED,
				FailureReason: lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE,
			},
			check: func(t *testing.T, s *lightning.PaymentStatus) {
				require.Equal(t, lightning.PaymentStateFailed, s.State)
				require.Equal(t, "no route", s.FailureReason)
				require.Equal(t, lightning.PaymentFailed{ID: id, PaymentHash: lightning.TestPaymentHash, Reason: "no route"}, s.Event())
			},
		},
		{
			name: "in flight",
			payment: &lnrpc.Payment{
				PaymentHash: lightning.TestPaymentHash.String(),
				Status:      lnrpc.Payment_IN_FLIGHT,
			},
			check: func(t *testing.T, s *lightning.PaymentStatus) {
				require.Equal(t, lightning.PaymentStateInFlight, s.State)
				require.Nil(t, s.Event())
			},
		},
		{
			name: "preimage does not match",
			payment: &lnrpc.Payment{
				PaymentHash:     lightning.TestPaymentHash.String(),
				PaymentPreimage: lightning.TestPaymentHash.String(),
				Status:          lnrpc.Payment_SUCCEEDED,
			},
			wantErr: lightning.ErrNode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &fakeRouter{trackStream: newStream(tt.payment)}
			client := newTestClient(&fakeLightning{}, router, &fakeInvoices{})

			s, err := client.LookupPayment(context.Background(), id)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			require.Equal(t, id, s.ID)
			require.Equal(t, lightning.TestPaymentHash[:], router.trackReq.PaymentHash)
			tt.check(t, s)
		})
	}
}

func TestLookupPayment_NotFound(t *testing.T) {
	router := &fakeRouter{trackErr: status.Error(codes.NotFound, "payment isn't initiated")}
	client := newTestClient(&fakeLightning{}, router, &fakeInvoices{})

	_, err := client.LookupPayment(context.Background(), lightning.PaymentIDFromHash(lightning.TestPaymentHash))
	require.ErrorIs(t, err, lightning.ErrPaymentNotFound)

	_, err = client.LookupPayment(context.Background(), "not-a-hash")
	require.ErrorIs(t, err, lightning.ErrPaymentNotFound)
}
