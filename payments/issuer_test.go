package payments

import (
	"context"
	"testing"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newIssuerTest(t *testing.T) (*lightning.MockNode, *Index, *Issuer) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	clk := clock.NewTestClock(testStart)
	node := lightning.NewMockNode(ctrl)
	index := NewIndex(clk, time.Hour)

	return node, index, NewIssuer(node, index, nil, clk, 0)
}

func TestIssuer_CreateInvoiceDefaultExpiry(t *testing.T) {
	ctx := context.Background()
	node, index, issuer := newIssuerTest(t)

	node.EXPECT().CreateInvoice(ctx, lightning.InvoiceRequest{
		AmountMsat:  1000,
		Description: "mint quote",
		Expiry:      time.Hour,
	}).Return(&lightning.Invoice{
		PaymentHash:    lightning.TestPaymentHash,
		PaymentRequest: "lnbcrt10n1...",
		AmountMsat:     1000,
	}, nil)

	invoice, err := issuer.CreateInvoice(ctx, InvoiceParams{AmountMsat: 1000, Description: "mint quote"})
	require.NoError(t, err)
	require.Equal(t, testStart, invoice.CreatedAt)
	require.Equal(t, testStart.Add(3600*time.Second), invoice.ExpiresAt)

	record, ok := index.Get(lightning.TestPaymentHash.String())
	require.True(t, ok)
	require.Equal(t, KindBolt11, record.Kind)
	require.Equal(t, invoice.ExpiresAt, record.ExpiresAt)
	require.EqualValues(t, 1000, *record.AmountMsat)
}

func TestIssuer_CreateInvoiceUniqueHashes(t *testing.T) {
	ctx := context.Background()
	node, index, issuer := newIssuerTest(t)

	hashes := []lntypes.Hash{{1}, {2}}
	for _, hash := range hashes {
		node.EXPECT().CreateInvoice(ctx, gomock.Any()).Return(&lightning.Invoice{
			PaymentHash: hash,
			AmountMsat:  1000,
			CreatedAt:   testStart,
			ExpiresAt:   testStart.Add(time.Minute),
		}, nil)
	}

	seconds := uint64(60)
	for range hashes {
		_, err := issuer.CreateInvoice(ctx, InvoiceParams{AmountMsat: 1000, ExpirySeconds: &seconds})
		require.NoError(t, err)
	}

	for _, hash := range hashes {
		_, ok := index.Get(hash.String())
		require.True(t, ok)
	}
}

func TestIssuer_Validation(t *testing.T) {
	ctx := context.Background()
	_, _, issuer := newIssuerTest(t)
	zero := uint64(0)

	_, err := issuer.CreateInvoice(ctx, InvoiceParams{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = issuer.CreateInvoice(ctx, InvoiceParams{AmountMsat: 1000, ExpirySeconds: &zero})
	require.ErrorIs(t, err, ErrValidation)

	_, err = issuer.CreateOffer(ctx, OfferParams{AmountMsat: msat(0)})
	require.ErrorIs(t, err, ErrValidation)

	_, err = issuer.Incoming(ctx, " ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestIssuer_CreateOffer(t *testing.T) {
	ctx := context.Background()
	node, index, issuer := newIssuerTest(t)

	node.EXPECT().CreateOffer(ctx, lightning.OfferRequest{Expiry: time.Hour}).Return(&lightning.Offer{
		OfferID: "offer-1",
		Offer:   "lno1...",
	}, nil)

	offer, err := issuer.CreateOffer(ctx, OfferParams{})
	require.NoError(t, err)
	require.Equal(t, testStart.Add(time.Hour), offer.ExpiresAt)

	record, ok := index.Get("offer-1")
	require.True(t, ok)
	require.Equal(t, KindBolt12, record.Kind)
	require.Nil(t, record.AmountMsat)
}

func TestIssuer_Incoming(t *testing.T) {
	ctx := context.Background()
	hash := lightning.TestPaymentHash

	tests := []struct {
		name      string
		lookupID  string
		setup     func(node *lightning.MockNode, index *Index)
		wantState IncomingState
		wantPaid  uint64
		wantErr   error
	}{
		{
			name:     "paid according to the index",
			lookupID: hash.String(),
			setup: func(_ *lightning.MockNode, index *Index) {
				index.MarkPaid(lightning.PaymentReceived{PaymentHash: hash, AmountMsat: 1000})
			},
			wantState: IncomingPaid,
			wantPaid:  1000,
		},
		{
			name:     "settlement missed by the stream",
			lookupID: hash.String(),
			setup: func(node *lightning.MockNode, index *Index) {
				index.Add(IncomingRecord{LookupID: hash.String(), Kind: KindBolt11, ExpiresAt: testStart.Add(time.Hour)})
				node.EXPECT().LookupInvoice(ctx, hash).Return(&lightning.Invoice{
					PaymentHash:    hash,
					State:          lightning.InvoiceSettled,
					AmountPaidMsat: 1000,
				}, nil)
			},
			wantState: IncomingPaid,
			wantPaid:  1000,
		},
		{
			name:     "issued before a restart and still open",
			lookupID: hash.String(),
			setup: func(node *lightning.MockNode, _ *Index) {
				node.EXPECT().LookupInvoice(ctx, hash).Return(&lightning.Invoice{
					PaymentHash: hash,
					State:       lightning.InvoiceOpen,
					AmountMsat:  1000,
					ExpiresAt:   testStart.Add(time.Minute),
				}, nil)
			},
			wantState: IncomingUnpaid,
		},
		{
			name:     "node unavailable falls back to the index",
			lookupID: hash.String(),
			setup: func(node *lightning.MockNode, index *Index) {
				index.Add(IncomingRecord{LookupID: hash.String(), Kind: KindBolt11, ExpiresAt: testStart.Add(time.Hour)})
				node.EXPECT().LookupInvoice(ctx, hash).Return(nil, lightning.NewError(lightning.ErrNodeUnavailable, "down"))
			},
			wantState: IncomingUnpaid,
		},
		{
			name:     "unknown invoice",
			lookupID: hash.String(),
			setup: func(node *lightning.MockNode, _ *Index) {
				node.EXPECT().LookupInvoice(ctx, hash).Return(nil, lightning.NewError(lightning.ErrInvoiceNotFound, "unknown"))
			},
			wantErr: lightning.ErrInvoiceNotFound,
		},
		{
			name:     "unknown offer",
			lookupID: "offer-404",
			setup:    func(*lightning.MockNode, *Index) {},
			wantErr:  lightning.ErrInvoiceNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, index, issuer := newIssuerTest(t)
			tt.setup(node, index)

			record, err := issuer.Incoming(ctx, tt.lookupID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantState, record.State(testStart))
			require.EqualValues(t, tt.wantPaid, record.PaidMsat())
		})
	}
}
