package lightning

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"github.com/stretchr/testify/require"
)

var (
	TestPreimage = lntypes.Preimage{
		0x01, 0xda, 0x5d, 0x7d, 0x74, 0x0a, 0xc5, 0x7f,
		0xcd, 0xc1, 0x5f, 0xd4, 0x7b, 0x9c, 0x8c, 0x0c,
		0x3b, 0xa3, 0xb7, 0xb7, 0x62, 0xd1, 0x26, 0xdf,
		0x10, 0xfa, 0xb4, 0xad, 0x95, 0xd9, 0x84, 0x00,
	}
	TestPaymentHash = TestPreimage.Hash()

	TestPrivKeyBytes, _ = hex.DecodeString("e126f68f7eafcc8b74f54d269fe206be715000f94dac067d1c04a8ca3b2db734")

	TestPrivKey, _ = btcec.PrivKeyFromBytes(TestPrivKeyBytes)

	// TestNodeID is the node id that signs every mock invoice.
	TestNodeID = hex.EncodeToString(TestPrivKey.PubKey().SerializeCompressed())

	TestMessageSigner = zpay32.MessageSigner{
		SignCompact: func(msg []byte) ([]byte, error) {
			hash := chainhash.HashB(msg)
			sig, err := ecdsa.SignCompact(TestPrivKey, hash, true)
			if err != nil {
				return nil, err
			}

			return sig, nil
		},
	}

	Description   = "test description"
	EmptyFeatures = lnwire.NewFeatureVector(nil, lnwire.Features)
)

type InvoiceOption func(*zpay32.Invoice)

func WithPaymentHash(hash lntypes.Hash) InvoiceOption {
	return func(i *zpay32.Invoice) {
		h := [32]byte(hash)
		i.PaymentHash = &h
	}
}

func WithExpiry(expiry time.Duration) InvoiceOption {
	return func(i *zpay32.Invoice) {
		zpay32.Expiry(expiry)(i)
	}
}

func WithTimestamp(ts time.Time) InvoiceOption {
	return func(i *zpay32.Invoice) {
		i.Timestamp = ts
	}
}

// CreateMockInvoice returns a regtest invoice signed by TestPrivKey. A negative
// amountMsat produces an invoice without amount.
func CreateMockInvoice(t *testing.T, amountMsat int64, opts ...InvoiceOption) string {
	t.Helper()

	hash := [32]byte(TestPaymentHash)
	var decodedInvoice = zpay32.Invoice{
		Net:         &chaincfg.RegressionNetParams,
		PaymentHash: &hash,
		Description: &Description,
		Features:    EmptyFeatures,
		Timestamp:   time.Now(),
	}

	if amountMsat >= 0 {
		amount := lnwire.MilliSatoshi(amountMsat)
		decodedInvoice.MilliSat = &amount
	}

	for _, opt := range opts {
		opt(&decodedInvoice)
	}

	s, err := decodedInvoice.Encode(TestMessageSigner)
	require.NoErrorf(t, err, "encoding mock invoice: %v", err)

	return s
}
