package lightning

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/zpay32"
)

// ParsePubKey parses a hex-encoded public key (bitcon secp256k1) string into a btcec public key object
func ParsePubKey(pubKeyStr string) (*btcec.PublicKey, error) {
	pubKeyBytes, err := hex.DecodeString(pubKeyStr)
	if err != nil {
		return nil, err
	}

	pubKey, err := btcec.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, err
	}

	return pubKey, nil
}

// ValidateNodeID checks that id is a compressed secp256k1 public key.
func ValidateNodeID(id string) error {
	if len(id) != 2*btcec.PubKeyBytesLenCompressed {
		return NewError(ErrInvalidNodeID, "expected %d hex characters, got %d", 2*btcec.PubKeyBytesLenCompressed, len(id))
	}
	if _, err := ParsePubKey(id); err != nil {
		return NewError(ErrInvalidNodeID, "%v", err)
	}

	return nil
}

type Network string

const Mainnet Network = "mainnet"
const Regtest Network = "regtest"
const Testnet Network = "testnet"
const Signet Network = "signet"

// ParseNetwork accepts the names used by bitcoin tooling. Anything it does not
// recognise is treated as regtest.
func ParseNetwork(name string) Network {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "bitcoin":
		return Mainnet
	case "testnet", "testnet3":
		return Testnet
	case "signet":
		return Signet
	default:
		return Regtest
	}
}

func ToChainCfgNetwork(network Network) *chaincfg.Params {
	switch network {
	case Mainnet:
		return &chaincfg.MainNetParams
	case Regtest:
		return &chaincfg.RegressionNetParams
	case Testnet:
		return &chaincfg.TestNet3Params
	case Signet:
		return &chaincfg.SigNetParams
	default:
		return nil
	}
}

// DecodeAddress parses an on-chain address and checks it belongs to network.
func DecodeAddress(address string, network Network) (btcutil.Address, error) {
	params := ToChainCfgNetwork(network)
	if params == nil {
		return nil, fmt.Errorf("unknown network %q", network)
	}

	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, NewError(ErrInvalidAddress, "%v", err)
	}
	if !addr.IsForNet(params) {
		return nil, NewError(ErrInvalidAddress, "address is not for the current active network '%s'", network)
	}

	return addr, nil
}

// DecodeInvoice parses a bolt11 invoice for network.
func DecodeInvoice(invoice string, network Network) (*zpay32.Invoice, error) {
	params := ToChainCfgNetwork(network)
	if params == nil {
		return nil, fmt.Errorf("unknown network %q", network)
	}

	return zpay32.Decode(invoice, params)
}

// InvoiceExpiresAt is the time after which the invoice can no longer be paid.
func InvoiceExpiresAt(invoice *zpay32.Invoice) time.Time {
	return invoice.Timestamp.Add(invoice.Expiry())
}
