package lnd

import (
	"context"
	"errors"
	"strings"

	"github.com/40acres/cashu-lnd/lightning"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// lnd reports most failures as codes.Unknown with a descriptive message, so
// the kind is recovered from the text. Order matters: the first match wins.
var errorMessages = []struct {
	substr string
	kind   error
}{
	{"invoice is already paid", lightning.ErrAlreadyPaid},
	{"payment is in transition", lightning.ErrPaymentInFlight},
	{"payment already exists", lightning.ErrPaymentInFlight},
	{"payment isn't initiated", lightning.ErrPaymentNotFound},
	{"unable to locate invoice", lightning.ErrInvoiceNotFound},
	{"there are no existing invoices", lightning.ErrInvoiceNotFound},
	{"unable to find channel", lightning.ErrChannelNotFound},
	{"channel not found", lightning.ErrChannelNotFound},
	{"already being closed", lightning.ErrCloseInProgress},
	{"pending close", lightning.ErrCloseInProgress},
	{"not enough witness outputs", lightning.ErrInsufficientFunds},
	{"insufficient funds", lightning.ErrInsufficientFunds},
	{"insufficient balance", lightning.ErrInsufficientFunds},
	{"unable to parse pubkey", lightning.ErrInvalidNodeID},
	{"invalid pubkey", lightning.ErrInvalidNodeID},
	{"decode address", lightning.ErrInvalidAddress},
	{"invalid address", lightning.ErrInvalidAddress},
	{"not valid for this network", lightning.ErrInvalidAddress},
	{"is not online", lightning.ErrPeerUnreachable},
	{"unable to connect", lightning.ErrPeerUnreachable},
	{"dial tcp", lightning.ErrPeerUnreachable},
	{"connection refused", lightning.ErrPeerUnreachable},
	{"server is still in the process of starting", lightning.ErrNodeUnavailable},
	{"waiting to start", lightning.ErrNodeUnavailable},
}

// translateError converts an lnd grpc error into the lightning error set.
// fallback is the kind used when nothing more specific matches.
func translateError(err error, fallback error) error {
	if err == nil {
		return nil
	}

	var nodeErr *lightning.Error
	if errors.As(err, &nodeErr) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		return lightning.NewError(fallback, "%v", err)
	}

	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Unavailable:
		return lightning.NewError(lightning.ErrNodeUnavailable, "%s", st.Message())
	}

	if kind := matchMessage(st.Message()); kind != nil {
		return lightning.NewError(kind, "%s", st.Message())
	}

	return lightning.NewError(fallback, "%s", st.Message())
}

func matchMessage(msg string) error {
	lower := strings.ToLower(msg)
	for _, m := range errorMessages {
		if strings.Contains(lower, m.substr) {
			return m.kind
		}
	}

	return nil
}

func isAlreadyConnected(err error) bool {
	return strings.Contains(strings.ToLower(status.Convert(err).Message()), "already connected to peer")
}
