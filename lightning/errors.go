package lightning

import (
	"errors"
	"fmt"
)

// ErrNode matches every failure reported by the node capability.
var ErrNode = errors.New("node error")

// Failure kinds the node capability can report. Backends translate their native
// errors into one of these before returning.
var (
	ErrPeerUnreachable   = errors.New("peer unreachable")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidNodeID     = errors.New("invalid node id")
	ErrChannelNotFound   = errors.New("channel not found")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrCloseInProgress   = errors.New("channel close already in progress")
	ErrIssuance          = errors.New("could not issue payment request")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrAlreadyPaid       = errors.New("invoice already paid")
	ErrPaymentInFlight   = errors.New("payment already in flight")
	ErrUnsupported       = errors.New("operation not supported by node")
	ErrNodeUnavailable   = errors.New("node unavailable")
)

// Error is a node failure tagged with its kind. It matches both the kind and
// ErrNode with errors.Is.
type Error struct {
	Kind error
	Msg  string
}

func NewError(kind error, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Error()
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, ErrNode}
}
