package payments

import (
	"errors"
	"fmt"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
)

var (
	// ErrValidation marks malformed requests. They never reach the node.
	ErrValidation     = errors.New("validation error")
	ErrAmountMismatch = errors.New("amount mismatch")
	ErrAlreadyPending = errors.New("payment already pending")
	// ErrPaymentTimeout means the outcome is unknown: the payment may still
	// complete and will be reported through the status lookups.
	ErrPaymentTimeout = errors.New("payment timeout")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// TimeoutError is returned when no outcome arrived in time. It matches
// ErrPaymentTimeout.
type TimeoutError struct {
	ID    lightning.PaymentID
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s still in flight after %s", ErrPaymentTimeout, e.ID, e.After)
}

func (e *TimeoutError) Unwrap() error {
	return ErrPaymentTimeout
}
