package rpc

import (
	"context"
	"errors"

	"github.com/40acres/cashu-lnd/channels"
	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/payments"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrorKindTrailer names the failure class of an RPC error.
const ErrorKindTrailer = "x-error-kind"

const errorDomain = "cashu-lnd"

const (
	KindValidation       = "validation"
	KindAmountMismatch   = "amount_mismatch"
	KindAlreadyPending   = "already_pending"
	KindPaymentTimeout   = "payment_timeout"
	KindPeerUnreachable  = "peer_unreachable"
	KindInsufficientFund = "insufficient_funds"
	KindInvalidNodeID    = "invalid_node_id"
	KindInvalidAddress   = "invalid_address"
	KindChannelNotFound  = "channel_not_found"
	KindPaymentNotFound  = "payment_not_found"
	KindInvoiceNotFound  = "invoice_not_found"
	KindAlreadyPaid      = "already_paid"
	KindIssuance         = "issuance"
	KindUnsupported      = "unsupported"
	KindNodeUnavailable  = "node_unavailable"
	KindNode             = "node"
	KindInternal         = "internal"
)

type errorClass struct {
	target error
	code   codes.Code
	kind   string
}

// Order matters: the first match wins.
var errorClasses = []errorClass{
	{payments.ErrValidation, codes.InvalidArgument, KindValidation},
	{channels.ErrValidation, codes.InvalidArgument, KindValidation},
	{payments.ErrAmountMismatch, codes.FailedPrecondition, KindAmountMismatch},
	{payments.ErrAlreadyPending, codes.AlreadyExists, KindAlreadyPending},
	{payments.ErrPaymentTimeout, codes.DeadlineExceeded, KindPaymentTimeout},
	{lightning.ErrPeerUnreachable, codes.Unavailable, KindPeerUnreachable},
	{lightning.ErrInsufficientFunds, codes.ResourceExhausted, KindInsufficientFund},
	{lightning.ErrInvalidNodeID, codes.InvalidArgument, KindInvalidNodeID},
	{lightning.ErrInvalidAddress, codes.InvalidArgument, KindInvalidAddress},
	{lightning.ErrChannelNotFound, codes.NotFound, KindChannelNotFound},
	{lightning.ErrPaymentNotFound, codes.NotFound, KindPaymentNotFound},
	{lightning.ErrInvoiceNotFound, codes.NotFound, KindInvoiceNotFound},
	{lightning.ErrAlreadyPaid, codes.FailedPrecondition, KindAlreadyPaid},
	{lightning.ErrIssuance, codes.Internal, KindIssuance},
	{lightning.ErrUnsupported, codes.Unimplemented, KindUnsupported},
	{lightning.ErrNodeUnavailable, codes.Unavailable, KindNodeUnavailable},
	{context.DeadlineExceeded, codes.DeadlineExceeded, KindInternal},
	{context.Canceled, codes.Canceled, KindInternal},
	{lightning.ErrNode, codes.Internal, KindNode},
}

func classify(err error) errorClass {
	for _, class := range errorClasses {
		if errors.Is(err, class.target) {
			return class
		}
	}

	return errorClass{code: codes.Internal, kind: KindInternal}
}

// toStatus converts a component error into a grpc status error that carries
// its kind both as ErrorInfo detail and as trailer.
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	class := classify(err)
	if err := grpc.SetTrailer(ctx, metadata.Pairs(ErrorKindTrailer, class.kind)); err != nil {
		log.WithContext(ctx).WithError(err).Debug("could not set error trailer")
	}

	st := status.New(class.code, err.Error())
	detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: class.kind,
		Domain: errorDomain,
	})
	if detailErr != nil {
		return st.Err()
	}

	return detailed.Err()
}

// ErrorKind returns the failure class of an error returned by a client call,
// or an empty string when the error does not carry one.
func ErrorKind(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.ErrorInfo); ok && info.GetDomain() == errorDomain {
			return info.GetReason()
		}
	}

	return ""
}
