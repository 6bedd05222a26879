package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ManagementServiceName       = "cdk_ldk_management.CdkLdkManagement"
	PaymentProcessorServiceName = "cdk_payment_processor.CdkPaymentProcessor"
)

type ManagementService interface {
	GetInfo(ctx context.Context, req *GetInfoRequest) (*GetInfoResponse, error)
	GetNewAddress(ctx context.Context, req *GetNewAddressRequest) (*GetNewAddressResponse, error)
	OpenChannel(ctx context.Context, req *OpenChannelRequest) (*OpenChannelResponse, error)
	CloseChannel(ctx context.Context, req *CloseChannelRequest) (*CloseChannelResponse, error)
	ListBalance(ctx context.Context, req *ListBalanceRequest) (*ListBalanceResponse, error)
	ListChannels(ctx context.Context, req *ListChannelsRequest) (*ListChannelsResponse, error)
	SendOnchain(ctx context.Context, req *SendOnchainRequest) (*SendOnchainResponse, error)
	PayBolt11Invoice(ctx context.Context, req *PayBolt11InvoiceRequest) (*PaymentResponse, error)
	PayBolt12Offer(ctx context.Context, req *PayBolt12OfferRequest) (*PaymentResponse, error)
	CreateBolt11Invoice(ctx context.Context, req *CreateBolt11InvoiceRequest) (*CreateBolt11InvoiceResponse, error)
	CreateBolt12Offer(ctx context.Context, req *CreateBolt12OfferRequest) (*CreateBolt12OfferResponse, error)
}

// IncomingPaymentStream is the server side of WaitIncomingPayment.
type IncomingPaymentStream interface {
	Send(*WaitIncomingPaymentResponse) error
	Context() context.Context
}

type PaymentProcessorService interface {
	GetSettings(ctx context.Context, req *EmptyRequest) (*SettingsResponse, error)
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error)
	GetPaymentQuote(ctx context.Context, req *PaymentQuoteRequest) (*PaymentQuoteResponse, error)
	MakePayment(ctx context.Context, req *MakePaymentRequest) (*MakePaymentResponse, error)
	CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest) (*CheckIncomingPaymentResponse, error)
	CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest) (*MakePaymentResponse, error)
	WaitIncomingPayment(req *EmptyRequest, stream IncomingPaymentStream) error
}

func fullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// unary builds the grpc method descriptor for a request/response call on S.
func unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, req)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(service, method),
			}

			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			})
		},
	}
}

var managementServiceDesc = grpc.ServiceDesc{
	ServiceName: ManagementServiceName,
	HandlerType: (*ManagementService)(nil),
	Methods: []grpc.MethodDesc{
		unary(ManagementServiceName, "GetInfo", ManagementService.GetInfo),
		unary(ManagementServiceName, "GetNewAddress", ManagementService.GetNewAddress),
		unary(ManagementServiceName, "OpenChannel", ManagementService.OpenChannel),
		unary(ManagementServiceName, "CloseChannel", ManagementService.CloseChannel),
		unary(ManagementServiceName, "ListBalance", ManagementService.ListBalance),
		unary(ManagementServiceName, "ListChannels", ManagementService.ListChannels),
		unary(ManagementServiceName, "SendOnchain", ManagementService.SendOnchain),
		unary(ManagementServiceName, "PayBolt11Invoice", ManagementService.PayBolt11Invoice),
		unary(ManagementServiceName, "PayBolt12Offer", ManagementService.PayBolt12Offer),
		unary(ManagementServiceName, "CreateBolt11Invoice", ManagementService.CreateBolt11Invoice),
		unary(ManagementServiceName, "CreateBolt12Offer", ManagementService.CreateBolt12Offer),
	},
	Metadata: "cdk_ldk_management.proto",
}

type incomingPaymentServerStream struct {
	grpc.ServerStream
}

func (s *incomingPaymentServerStream) Send(resp *WaitIncomingPaymentResponse) error {
	return s.ServerStream.SendMsg(resp)
}

var paymentProcessorServiceDesc = grpc.ServiceDesc{
	ServiceName: PaymentProcessorServiceName,
	HandlerType: (*PaymentProcessorService)(nil),
	Methods: []grpc.MethodDesc{
		unary(PaymentProcessorServiceName, "GetSettings", PaymentProcessorService.GetSettings),
		unary(PaymentProcessorServiceName, "CreatePayment", PaymentProcessorService.CreatePayment),
		unary(PaymentProcessorServiceName, "GetPaymentQuote", PaymentProcessorService.GetPaymentQuote),
		unary(PaymentProcessorServiceName, "MakePayment", PaymentProcessorService.MakePayment),
		unary(PaymentProcessorServiceName, "CheckIncomingPayment", PaymentProcessorService.CheckIncomingPayment),
		unary(PaymentProcessorServiceName, "CheckOutgoingPayment", PaymentProcessorService.CheckOutgoingPayment),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WaitIncomingPayment",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(EmptyRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}

				return srv.(PaymentProcessorService).WaitIncomingPayment(req, &incomingPaymentServerStream{stream})
			},
		},
	},
	Metadata: "cdk_payment_processor.proto",
}

func RegisterManagementService(registrar grpc.ServiceRegistrar, srv ManagementService) {
	registrar.RegisterService(&managementServiceDesc, srv)
}

func RegisterPaymentProcessorService(registrar grpc.ServiceRegistrar, srv PaymentProcessorService) {
	registrar.RegisterService(&paymentProcessorServiceDesc, srv)
}
