package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type clientOptions struct {
	fs     afero.Fs
	tlsDir string
	dial   []grpc.DialOption
}

type ClientOption func(*clientOptions)

// WithTLSDir uses ca.pem, client.pem and client.key from dir when present.
func WithTLSDir(fs afero.Fs, dir string) ClientOption {
	return func(o *clientOptions) {
		o.fs = fs
		o.tlsDir = dir
	}
}

func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(o *clientOptions) {
		o.dial = append(o.dial, opts...)
	}
}

func NewConnection(address string, opts ...ClientOption) (*grpc.ClientConn, error) {
	options := clientOptions{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(&options)
	}

	creds, err := clientCredentials(options.fs, options.tlsDir)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		creds = insecure.NewCredentials()
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, options.dial...)

	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", address, err)
	}

	return conn, nil
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, service, method string, req any) (*Resp, error) {
	resp := new(Resp)
	if err := conn.Invoke(ctx, fullMethod(service, method), req, resp, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}

	return resp, nil
}

type ManagementClient struct {
	conn grpc.ClientConnInterface
}

func NewManagementClient(conn grpc.ClientConnInterface) *ManagementClient {
	return &ManagementClient{conn: conn}
}

func (c *ManagementClient) GetInfo(ctx context.Context, req *GetInfoRequest) (*GetInfoResponse, error) {
	return invoke[GetInfoResponse](ctx, c.conn, ManagementServiceName, "GetInfo", req)
}

func (c *ManagementClient) GetNewAddress(ctx context.Context, req *GetNewAddressRequest) (*GetNewAddressResponse, error) {
	return invoke[GetNewAddressResponse](ctx, c.conn, ManagementServiceName, "GetNewAddress", req)
}

func (c *ManagementClient) OpenChannel(ctx context.Context, req *OpenChannelRequest) (*OpenChannelResponse, error) {
	return invoke[OpenChannelResponse](ctx, c.conn, ManagementServiceName, "OpenChannel", req)
}

func (c *ManagementClient) CloseChannel(ctx context.Context, req *CloseChannelRequest) (*CloseChannelResponse, error) {
	return invoke[CloseChannelResponse](ctx, c.conn, ManagementServiceName, "CloseChannel", req)
}

func (c *ManagementClient) ListBalance(ctx context.Context, req *ListBalanceRequest) (*ListBalanceResponse, error) {
	return invoke[ListBalanceResponse](ctx, c.conn, ManagementServiceName, "ListBalance", req)
}

func (c *ManagementClient) ListChannels(ctx context.Context, req *ListChannelsRequest) (*ListChannelsResponse, error) {
	return invoke[ListChannelsResponse](ctx, c.conn, ManagementServiceName, "ListChannels", req)
}

func (c *ManagementClient) SendOnchain(ctx context.Context, req *SendOnchainRequest) (*SendOnchainResponse, error) {
	return invoke[SendOnchainResponse](ctx, c.conn, ManagementServiceName, "SendOnchain", req)
}

func (c *ManagementClient) PayBolt11Invoice(ctx context.Context, req *PayBolt11InvoiceRequest) (*PaymentResponse, error) {
	return invoke[PaymentResponse](ctx, c.conn, ManagementServiceName, "PayBolt11Invoice", req)
}

func (c *ManagementClient) PayBolt12Offer(ctx context.Context, req *PayBolt12OfferRequest) (*PaymentResponse, error) {
	return invoke[PaymentResponse](ctx, c.conn, ManagementServiceName, "PayBolt12Offer", req)
}

func (c *ManagementClient) CreateBolt11Invoice(ctx context.Context, req *CreateBolt11InvoiceRequest) (*CreateBolt11InvoiceResponse, error) {
	return invoke[CreateBolt11InvoiceResponse](ctx, c.conn, ManagementServiceName, "CreateBolt11Invoice", req)
}

func (c *ManagementClient) CreateBolt12Offer(ctx context.Context, req *CreateBolt12OfferRequest) (*CreateBolt12OfferResponse, error) {
	return invoke[CreateBolt12OfferResponse](ctx, c.conn, ManagementServiceName, "CreateBolt12Offer", req)
}

type PaymentProcessorClient struct {
	conn grpc.ClientConnInterface
}

func NewPaymentProcessorClient(conn grpc.ClientConnInterface) *PaymentProcessorClient {
	return &PaymentProcessorClient{conn: conn}
}

func (c *PaymentProcessorClient) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	return invoke[SettingsResponse](ctx, c.conn, PaymentProcessorServiceName, "GetSettings", &EmptyRequest{})
}

func (c *PaymentProcessorClient) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	return invoke[CreatePaymentResponse](ctx, c.conn, PaymentProcessorServiceName, "CreatePayment", req)
}

func (c *PaymentProcessorClient) GetPaymentQuote(ctx context.Context, req *PaymentQuoteRequest) (*PaymentQuoteResponse, error) {
	return invoke[PaymentQuoteResponse](ctx, c.conn, PaymentProcessorServiceName, "GetPaymentQuote", req)
}

func (c *PaymentProcessorClient) MakePayment(ctx context.Context, req *MakePaymentRequest) (*MakePaymentResponse, error) {
	return invoke[MakePaymentResponse](ctx, c.conn, PaymentProcessorServiceName, "MakePayment", req)
}

func (c *PaymentProcessorClient) CheckIncomingPayment(ctx context.Context, req *CheckIncomingPaymentRequest) (*CheckIncomingPaymentResponse, error) {
	return invoke[CheckIncomingPaymentResponse](ctx, c.conn, PaymentProcessorServiceName, "CheckIncomingPayment", req)
}

func (c *PaymentProcessorClient) CheckOutgoingPayment(ctx context.Context, req *CheckOutgoingPaymentRequest) (*MakePaymentResponse, error) {
	return invoke[MakePaymentResponse](ctx, c.conn, PaymentProcessorServiceName, "CheckOutgoingPayment", req)
}

// IncomingPayments is the client side of WaitIncomingPayment.
type IncomingPayments struct {
	stream grpc.ClientStream
}

// Recv returns io.EOF once the server ended the stream.
func (s *IncomingPayments) Recv() (*WaitIncomingPaymentResponse, error) {
	resp := new(WaitIncomingPaymentResponse)
	if err := s.stream.RecvMsg(resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *PaymentProcessorClient) WaitIncomingPayment(ctx context.Context) (*IncomingPayments, error) {
	desc := &paymentProcessorServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(ctx, desc, fullMethod(PaymentProcessorServiceName, desc.StreamName), grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&EmptyRequest{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return &IncomingPayments{stream: stream}, nil
}
