package lnd

import (
	"context"
	"io"
	"sync"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/invoicesrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"google.golang.org/grpc"
)

// fakeStream replays msgs, then returns err. With hold set it blocks until its
// context is canceled instead of ending.
type fakeStream[T any] struct {
	grpc.ClientStream

	ctx  context.Context
	mu   sync.Mutex
	msgs []T
	err  error
	hold bool
}

func (s *fakeStream[T]) Recv() (T, error) {
	var zero T

	s.mu.Lock()
	if len(s.msgs) > 0 {
		msg := s.msgs[0]
		s.msgs = s.msgs[1:]
		s.mu.Unlock()

		return msg, nil
	}
	s.mu.Unlock()

	if s.hold {
		<-s.ctx.Done()

		return zero, s.ctx.Err()
	}
	if s.err != nil {
		return zero, s.err
	}

	return zero, io.EOF
}

func newStream[T any](msgs ...T) *fakeStream[T] {
	return &fakeStream[T]{msgs: msgs}
}

type fakeLightning struct {
	lnrpc.LightningClient

	getInfo      *lnrpc.GetInfoResponse
	peers        []*lnrpc.Peer
	nodeInfo     *lnrpc.NodeInfo
	nodeInfoErr  error
	channels     []*lnrpc.Channel
	pending      *lnrpc.PendingChannelsResponse
	walletBal    *lnrpc.WalletBalanceResponse
	connectErr   error
	openErr      error
	fundingPoint *lnrpc.ChannelPoint
	closeStream  *fakeStream[*lnrpc.CloseStatusUpdate]
	closeErr     error
	addInvoice   *lnrpc.AddInvoiceResponse
	addErr       error
	sendCoinsErr error
	invoiceSub   *fakeStream[*lnrpc.Invoice]
	channelSub   *fakeStream[*lnrpc.ChannelEventUpdate]
	callErr      error

	connectReq    *lnrpc.ConnectPeerRequest
	openReq       *lnrpc.OpenChannelRequest
	closeReq      *lnrpc.CloseChannelRequest
	addReq        *lnrpc.Invoice
	sendCoinsReq  *lnrpc.SendCoinsRequest
	invoiceSubReq *lnrpc.InvoiceSubscription
}

func (f *fakeLightning) GetInfo(ctx context.Context, in *lnrpc.GetInfoRequest, opts ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}

	return f.getInfo, nil
}

func (f *fakeLightning) ListPeers(ctx context.Context, in *lnrpc.ListPeersRequest, opts ...grpc.CallOption) (*lnrpc.ListPeersResponse, error) {
	return &lnrpc.ListPeersResponse{Peers: f.peers}, nil
}

func (f *fakeLightning) GetNodeInfo(ctx context.Context, in *lnrpc.NodeInfoRequest, opts ...grpc.CallOption) (*lnrpc.NodeInfo, error) {
	return f.nodeInfo, f.nodeInfoErr
}

func (f *fakeLightning) ListChannels(ctx context.Context, in *lnrpc.ListChannelsRequest, opts ...grpc.CallOption) (*lnrpc.ListChannelsResponse, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}

	return &lnrpc.ListChannelsResponse{Channels: f.channels}, nil
}

func (f *fakeLightning) PendingChannels(ctx context.Context, in *lnrpc.PendingChannelsRequest, opts ...grpc.CallOption) (*lnrpc.PendingChannelsResponse, error) {
	if f.pending == nil {
		return &lnrpc.PendingChannelsResponse{}, nil
	}

	return f.pending, nil
}

func (f *fakeLightning) WalletBalance(ctx context.Context, in *lnrpc.WalletBalanceRequest, opts ...grpc.CallOption) (*lnrpc.WalletBalanceResponse, error) {
	return f.walletBal, f.callErr
}

func (f *fakeLightning) NewAddress(ctx context.Context, in *lnrpc.NewAddressRequest, opts ...grpc.CallOption) (*lnrpc.NewAddressResponse, error) {
	return &lnrpc.NewAddressResponse{Address: "bcrt1qnewaddress"}, f.callErr
}

func (f *fakeLightning) SendCoins(ctx context.Context, in *lnrpc.SendCoinsRequest, opts ...grpc.CallOption) (*lnrpc.SendCoinsResponse, error) {
	f.sendCoinsReq = in
	if f.sendCoinsErr != nil {
		return nil, f.sendCoinsErr
	}

	return &lnrpc.SendCoinsResponse{Txid: "txid"}, nil
}

func (f *fakeLightning) ConnectPeer(ctx context.Context, in *lnrpc.ConnectPeerRequest, opts ...grpc.CallOption) (*lnrpc.ConnectPeerResponse, error) {
	f.connectReq = in

	return &lnrpc.ConnectPeerResponse{}, f.connectErr
}

func (f *fakeLightning) OpenChannelSync(ctx context.Context, in *lnrpc.OpenChannelRequest, opts ...grpc.CallOption) (*lnrpc.ChannelPoint, error) {
	f.openReq = in
	if f.openErr != nil {
		return nil, f.openErr
	}

	return f.fundingPoint, nil
}

func (f *fakeLightning) CloseChannel(ctx context.Context, in *lnrpc.CloseChannelRequest, opts ...grpc.CallOption) (lnrpc.Lightning_CloseChannelClient, error) {
	f.closeReq = in
	if f.closeErr != nil {
		return nil, f.closeErr
	}
	f.closeStream.ctx = ctx

	return f.closeStream, nil
}

func (f *fakeLightning) AddInvoice(ctx context.Context, in *lnrpc.Invoice, opts ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error) {
	f.addReq = in
	if f.addErr != nil {
		return nil, f.addErr
	}

	return f.addInvoice, nil
}

func (f *fakeLightning) SubscribeInvoices(ctx context.Context, in *lnrpc.InvoiceSubscription, opts ...grpc.CallOption) (lnrpc.Lightning_SubscribeInvoicesClient, error) {
	f.invoiceSubReq = in
	f.invoiceSub.ctx = ctx

	return f.invoiceSub, nil
}

func (f *fakeLightning) SubscribeChannelEvents(ctx context.Context, in *lnrpc.ChannelEventSubscription, opts ...grpc.CallOption) (lnrpc.Lightning_SubscribeChannelEventsClient, error) {
	f.channelSub.ctx = ctx

	return f.channelSub, nil
}

type fakeRouter struct {
	routerrpc.RouterClient

	sendStream  *fakeStream[*lnrpc.Payment]
	sendErr     error
	trackStream *fakeStream[*lnrpc.Payment]
	trackErr    error
	trackAll    *fakeStream[*lnrpc.Payment]
	trackAllErr error

	sendReq  *routerrpc.SendPaymentRequest
	trackReq *routerrpc.TrackPaymentRequest
}

func (f *fakeRouter) SendPaymentV2(ctx context.Context, in *routerrpc.SendPaymentRequest, opts ...grpc.CallOption) (routerrpc.Router_SendPaymentV2Client, error) {
	f.sendReq = in
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sendStream.ctx = ctx

	return f.sendStream, nil
}

func (f *fakeRouter) TrackPaymentV2(ctx context.Context, in *routerrpc.TrackPaymentRequest, opts ...grpc.CallOption) (routerrpc.Router_TrackPaymentV2Client, error) {
	f.trackReq = in
	if f.trackErr != nil {
		return nil, f.trackErr
	}
	f.trackStream.ctx = ctx

	return f.trackStream, nil
}

func (f *fakeRouter) TrackPayments(ctx context.Context, in *routerrpc.TrackPaymentsRequest, opts ...grpc.CallOption) (routerrpc.Router_TrackPaymentsClient, error) {
	if f.trackAllErr != nil {
		return nil, f.trackAllErr
	}
	f.trackAll.ctx = ctx

	return f.trackAll, nil
}

type fakeInvoices struct {
	invoicesrpc.InvoicesClient

	invoice *lnrpc.Invoice
	err     error
}

func (f *fakeInvoices) LookupInvoiceV2(ctx context.Context, in *invoicesrpc.LookupInvoiceMsg, opts ...grpc.CallOption) (*lnrpc.Invoice, error) {
	return f.invoice, f.err
}

func newTestClient(ln *fakeLightning, router *fakeRouter, invoices *fakeInvoices) *Client {
	return newClient(ln, router, invoices, Options{
		network:        "regtest",
		paymentTimeout: DefaultPaymentTimeout,
	})
}
