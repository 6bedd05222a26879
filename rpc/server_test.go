package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/40acres/cashu-lnd/channels"
	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/money"
	"github.com/40acres/cashu-lnd/payments"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type rpcTest struct {
	node        *lightning.MockNode
	registry    *payments.Registry
	index       *payments.Index
	broadcaster *payments.Broadcaster
	management  *ManagementClient
	processor   *PaymentProcessorClient
}

func newRPCTest(t *testing.T, timeout time.Duration) *rpcTest {
	t.Helper()

	return newRPCTestWith(t, timeout, PaymentProcessorConfig{})
}

func newRPCTestWith(t *testing.T, timeout time.Duration, processorCfg PaymentProcessorConfig) *rpcTest {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	clk := clock.NewDefaultClock()
	node := lightning.NewMockNode(ctrl)
	registry := payments.NewRegistry(clk, time.Hour)
	index := payments.NewIndex(clk, time.Hour)
	broadcaster := payments.NewBroadcaster()
	dispatcher := payments.NewDispatcher(node, registry, clk, payments.DispatcherConfig{
		Network: lightning.Regtest,
		Timeout: timeout,
		FeeReserve: money.FeeReserve{
			Percent: decimal.NewFromFloat(0.02),
			Min:     2,
		},
	})
	issuer := payments.NewIssuer(node, index, broadcaster, clk, 0)
	manager := channels.NewManager(node, nil, lightning.Regtest)

	server, err := newServer(ServerConfig{Name: "test", FS: afero.NewMemMapFs()}, func(r grpc.ServiceRegistrar) {
		RegisterManagementService(r, NewManagementServer(manager, dispatcher, issuer))
		RegisterPaymentProcessorService(r, NewPaymentProcessorServer(dispatcher, issuer, broadcaster, clk, processorCfg))
	})
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	go func() {
		_ = server.Serve(listener)
	}()

	conn, err := NewConnection("passthrough:///bufnet", WithDialOptions(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
	))
	require.NoError(t, err)

	t.Cleanup(func() {
		broadcaster.Close()
		require.NoError(t, conn.Close())
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Stop(ctx)
	})

	return &rpcTest{
		node:        node,
		registry:    registry,
		index:       index,
		broadcaster: broadcaster,
		management:  NewManagementClient(conn),
		processor:   NewPaymentProcessorClient(conn),
	}
}

func requireStatus(t *testing.T, err error, code codes.Code, kind string) {
	t.Helper()

	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	require.Equal(t, code, st.Code(), st.Message())
	require.Equal(t, kind, ErrorKind(err))
}

func u64(v uint64) *uint64 {
	return &v
}
