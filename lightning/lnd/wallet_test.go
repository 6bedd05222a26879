package lnd

import (
	"context"
	"errors"
	"testing"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGetInfo(t *testing.T) {
	offline := openChannel()
	offline.RemotePubkey = "03" + testPeerNode[2:]

	ln := &fakeLightning{
		getInfo: &lnrpc.GetInfoResponse{
			IdentityPubkey:      lightning.TestNodeID,
			Alias:               "mint",
			NumActiveChannels:   1,
			NumInactiveChannels: 1,
			BlockHeight:         812,
			SyncedToChain:       true,
			Chains:              []*lnrpc.Chain{{Chain: "bitcoin", Network: "regtest"}},
			Uris:                []string{lightning.TestNodeID + "@10.0.0.1:9735"},
		},
		peers:    []*lnrpc.Peer{{PubKey: testPeerNode}},
		channels: []*lnrpc.Channel{openChannel(), offline},
		nodeInfo: &lnrpc.NodeInfo{Node: &lnrpc.LightningNode{
			Addresses: []*lnrpc.NodeAddress{{Network: "tcp", Addr: "mint.example.com:9735"}},
		}},
	}
	client := newTestClient(ln, &fakeRouter{}, &fakeInvoices{})

	info, err := client.GetInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, &lightning.NodeInfo{
		NodeID:                lightning.TestNodeID,
		Alias:                 "mint",
		Network:               lightning.Regtest,
		NumPeers:              2,
		NumConnectedPeers:     1,
		NumActiveChannels:     1,
		NumInactiveChannels:   1,
		AnnouncementAddresses: []string{"mint.example.com:9735"},
		ListeningAddresses:    []string{"10.0.0.1:9735"},
		BlockHeight:           812,
		SyncedToChain:         true,
	}, info)
}

func TestGetInfo_NotInGraph(t *testing.T) {
	ln := &fakeLightning{
		getInfo:     &lnrpc.GetInfoResponse{IdentityPubkey: lightning.TestNodeID},
		nodeInfoErr: status.Error(codes.Unknown, "unable to find node"),
	}
	client := newTestClient(ln, &fakeRouter{}, &fakeInvoices{})

	info, err := client.GetInfo(context.Background())
	require.NoError(t, err)
	require.Empty(t, info.AnnouncementAddresses)
	require.Empty(t, info.ListeningAddresses)
	require.Equal(t, lightning.Regtest, info.Network)
}

func TestGetInfo_Unreachable(t *testing.T) {
	ln := &fakeLightning{callErr: status.Error(codes.Unavailable, "connection refused")}
	client := newTestClient(ln, &fakeRouter{}, &fakeInvoices{})

	_, err := client.GetInfo(context.Background())
	require.ErrorIs(t, err, lightning.ErrNodeUnavailable)
}

func TestWalletBalance(t *testing.T) {
	ln := &fakeLightning{walletBal: &lnrpc.WalletBalanceResponse{
		TotalBalance:              150_000,
		ConfirmedBalance:          100_000,
		ReservedBalanceAnchorChan: 10_000,
	}}
	client := newTestClient(ln, &fakeRouter{}, &fakeInvoices{})

	balance, err := client.WalletBalance(context.Background())
	require.NoError(t, err)
	require.Equal(t, &lightning.WalletBalance{Total: 150_000, Confirmed: 100_000, Reserved: 10_000}, balance)
}

func TestSendOnchain(t *testing.T) {
	tests := []struct {
		name       string
		req        lightning.SendOnchainRequest
		err        error
		wantTarget int32
		wantErr    error
	}{
		{
			name:       "node estimate",
			req:        lightning.SendOnchainRequest{Address: "bcrt1qaddr", Amount: 1_000},
			wantTarget: defaultConfTarget,
		},
		{
			name: "explicit fee rate",
			req:  lightning.SendOnchainRequest{Address: "bcrt1qaddr", Amount: 1_000, SatPerVbyte: 12},
		},
		{
			name:    "insufficient funds",
			req:     lightning.SendOnchainRequest{Address: "bcrt1qaddr", Amount: 1_000},
			err:     status.Error(codes.Unknown, "insufficient funds available to construct transaction"),
			wantErr: lightning.ErrInsufficientFunds,
		},
		{
			name:    "invalid address",
			req:     lightning.SendOnchainRequest{Address: "nope", Amount: 1_000},
			err:     status.Error(codes.Unknown, "decode address: invalid format"),
			wantErr: lightning.ErrInvalidAddress,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ln := &fakeLightning{sendCoinsErr: tt.err}
			client := newTestClient(ln, &fakeRouter{}, &fakeInvoices{})

			txid, err := client.SendOnchain(context.Background(), tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			require.Equal(t, "txid", txid)
			require.Equal(t, tt.req.Address, ln.sendCoinsReq.Addr)
			require.EqualValues(t, tt.req.Amount, ln.sendCoinsReq.Amount)
			require.Equal(t, tt.req.SatPerVbyte, ln.sendCoinsReq.SatPerVbyte)
			require.Equal(t, tt.wantTarget, ln.sendCoinsReq.TargetConf)
		})
	}
}

func TestNewAddress(t *testing.T) {
	client := newTestClient(&fakeLightning{}, &fakeRouter{}, &fakeInvoices{})

	addr, err := client.NewAddress(context.Background())
	require.NoError(t, err)
	require.Equal(t, "bcrt1qnewaddress", addr)

	client = newTestClient(&fakeLightning{callErr: errors.New("wallet locked")}, &fakeRouter{}, &fakeInvoices{})
	_, err = client.NewAddress(context.Background())
	require.ErrorIs(t, err, lightning.ErrNode)
}
