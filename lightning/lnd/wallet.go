package lnd

import (
	"context"
	"strings"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lnrpc"
	log "github.com/sirupsen/logrus"
)

func (c *Client) GetInfo(ctx context.Context) (*lightning.NodeInfo, error) {
	info, err := c.lndClient.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, translateError(err, lightning.ErrNodeUnavailable)
	}

	peers, err := c.lndClient.ListPeers(ctx, &lnrpc.ListPeersRequest{})
	if err != nil {
		return nil, translateError(err, lightning.ErrNode)
	}

	channels, err := c.lndClient.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return nil, translateError(err, lightning.ErrNode)
	}

	// lnd only lists connected peers, channel counterparties that are offline
	// still count as peers.
	known := make(map[string]struct{}, len(peers.Peers))
	for _, p := range peers.Peers {
		known[p.PubKey] = struct{}{}
	}
	for _, ch := range channels.Channels {
		known[ch.RemotePubkey] = struct{}{}
	}

	network := lightning.Regtest
	if len(info.Chains) > 0 {
		network = lightning.ParseNetwork(info.Chains[0].Network)
	}

	listening := make([]string, 0, len(info.Uris))
	for _, uri := range info.Uris {
		_, addr, found := strings.Cut(uri, "@")
		if !found {
			addr = uri
		}
		listening = append(listening, addr)
	}

	return &lightning.NodeInfo{
		NodeID:                info.IdentityPubkey,
		Alias:                 info.Alias,
		Network:               network,
		NumPeers:              uint64(len(known)),
		NumConnectedPeers:     uint64(len(peers.Peers)),
		NumActiveChannels:     uint64(info.NumActiveChannels),
		NumInactiveChannels:   uint64(info.NumInactiveChannels),
		AnnouncementAddresses: c.announcementAddresses(ctx, info.IdentityPubkey),
		ListeningAddresses:    listening,
		BlockHeight:           info.BlockHeight,
		SyncedToChain:         info.SyncedToChain,
	}, nil
}

// announcementAddresses reads our own node announcement from the graph. A node
// without public channels has none, which is not an error.
func (c *Client) announcementAddresses(ctx context.Context, pubkey string) []string {
	node, err := c.lndClient.GetNodeInfo(ctx, &lnrpc.NodeInfoRequest{PubKey: pubkey})
	if err != nil {
		log.WithError(err).Debug("own node not found in graph")

		return []string{}
	}

	addrs := make([]string, 0, len(node.GetNode().GetAddresses()))
	for _, a := range node.GetNode().GetAddresses() {
		addrs = append(addrs, a.Addr)
	}

	return addrs
}

func (c *Client) NewAddress(ctx context.Context) (string, error) {
	res, err := c.lndClient.NewAddress(ctx, &lnrpc.NewAddressRequest{
		Type: lnrpc.AddressType_WITNESS_PUBKEY_HASH,
	})
	if err != nil {
		return "", translateError(err, lightning.ErrNode)
	}

	return res.Address, nil
}

func (c *Client) WalletBalance(ctx context.Context) (*lightning.WalletBalance, error) {
	res, err := c.lndClient.WalletBalance(ctx, &lnrpc.WalletBalanceRequest{})
	if err != nil {
		return nil, translateError(err, lightning.ErrNode)
	}

	return &lightning.WalletBalance{
		Total:     btcutil.Amount(res.TotalBalance),
		Confirmed: btcutil.Amount(res.ConfirmedBalance),
		Reserved:  btcutil.Amount(res.ReservedBalanceAnchorChan),
	}, nil
}

func (c *Client) SendOnchain(ctx context.Context, req lightning.SendOnchainRequest) (string, error) {
	sendReq := &lnrpc.SendCoinsRequest{
		Addr:        req.Address,
		Amount:      int64(req.Amount),
		SatPerVbyte: req.SatPerVbyte,
	}
	if req.SatPerVbyte == 0 {
		sendReq.TargetConf = defaultConfTarget
	}

	res, err := c.lndClient.SendCoins(ctx, sendReq)
	if err != nil {
		return "", translateError(err, lightning.ErrNode)
	}

	return res.Txid, nil
}
