package lnd

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

// OpenChannel connects to the peer when a host is given and funds a channel.
// It returns once the funding transaction has been published.
func (c *Client) OpenChannel(ctx context.Context, req lightning.OpenChannelRequest) (string, error) {
	pubkey, err := hex.DecodeString(req.NodeID)
	if err != nil {
		return "", lightning.NewError(lightning.ErrInvalidNodeID, "%v", err)
	}

	if req.Host != "" {
		_, err := c.lndClient.ConnectPeer(ctx, &lnrpc.ConnectPeerRequest{
			Addr: &lnrpc.LightningAddress{
				Pubkey: req.NodeID,
				Host:   req.Host,
			},
		})
		if err != nil && !isAlreadyConnected(err) {
			return "", translateError(err, lightning.ErrPeerUnreachable)
		}
	}

	point, err := c.lndClient.OpenChannelSync(ctx, &lnrpc.OpenChannelRequest{
		NodePubkey:         pubkey,
		LocalFundingAmount: int64(req.Amount),
		PushSat:            int64(req.PushMsat.ToSatoshis()),
		Private:            req.Private,
	})
	if err != nil {
		return "", translateError(err, lightning.ErrNode)
	}

	channelPoint, err := channelPointString(point)
	if err != nil {
		return "", lightning.NewError(lightning.ErrNode, "%v", err)
	}

	log.WithFields(log.Fields{
		"channel_point": channelPoint,
		"node_id":       req.NodeID,
		"amount":        req.Amount,
	}).Info("channel funding published")

	return channelPoint, nil
}

// CloseChannel starts a cooperative close and returns once the closing
// transaction is pending.
func (c *Client) CloseChannel(ctx context.Context, channelPoint string, counterparty string) error {
	point, err := parseChannelPoint(channelPoint)
	if err != nil {
		return lightning.NewError(lightning.ErrChannelNotFound, "%v", err)
	}

	channels, err := c.ListChannels(ctx)
	if err != nil {
		return err
	}

	var found *lightning.Channel
	for i := range channels {
		if channels[i].ChannelPoint == channelPoint {
			found = &channels[i]

			break
		}
	}
	if found == nil || found.CounterpartyNodeID != counterparty {
		return lightning.NewError(lightning.ErrChannelNotFound, "%s with %s", channelPoint, counterparty)
	}

	switch found.State {
	case lightning.ChannelClosing, lightning.ChannelClosed:
		return lightning.NewError(lightning.ErrCloseInProgress, "%s", channelPoint)
	case lightning.ChannelPendingOpen:
		return lightning.NewError(lightning.ErrChannelNotFound, "%s is not open yet", channelPoint)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.lndClient.CloseChannel(streamCtx, &lnrpc.CloseChannelRequest{
		ChannelPoint: point,
	})
	if err != nil {
		return translateError(err, lightning.ErrNode)
	}

	for {
		update, err := stream.Recv()
		if err != nil {
			return translateError(err, lightning.ErrNode)
		}

		switch u := update.Update.(type) {
		case *lnrpc.CloseStatusUpdate_ClosePending:
			txid, _ := chainhash.NewHash(u.ClosePending.Txid)
			log.WithFields(log.Fields{
				"channel_point": channelPoint,
				"closing_txid":  txid,
			}).Info("channel close pending")

			return nil
		case *lnrpc.CloseStatusUpdate_ChanClose:
			return nil
		}
	}
}

// ListChannels returns open channels together with the ones still being
// opened or closed.
func (c *Client) ListChannels(ctx context.Context) ([]lightning.Channel, error) {
	open, err := c.lndClient.ListChannels(ctx, &lnrpc.ListChannelsRequest{})
	if err != nil {
		return nil, translateError(err, lightning.ErrNode)
	}

	pending, err := c.lndClient.PendingChannels(ctx, &lnrpc.PendingChannelsRequest{})
	if err != nil {
		return nil, translateError(err, lightning.ErrNode)
	}

	channels := make([]lightning.Channel, 0, len(open.Channels)+len(pending.PendingOpenChannels))
	for _, ch := range open.Channels {
		channels = append(channels, fromOpenChannel(ch))
	}
	for _, p := range pending.PendingOpenChannels {
		channels = append(channels, fromPendingChannel(p.Channel, lightning.ChannelPendingOpen))
	}
	for _, p := range pending.WaitingCloseChannels {
		channels = append(channels, fromPendingChannel(p.Channel, lightning.ChannelClosing))
	}
	for _, p := range pending.PendingForceClosingChannels {
		channels = append(channels, fromPendingChannel(p.Channel, lightning.ChannelClosing))
	}

	return channels, nil
}

func fromOpenChannel(ch *lnrpc.Channel) lightning.Channel {
	state := lightning.ChannelInactive
	if ch.Active {
		state = lightning.ChannelActive
	}

	scid := ch.ChanId

	return lightning.Channel{
		ChannelPoint:         ch.ChannelPoint,
		CounterpartyNodeID:   ch.RemotePubkey,
		BalanceMsat:          satToMsat(ch.LocalBalance),
		OutboundCapacityMsat: spendableMsat(ch.LocalBalance, ch.GetLocalConstraints().GetChanReserveSat()),
		InboundCapacityMsat:  spendableMsat(ch.RemoteBalance, ch.GetRemoteConstraints().GetChanReserveSat()),
		Usable:               ch.Active,
		Public:               !ch.Private,
		ShortChannelID:       &scid,
		State:                state,
	}
}

func fromPendingChannel(ch *lnrpc.PendingChannelsResponse_PendingChannel, state lightning.ChannelState) lightning.Channel {
	return lightning.Channel{
		ChannelPoint:       ch.GetChannelPoint(),
		CounterpartyNodeID: ch.GetRemoteNodePub(),
		BalanceMsat:        satToMsat(ch.GetLocalBalance()),
		Public:             !ch.GetPrivate(),
		State:              state,
	}
}

func satToMsat(sat int64) lnwire.MilliSatoshi {
	if sat <= 0 {
		return 0
	}

	return lnwire.MilliSatoshi(sat) * 1000
}

// spendableMsat is the balance above the channel reserve, never negative.
func spendableMsat(balance int64, reserve uint64) lnwire.MilliSatoshi {
	spendable := balance - int64(reserve)
	if spendable <= 0 {
		return 0
	}

	return satToMsat(spendable)
}

func channelPointString(point *lnrpc.ChannelPoint) (string, error) {
	var txid string
	switch f := point.FundingTxid.(type) {
	case *lnrpc.ChannelPoint_FundingTxidStr:
		txid = f.FundingTxidStr
	case *lnrpc.ChannelPoint_FundingTxidBytes:
		hash, err := chainhash.NewHash(f.FundingTxidBytes)
		if err != nil {
			return "", err
		}
		txid = hash.String()
	default:
		return "", fmt.Errorf("channel point without funding txid")
	}

	return fmt.Sprintf("%s:%d", txid, point.OutputIndex), nil
}

func parseChannelPoint(channelPoint string) (*lnrpc.ChannelPoint, error) {
	outpoint, err := wire.NewOutPointFromString(channelPoint)
	if err != nil {
		return nil, fmt.Errorf("invalid channel point %q: %w", channelPoint, err)
	}

	return &lnrpc.ChannelPoint{
		FundingTxid: &lnrpc.ChannelPoint_FundingTxidStr{
			FundingTxidStr: outpoint.Hash.String(),
		},
		OutputIndex: outpoint.Index,
	}, nil
}
