// Package channels manages the node's channels and on-chain wallet on behalf
// of the management RPC. Every answer is read from the node at call time; the
// cached channel view only records what the event stream reported.
package channels

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/40acres/cashu-lnd/bitcoin"
	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/metrics"
	"github.com/40acres/cashu-lnd/money"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

// ErrValidation marks malformed requests. They never reach the node.
var ErrValidation = errors.New("validation error")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

type OpenParams struct {
	NodeID     string
	Address    string
	Port       uint32
	AmountMsat lnwire.MilliSatoshi
	PushMsat   *lnwire.MilliSatoshi
}

type Balance struct {
	TotalOnchain     money.Money
	SpendableOnchain money.Money
	TotalLightning   money.Money
}

type Manager struct {
	node    lightning.Node
	fees    bitcoin.FeeSource
	network lightning.Network
	logger  *log.Entry

	mu    sync.RWMutex
	cache map[string]lightning.ChannelState
}

// NewManager returns a Manager. fees may be nil, the node then estimates the
// on-chain fee itself.
func NewManager(node lightning.Node, fees bitcoin.FeeSource, network lightning.Network) *Manager {
	return &Manager{
		node:    node,
		fees:    fees,
		network: network,
		logger:  log.WithField("component", "channels"),
		cache:   make(map[string]lightning.ChannelState),
	}
}

func (m *Manager) Info(ctx context.Context) (*lightning.NodeInfo, error) {
	return m.node.GetInfo(ctx)
}

func (m *Manager) NewAddress(ctx context.Context) (string, error) {
	return m.node.NewAddress(ctx)
}

// OpenChannel connects to the peer and funds a channel with it. Channel sizes
// are whole satoshis.
func (m *Manager) OpenChannel(ctx context.Context, params OpenParams) (string, error) {
	nodeID := strings.TrimSpace(params.NodeID)
	if err := lightning.ValidateNodeID(nodeID); err != nil {
		return "", err
	}
	if params.Address == "" {
		return "", validationError("peer address is required")
	}
	if params.Port == 0 || params.Port > 65535 {
		return "", validationError("invalid peer port %d", params.Port)
	}
	if params.AmountMsat == 0 {
		return "", validationError("channel amount must be greater than zero")
	}
	amount, err := money.ExactFromMsat(params.AmountMsat)
	if err != nil {
		return "", validationError("channel amount %d msat: %v", params.AmountMsat, err)
	}

	var push lnwire.MilliSatoshi
	if params.PushMsat != nil {
		push = *params.PushMsat
	}
	if push > params.AmountMsat {
		return "", validationError("push amount exceeds the channel amount")
	}

	channelPoint, err := m.node.OpenChannel(ctx, lightning.OpenChannelRequest{
		NodeID:   nodeID,
		Host:     net.JoinHostPort(params.Address, strconv.FormatUint(uint64(params.Port), 10)),
		Amount:   amount.Amount(),
		PushMsat: push,
	})
	if err != nil {
		return "", err
	}

	m.setCached(channelPoint, lightning.ChannelPendingOpen)

	return channelPoint, nil
}

// CloseChannel cooperatively closes a channel. Closing a channel that is
// already closing succeeds.
func (m *Manager) CloseChannel(ctx context.Context, channelID, counterparty string) error {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return validationError("channel id is required")
	}
	counterparty = strings.TrimSpace(counterparty)
	if err := lightning.ValidateNodeID(counterparty); err != nil {
		return err
	}

	logger := m.logger.WithContext(ctx).WithField("channel_point", channelID)

	if state, ok := m.Cached(channelID); ok && state == lightning.ChannelClosing {
		logger.Info("channel close already requested")

		return nil
	}

	err := m.node.CloseChannel(ctx, channelID, counterparty)
	switch {
	case errors.Is(err, lightning.ErrCloseInProgress):
		logger.Info("channel close already in progress")
	case err != nil:
		return err
	}

	m.setCached(channelID, lightning.ChannelClosing)

	return nil
}

// ListChannels returns the node's current channels and refreshes the cache
// with them.
func (m *Manager) ListChannels(ctx context.Context) ([]lightning.Channel, error) {
	channels, err := m.node.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache = make(map[string]lightning.ChannelState, len(channels))
	for _, c := range channels {
		m.cache[c.ChannelPoint] = c.State
	}
	metrics.CachedChannels.Set(float64(len(m.cache)))

	return channels, nil
}

func (m *Manager) ListBalance(ctx context.Context) (*Balance, error) {
	wallet, err := m.node.WalletBalance(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := m.node.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	spendable := wallet.Confirmed - wallet.Reserved
	if spendable < 0 {
		spendable = 0
	}

	var lightningMsat lnwire.MilliSatoshi
	for _, c := range channels {
		lightningMsat += c.BalanceMsat
	}

	return &Balance{
		TotalOnchain:     money.Money(wallet.Total),
		SpendableOnchain: money.Money(spendable),
		TotalLightning:   money.FromMsat(lightningMsat),
	}, nil
}

// SendOnchain sends amount to address and returns the transaction id.
func (m *Manager) SendOnchain(ctx context.Context, amount money.Money, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", validationError("address is required")
	}
	if amount == 0 {
		return "", validationError("amount must be greater than zero")
	}
	if _, err := lightning.DecodeAddress(address, m.network); err != nil {
		return "", err
	}

	logger := m.logger.WithContext(ctx).WithFields(log.Fields{
		"address": address,
		"amount":  amount,
	})

	var feeRate uint64
	if m.fees != nil {
		rate, err := m.fees.RecommendedFeeRate(ctx)
		if err != nil {
			logger.WithError(err).Warn("fee source failed, letting the node estimate")
		} else {
			feeRate = rate
		}
	}

	txid, err := m.node.SendOnchain(ctx, lightning.SendOnchainRequest{
		Address:     address,
		Amount:      amount.Amount(),
		SatPerVbyte: feeRate,
	})
	if err != nil {
		return "", err
	}

	logger.WithFields(log.Fields{"txid": txid, "sat_per_vbyte": feeRate}).Info("on-chain send broadcast")

	return txid, nil
}

// Observe records a channel state change reported by the node.
func (m *Manager) Observe(event lightning.ChannelStateChanged) {
	m.logger.WithFields(log.Fields{
		"channel_point": event.ChannelPoint,
		"state":         event.State,
	}).Debug("channel state changed")

	if event.State == lightning.ChannelClosed {
		m.mu.Lock()
		delete(m.cache, event.ChannelPoint)
		metrics.CachedChannels.Set(float64(len(m.cache)))
		m.mu.Unlock()

		return
	}

	m.setCached(event.ChannelPoint, event.State)
}

// Cached returns the last state seen for a channel. It may be stale.
func (m *Manager) Cached(channelPoint string) (lightning.ChannelState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.cache[channelPoint]

	return state, ok
}

func (m *Manager) setCached(channelPoint string, state lightning.ChannelState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache[channelPoint] = state
	metrics.CachedChannels.Set(float64(len(m.cache)))
}
