package lnd

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
)

// SubscribeEvents merges lnd's payment, invoice and channel streams. The
// returned channel is closed when any of the streams ends or ctx is done;
// callers resubscribe to continue. Settled invoices missed between two
// subscriptions of the same Client are replayed; the resume point only
// advances once the consumer took the settlement.
func (c *Client) SubscribeEvents(ctx context.Context) (<-chan lightning.Event, error) {
	ctx, cancel := context.WithCancel(ctx)

	payments, err := c.routerClient.TrackPayments(ctx, &routerrpc.TrackPaymentsRequest{
		NoInflightUpdates: true,
	})
	if err != nil {
		cancel()

		return nil, translateError(err, lightning.ErrNodeUnavailable)
	}

	invoices, err := c.lndClient.SubscribeInvoices(ctx, &lnrpc.InvoiceSubscription{
		SettleIndex: c.settleIndex.Load(),
	})
	if err != nil {
		cancel()

		return nil, translateError(err, lightning.ErrNodeUnavailable)
	}

	channels, err := c.lndClient.SubscribeChannelEvents(ctx, &lnrpc.ChannelEventSubscription{})
	if err != nil {
		cancel()

		return nil, translateError(err, lightning.ErrNodeUnavailable)
	}

	out := make(chan lightning.Event)
	var wg sync.WaitGroup

	// delivered, when set, runs once the consumer has taken the event.
	run := func(name string, recv func() (lightning.Event, error), delivered func()) {
		defer wg.Done()
		// Whichever stream stops first takes the others down with it.
		defer cancel()

		logger := log.WithField("stream", name)
		for {
			event, err := recv()
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
					logger.WithError(err).Warn("lnd event stream ended")
				}

				return
			}
			if event == nil {
				continue
			}

			select {
			case out <- event:
				if delivered != nil {
					delivered()
				}
			case <-ctx.Done():
				return
			}
		}
	}

	wg.Add(3)
	go run("payments", func() (lightning.Event, error) {
		p, err := payments.Recv()
		if err != nil {
			return nil, err
		}

		return paymentEvent(p)
	}, nil)
	// Only touched by the invoices goroutine.
	var received uint64
	go run("invoices", func() (lightning.Event, error) {
		inv, err := invoices.Recv()
		if err != nil {
			return nil, err
		}
		received = inv.SettleIndex

		return invoiceEvent(inv), nil
	}, func() {
		c.advanceSettleIndex(received)
	})
	go run("channels", func() (lightning.Event, error) {
		update, err := channels.Recv()
		if err != nil {
			return nil, err
		}

		return channelEvent(update), nil
	}, nil)

	go func() {
		wg.Wait()
		close(out)
	}()

	return out, nil
}

func paymentEvent(p *lnrpc.Payment) (lightning.Event, error) {
	status, err := fromPayment(p)
	if err != nil {
		log.WithError(err).WithField("payment_hash", p.PaymentHash).Error("dropping malformed payment update")

		return nil, nil
	}

	return status.Event(), nil
}

// advanceSettleIndex moves the resume point past a settlement that reached
// the consumer. A settlement dropped on shutdown is replayed by the next
// subscription.
func (c *Client) advanceSettleIndex(index uint64) {
	for {
		current := c.settleIndex.Load()
		if index <= current || c.settleIndex.CompareAndSwap(current, index) {
			return
		}
	}
}

func invoiceEvent(inv *lnrpc.Invoice) lightning.Event {
	if inv.State != lnrpc.Invoice_SETTLED {
		return nil
	}

	hash, err := lntypes.MakeHash(inv.RHash)
	if err != nil {
		log.WithError(err).Error("dropping settled invoice with malformed hash")

		return nil
	}

	return lightning.PaymentReceived{
		PaymentHash: hash,
		AmountMsat:  lnwire.MilliSatoshi(inv.AmtPaidMsat),
		SettledAt:   time.Unix(inv.SettleDate, 0),
	}
}

func channelEvent(update *lnrpc.ChannelEventUpdate) lightning.Event {
	switch update.Type {
	case lnrpc.ChannelEventUpdate_PENDING_OPEN_CHANNEL:
		p := update.GetPendingOpenChannel()
		txid, err := chainhash.NewHash(p.GetTxid())
		if err != nil {
			return nil
		}

		return lightning.ChannelStateChanged{
			ChannelPoint: wire.NewOutPoint(txid, p.GetOutputIndex()).String(),
			State:        lightning.ChannelPendingOpen,
		}
	case lnrpc.ChannelEventUpdate_OPEN_CHANNEL:
		ch := update.GetOpenChannel()

		return lightning.ChannelStateChanged{
			ChannelPoint:       ch.GetChannelPoint(),
			CounterpartyNodeID: ch.GetRemotePubkey(),
			State:              lightning.ChannelActive,
		}
	case lnrpc.ChannelEventUpdate_ACTIVE_CHANNEL:
		return channelPointEvent(update.GetActiveChannel(), lightning.ChannelActive)
	case lnrpc.ChannelEventUpdate_INACTIVE_CHANNEL:
		return channelPointEvent(update.GetInactiveChannel(), lightning.ChannelInactive)
	case lnrpc.ChannelEventUpdate_CLOSED_CHANNEL:
		ch := update.GetClosedChannel()

		return lightning.ChannelStateChanged{
			ChannelPoint:       ch.GetChannelPoint(),
			CounterpartyNodeID: ch.GetRemotePubkey(),
			State:              lightning.ChannelClosed,
		}
	default:
		return nil
	}
}

func channelPointEvent(point *lnrpc.ChannelPoint, state lightning.ChannelState) lightning.Event {
	if point == nil {
		return nil
	}

	channelPoint, err := channelPointString(point)
	if err != nil {
		return nil
	}

	return lightning.ChannelStateChanged{
		ChannelPoint: channelPoint,
		State:        state,
	}
}
