package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []lightning.ChannelStateChanged
}

func (o *recordingObserver) Observe(event lightning.ChannelStateChanged) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events = append(o.events, event)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return len(o.events)
}

// streamFrom forwards events to each subscription until its context ends.
func streamFrom(events <-chan lightning.Event) func(context.Context) (<-chan lightning.Event, error) {
	return func(ctx context.Context) (<-chan lightning.Event, error) {
		out := make(chan lightning.Event)
		go func() {
			defer close(out)
			for {
				select {
				case event := <-events:
					select {
					case out <- event:
					case <-ctx.Done():
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		return out, nil
	}
}

type reconcilerTest struct {
	node        *lightning.MockNode
	clock       *clock.TestClock
	ticks       chan time.Duration
	registry    *Registry
	index       *Index
	broadcaster *Broadcaster
	observer    *recordingObserver
	prune       *ticker.Force
	reconciler  *Reconciler
}

func newReconcilerTest(t *testing.T) *reconcilerTest {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	clk, ticks := newTickingClock(testStart)
	rt := &reconcilerTest{
		node:        lightning.NewMockNode(ctrl),
		clock:       clk,
		ticks:       ticks,
		registry:    NewRegistry(clk, time.Hour),
		index:       NewIndex(clk, time.Hour),
		broadcaster: NewBroadcaster(),
		observer:    &recordingObserver{},
		prune:       ticker.NewForce(time.Hour),
	}
	rt.reconciler = NewReconciler(ReconcilerConfig{
		Node:        rt.node,
		Registry:    rt.registry,
		Index:       rt.index,
		Broadcaster: rt.broadcaster,
		Channels:    rt.observer,
		Clock:       clk,
		PruneTicker: rt.prune,
	})

	return rt
}

func TestReconciler_AppliesEventsInOrder(t *testing.T) {
	rt := newReconcilerTest(t)
	events := make(chan lightning.Event)
	rt.node.EXPECT().SubscribeEvents(gomock.Any()).DoAndReturn(streamFrom(events))

	id := lightning.PaymentIDFromHash(lightning.TestPaymentHash)
	waiter, _, err := rt.registry.Reserve(id, KindBolt11)
	require.NoError(t, err)
	rt.node.EXPECT().LookupPayment(gomock.Any(), id).Return(&lightning.PaymentStatus{
		ID:    id,
		State: lightning.PaymentStateInFlight,
	}, nil)

	incoming, cancel := rt.broadcaster.Subscribe()
	defer cancel()

	rt.reconciler.Start()
	defer rt.reconciler.Stop()

	received := lightning.PaymentReceived{PaymentHash: lightning.TestPaymentHash, AmountMsat: 1000}
	events <- received
	events <- received
	events <- lightning.PaymentSucceeded{
		ID:          id,
		PaymentHash: lightning.TestPaymentHash,
		Preimage:    lightning.TestPreimage,
		AmountMsat:  5000,
	}
	events <- lightning.PaymentFailed{ID: id, Reason: "late duplicate"}
	events <- lightning.ChannelStateChanged{ChannelPoint: "txid:0", State: lightning.ChannelActive}

	select {
	case outcome := <-waiter.Done():
		require.True(t, outcome.Success)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "payment was not resolved")
	}

	payment := <-incoming
	require.Equal(t, lightning.TestPaymentHash.String(), payment.LookupID)

	require.Eventually(t, func() bool { return rt.observer.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.Empty(t, incoming, "replayed settlement must not be broadcast twice")

	outcome, _ := rt.registry.Status(id)
	require.True(t, outcome.Success)
}

func TestReconciler_SettlementFoundByLookupIsStreamedOnce(t *testing.T) {
	ctx := context.Background()
	rt := newReconcilerTest(t)
	issuer := NewIssuer(rt.node, rt.index, rt.broadcaster, rt.clock, 0)

	hash := lightning.TestPaymentHash
	rt.index.Add(IncomingRecord{LookupID: hash.String(), Kind: KindBolt11, ExpiresAt: testStart.Add(time.Hour)})
	rt.node.EXPECT().LookupInvoice(ctx, hash).Return(&lightning.Invoice{
		PaymentHash:    hash,
		State:          lightning.InvoiceSettled,
		AmountPaidMsat: 1000,
	}, nil)

	incoming, cancel := rt.broadcaster.Subscribe()
	defer cancel()

	record, err := issuer.Incoming(ctx, hash.String())
	require.NoError(t, err)
	require.EqualValues(t, 1000, record.PaidMsat())

	// The node's own notification arrives after the lookup saw the settlement.
	rt.reconciler.Apply(lightning.PaymentReceived{PaymentHash: hash, AmountMsat: 1000})

	select {
	case payment := <-incoming:
		require.Equal(t, hash.String(), payment.LookupID)
		require.EqualValues(t, 1000, payment.AmountMsat)
	case <-time.After(time.Second):
		require.FailNow(t, "settlement never reached the incoming payment stream")
	}

	select {
	case payment := <-incoming:
		require.FailNow(t, "settlement streamed twice", "%v", payment)
	default:
	}
}

func TestReconciler_ResyncResolvesMissedOutcome(t *testing.T) {
	rt := newReconcilerTest(t)
	events := make(chan lightning.Event)
	id := lightning.PaymentID("abc")

	waiter, _, err := rt.registry.Reserve(id, KindBolt11)
	require.NoError(t, err)

	rt.node.EXPECT().SubscribeEvents(gomock.Any()).DoAndReturn(streamFrom(events))
	rt.node.EXPECT().LookupPayment(gomock.Any(), id).Return(&lightning.PaymentStatus{
		ID:            id,
		State:         lightning.PaymentStateFailed,
		FailureReason: "no route",
	}, nil)

	rt.reconciler.Start()
	defer rt.reconciler.Stop()

	select {
	case outcome := <-waiter.Done():
		require.False(t, outcome.Success)
		require.Equal(t, "no route", outcome.FailureReason)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "payment was not resolved")
	}
}

func TestReconciler_ReleasesAbandonedPaymentUnknownToNode(t *testing.T) {
	rt := newReconcilerTest(t)
	id := lightning.PaymentID("abc")

	_, _, err := rt.registry.Reserve(id, KindBolt11)
	require.NoError(t, err)
	rt.registry.Abandon(id)

	rt.node.EXPECT().SubscribeEvents(gomock.Any()).DoAndReturn(streamFrom(make(chan lightning.Event)))
	rt.node.EXPECT().LookupPayment(gomock.Any(), id).
		Return(nil, lightning.NewError(lightning.ErrPaymentNotFound, "%s", id))

	rt.reconciler.Start()
	defer rt.reconciler.Stop()

	require.Eventually(t, func() bool {
		return len(rt.registry.Pending()) == 0
	}, 5*time.Second, 10*time.Millisecond)

	waiter, done, err := rt.registry.Reserve(id, KindBolt11)
	require.NoError(t, err)
	require.Nil(t, done)
	require.NotNil(t, waiter)
}

func TestReconciler_KeepsAwaitedPaymentUnknownToNode(t *testing.T) {
	rt := newReconcilerTest(t)
	id := lightning.PaymentID("abc")

	_, _, err := rt.registry.Reserve(id, KindBolt11)
	require.NoError(t, err)

	looked := make(chan struct{})
	rt.node.EXPECT().SubscribeEvents(gomock.Any()).DoAndReturn(streamFrom(make(chan lightning.Event)))
	rt.node.EXPECT().LookupPayment(gomock.Any(), id).DoAndReturn(
		func(context.Context, lightning.PaymentID) (*lightning.PaymentStatus, error) {
			close(looked)

			return nil, lightning.NewError(lightning.ErrPaymentNotFound, "%s", id)
		})

	rt.reconciler.Start()
	defer rt.reconciler.Stop()

	select {
	case <-looked:
	case <-time.After(5 * time.Second):
		require.FailNow(t, "pending payment was not looked up")
	}

	_, pending := rt.registry.Status(id)
	require.True(t, pending)
}

func TestReconciler_ResubscribesAfterStreamEnds(t *testing.T) {
	rt := newReconcilerTest(t)
	events := make(chan lightning.Event)

	closed := make(chan lightning.Event)
	close(closed)

	gomock.InOrder(
		rt.node.EXPECT().SubscribeEvents(gomock.Any()).Return(nil, lightning.NewError(lightning.ErrNodeUnavailable, "dial")),
		rt.node.EXPECT().SubscribeEvents(gomock.Any()).Return((<-chan lightning.Event)(closed), nil),
		rt.node.EXPECT().SubscribeEvents(gomock.Any()).DoAndReturn(streamFrom(events)),
	)

	rt.reconciler.Start()
	defer rt.reconciler.Stop()

	// Failed subscription, then the stream that ended straight away.
	require.Equal(t, minBackoff, waitForTick(t, rt.ticks))
	rt.clock.SetTime(testStart.Add(minBackoff))
	require.Equal(t, minBackoff, waitForTick(t, rt.ticks))
	rt.clock.SetTime(testStart.Add(2 * minBackoff))

	events <- lightning.PaymentReceived{PaymentHash: lightning.TestPaymentHash, AmountMsat: 1000}
	require.Eventually(t, func() bool {
		record, ok := rt.index.Get(lightning.TestPaymentHash.String())

		return ok && record.PaidMsat() == 1000
	}, 5*time.Second, 10*time.Millisecond)
}

func TestReconciler_PrunesOnTick(t *testing.T) {
	rt := newReconcilerTest(t)
	rt.node.EXPECT().SubscribeEvents(gomock.Any()).DoAndReturn(streamFrom(make(chan lightning.Event)))

	rt.registry.Resolve(successOutcome("abc"))
	rt.index.Add(IncomingRecord{LookupID: "old", ExpiresAt: testStart})
	rt.clock.SetTime(testStart.Add(2 * time.Hour))

	rt.reconciler.Start()
	defer rt.reconciler.Stop()

	rt.prune.Force <- time.Now()

	require.Eventually(t, func() bool {
		outcome, _ := rt.registry.Status("abc")
		_, indexed := rt.index.Get("old")

		return outcome == nil && !indexed
	}, 5*time.Second, 10*time.Millisecond)
}
