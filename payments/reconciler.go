package payments

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/metrics"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultPruneInterval = time.Minute

	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// ChannelObserver receives channel state changes reported by the node.
type ChannelObserver interface {
	Observe(event lightning.ChannelStateChanged)
}

type ReconcilerConfig struct {
	Node        lightning.Node
	Registry    *Registry
	Index       *Index
	Broadcaster *Broadcaster
	Channels    ChannelObserver
	Clock       clock.Clock
	// PruneTicker drives retention pruning, DefaultPruneInterval if nil.
	PruneTicker ticker.Ticker
}

// Reconciler is the single consumer of the node's event stream. Events are
// applied in the order the node emits them.
type Reconciler struct {
	cfg    ReconcilerConfig
	logger *log.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	if cfg.PruneTicker == nil {
		cfg.PruneTicker = ticker.New(DefaultPruneInterval)
	}

	return &Reconciler{
		cfg:    cfg,
		logger: log.WithField("component", "reconciler"),
	}
}

func (r *Reconciler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.cfg.PruneTicker.Resume()

	r.wg.Add(2)
	go r.eventLoop(ctx)
	go r.pruneLoop(ctx)

	r.logger.Info("reconciler started")
}

func (r *Reconciler) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.cfg.PruneTicker.Stop()

	r.logger.Info("reconciler stopped")
}

func (r *Reconciler) eventLoop(ctx context.Context) {
	defer r.wg.Done()

	backoff := minBackoff
	first := true
	for {
		events, err := r.cfg.Node.SubscribeEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.WithError(err).WithField("retry_in", backoff).Warn("subscribing to node events failed")
			if !r.sleep(ctx, backoff) {
				return
			}
			backoff = min(2*backoff, maxBackoff)

			continue
		}

		if !first {
			metrics.EventStreamReconnects.Inc()
		}
		first = false
		backoff = minBackoff

		// Outcomes reported while we were not subscribed are only visible
		// through the node's payment history.
		r.resync(ctx, r.cfg.Registry.Pending())

		for event := range events {
			r.Apply(event)
		}

		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("node event stream ended, resubscribing")
		if !r.sleep(ctx, backoff) {
			return
		}
	}
}

func (r *Reconciler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-r.cfg.Clock.TickAfter(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// resync looks up ids on the node and applies what it knows. An abandoned id
// the node has never heard of is released so the payment can be retried.
func (r *Reconciler) resync(ctx context.Context, ids []lightning.PaymentID) {
	for _, id := range ids {
		status, err := r.cfg.Node.LookupPayment(ctx, id)
		if errors.Is(err, lightning.ErrPaymentNotFound) {
			if r.cfg.Registry.ReleaseAbandoned(id) {
				r.logger.WithField("payment_id", id).Info("released payment unknown to the node")
			}

			continue
		}
		if err != nil {
			r.logger.WithError(err).WithField("payment_id", id).Debug("pending payment not resolvable yet")

			continue
		}

		if event := status.Event(); event != nil {
			r.Apply(event)
		}
	}
}

func (r *Reconciler) pruneLoop(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-r.cfg.PruneTicker.Ticks():
			outcomes := r.cfg.Registry.Prune()
			records := r.cfg.Index.Prune()
			r.resync(ctx, r.cfg.Registry.Abandoned())
			if outcomes > 0 || records > 0 {
				r.logger.WithFields(log.Fields{
					"outcomes": outcomes,
					"records":  records,
				}).Debug("retention window pruned")
			}
		case <-ctx.Done():
			return
		}
	}
}

// Apply routes one node event to the state it affects.
func (r *Reconciler) Apply(event lightning.Event) {
	switch e := event.(type) {
	case lightning.PaymentReceived:
		payment, isNew := recordReceived(r.cfg.Index, r.cfg.Broadcaster, e)
		if !isNew {
			return
		}
		r.logger.WithFields(log.Fields{
			"lookup_id": payment.LookupID,
			"amount":    payment.AmountMsat,
		}).Info("payment received")
	case lightning.PaymentSucceeded, lightning.PaymentFailed:
		outcome, _ := outcomeFromEvent(event)
		r.cfg.Registry.Resolve(outcome)
	case lightning.ChannelStateChanged:
		if r.cfg.Channels != nil {
			r.cfg.Channels.Observe(e)
		}
	default:
		r.logger.WithField("event", event).Debug("ignoring unknown event")
	}
}
