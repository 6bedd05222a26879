package payments

import (
	"fmt"
	"sync"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/metrics"
	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
)

type Kind string

const (
	KindBolt11 Kind = "bolt11"
	KindBolt12 Kind = "bolt12"
)

// DefaultRetention is how long terminal outcomes stay queryable.
const DefaultRetention = 24 * time.Hour

type pendingPayment struct {
	kind         Kind
	registeredAt time.Time
	// abandoned is set once nobody waits on done any more.
	abandoned bool
	// done has room for the single outcome so resolving never blocks, even
	// after the dispatcher stopped waiting.
	done chan Outcome
}

type retainedOutcome struct {
	outcome   Outcome
	expiresAt time.Time
}

// Waiter receives the outcome of one registered payment.
type Waiter struct {
	ID   lightning.PaymentID
	done <-chan Outcome
}

func (w *Waiter) Done() <-chan Outcome {
	return w.done
}

// Registry correlates dispatched payments with the outcomes the node reports.
// All state sits behind a single mutex; no other lock is taken while holding
// it.
type Registry struct {
	mu        sync.Mutex
	clock     clock.Clock
	retention time.Duration
	pending   map[lightning.PaymentID]*pendingPayment
	retained  map[lightning.PaymentID]retainedOutcome
	logger    *log.Entry
}

func NewRegistry(clk clock.Clock, retention time.Duration) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Registry{
		clock:     clk,
		retention: retention,
		pending:   make(map[lightning.PaymentID]*pendingPayment),
		retained:  make(map[lightning.PaymentID]retainedOutcome),
		logger:    log.WithField("component", "registry"),
	}
}

// Reserve registers id before the payment is submitted. A retained success is
// returned instead of a waiter, the caller must not pay again. A retained
// failure belongs to an earlier attempt and is dropped.
func (r *Registry) Reserve(id lightning.PaymentID, kind Kind) (*Waiter, *Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[id]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyPending, id)
	}

	if retained, ok := r.retained[id]; ok {
		if retained.outcome.Success {
			outcome := retained.outcome

			return nil, &outcome, nil
		}
		delete(r.retained, id)
	}

	return r.register(id, kind), nil, nil
}

// Track registers id after the node accepted the payment. An outcome that
// arrived in between is handed over right away.
func (r *Registry) Track(id lightning.PaymentID, kind Kind) (*Waiter, *Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[id]; ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrAlreadyPending, id)
	}

	if retained, ok := r.retained[id]; ok {
		outcome := retained.outcome

		return nil, &outcome, nil
	}

	return r.register(id, kind), nil, nil
}

func (r *Registry) register(id lightning.PaymentID, kind Kind) *Waiter {
	p := &pendingPayment{
		kind:         kind,
		registeredAt: r.clock.Now(),
		done:         make(chan Outcome, 1),
	}
	r.pending[id] = p
	r.updateGauges()

	return &Waiter{ID: id, done: p.done}
}

// Release forgets a reservation whose submission was rejected by the node.
func (r *Registry) Release(id lightning.PaymentID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.pending, id)
	r.updateGauges()
}

// Abandon records that the dispatcher stopped waiting for id. The payment
// stays registered so a late outcome is still recorded.
func (r *Registry) Abandon(id lightning.PaymentID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pending[id]; ok {
		p.abandoned = true
	}
}

// ReleaseAbandoned forgets id if nobody waits for it any more. It is used once
// the node confirmed it has no record of the payment.
func (r *Registry) ReleaseAbandoned(id lightning.PaymentID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[id]
	if !ok || !p.abandoned {
		return false
	}
	delete(r.pending, id)
	r.updateGauges()

	return true
}

// Abandoned lists the pending identifiers nobody waits for.
func (r *Registry) Abandoned() []lightning.PaymentID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []lightning.PaymentID
	for id, p := range r.pending {
		if p.abandoned {
			ids = append(ids, id)
		}
	}

	return ids
}

// Resolve applies a terminal outcome. It reports false when the identifier
// already had one; the new outcome is then discarded.
func (r *Registry) Resolve(outcome Outcome) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger := r.logger.WithField("payment_id", outcome.ID)

	if existing, ok := r.retained[outcome.ID]; ok {
		logger.WithFields(log.Fields{
			"kept":      existing.outcome.result(),
			"discarded": outcome.result(),
		}).Warn("duplicate terminal event discarded")
		metrics.DuplicateTerminalEvents.Inc()

		return false
	}

	r.retained[outcome.ID] = retainedOutcome{
		outcome:   outcome,
		expiresAt: r.clock.Now().Add(r.retention),
	}

	if p, ok := r.pending[outcome.ID]; ok {
		delete(r.pending, outcome.ID)
		p.done <- outcome
		logger.WithFields(log.Fields{
			"result":  outcome.result(),
			"elapsed": r.clock.Now().Sub(p.registeredAt),
		}).Info("payment resolved")
	} else {
		logger.WithField("result", outcome.result()).Info("outcome retained for unregistered payment")
	}

	r.updateGauges()

	return true
}

// Status reports what the registry knows about id: a terminal outcome, a
// payment still waiting for one, or nothing.
func (r *Registry) Status(id lightning.PaymentID) (outcome *Outcome, pending bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retained, ok := r.retained[id]; ok {
		o := retained.outcome

		return &o, false
	}

	_, pending = r.pending[id]

	return nil, pending
}

// Pending lists the identifiers still waiting for an outcome.
func (r *Registry) Pending() []lightning.PaymentID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]lightning.PaymentID, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}

	return ids
}

// Prune drops outcomes older than the retention window.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	pruned := 0
	for id, retained := range r.retained {
		if !now.Before(retained.expiresAt) {
			delete(r.retained, id)
			pruned++
		}
	}
	if pruned > 0 {
		r.logger.WithField("pruned", pruned).Debug("expired outcomes pruned")
	}
	r.updateGauges()

	return pruned
}

// updateGauges must be called with mu held.
func (r *Registry) updateGauges() {
	metrics.PendingPayments.Set(float64(len(r.pending)))
	metrics.RetainedOutcomes.Set(float64(len(r.retained)))
}
