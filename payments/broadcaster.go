package payments

import (
	"sync"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/40acres/cashu-lnd/metrics"
	log "github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// Broadcaster fans incoming payments out to every open stream. A subscriber
// that falls behind by more than subscriberBuffer payments misses the newest
// ones and has to poll instead.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan IncomingPayment
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan IncomingPayment),
	}
}

// Subscribe returns the payment feed and a function that closes it.
func (b *Broadcaster) Subscribe() (<-chan IncomingPayment, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan IncomingPayment, subscriberBuffer)
	b.subs[id] = ch
	metrics.IncomingSubscribers.Set(float64(len(b.subs)))

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		// Close may have ended the subscription already.
		if _, ok := b.subs[id]; !ok {
			return
		}
		delete(b.subs, id)
		close(ch)
		metrics.IncomingSubscribers.Set(float64(len(b.subs)))
	}

	return ch, cancel
}

func (b *Broadcaster) Publish(payment IncomingPayment) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- payment:
		default:
			log.WithFields(log.Fields{
				"subscriber": id,
				"lookup_id":  payment.LookupID,
			}).Warn("incoming payment subscriber is full, dropping notification")
		}
	}
}

// Close ends every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	metrics.IncomingSubscribers.Set(0)
}

// recordReceived stores a settlement in index and publishes it the first time
// it is seen, whether the event stream or a status lookup saw it first.
func recordReceived(index *Index, broadcaster *Broadcaster, event lightning.PaymentReceived) (IncomingPayment, bool) {
	payment, isNew := index.MarkPaid(event)
	if !isNew {
		return payment, false
	}

	metrics.PaymentsReceived.Inc()
	if broadcaster != nil {
		broadcaster.Publish(payment)
	}

	return payment, true
}
