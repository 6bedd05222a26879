package payments

import (
	"sync"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
)

type IncomingState int

const (
	IncomingUnpaid IncomingState = iota
	IncomingPaid
	// IncomingExpired requests can no longer be paid.
	IncomingExpired
)

func (s IncomingState) String() string {
	switch s {
	case IncomingUnpaid:
		return "unpaid"
	case IncomingPaid:
		return "paid"
	case IncomingExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IncomingPayment is one payment received against an issued request.
type IncomingPayment struct {
	LookupID    string
	PaymentHash lntypes.Hash
	AmountMsat  lnwire.MilliSatoshi
	ReceivedAt  time.Time
}

// IncomingRecord is an issued invoice or offer and what has been paid to it.
type IncomingRecord struct {
	// LookupID is the hex payment hash for invoices and the offer id for
	// offers.
	LookupID   string
	Kind       Kind
	Request    string
	AmountMsat *lnwire.MilliSatoshi
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Payments   []IncomingPayment
}

func (r *IncomingRecord) PaidMsat() lnwire.MilliSatoshi {
	var total lnwire.MilliSatoshi
	for _, p := range r.Payments {
		total += p.AmountMsat
	}

	return total
}

// State never reports an expired request as payable, a payment that arrived
// in time still counts.
func (r *IncomingRecord) State(now time.Time) IncomingState {
	switch {
	case len(r.Payments) > 0:
		return IncomingPaid
	case !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt):
		return IncomingExpired
	default:
		return IncomingUnpaid
	}
}

// Index keeps the requests issued by this process so paid status can be
// answered without a node round trip.
type Index struct {
	mu        sync.Mutex
	clock     clock.Clock
	retention time.Duration
	records   map[string]*IncomingRecord
}

func NewIndex(clk clock.Clock, retention time.Duration) *Index {
	if retention <= 0 {
		retention = DefaultRetention
	}

	return &Index{
		clock:     clk,
		retention: retention,
		records:   make(map[string]*IncomingRecord),
	}
}

func (i *Index) Add(record IncomingRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.records[record.LookupID] = &record
}

// MarkPaid records an incoming payment and reports whether it is new.
// Payments for requests issued before a restart are recorded too.
func (i *Index) MarkPaid(event lightning.PaymentReceived) (IncomingPayment, bool) {
	lookupID := event.OfferID
	if lookupID == "" {
		lookupID = event.PaymentHash.String()
	}

	payment := IncomingPayment{
		LookupID:    lookupID,
		PaymentHash: event.PaymentHash,
		AmountMsat:  event.AmountMsat,
		ReceivedAt:  event.SettledAt,
	}
	if payment.ReceivedAt.IsZero() {
		payment.ReceivedAt = i.clock.Now()
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	record, ok := i.records[lookupID]
	if !ok {
		kind := KindBolt11
		if event.OfferID != "" {
			kind = KindBolt12
		}
		record = &IncomingRecord{LookupID: lookupID, Kind: kind, CreatedAt: payment.ReceivedAt}
		i.records[lookupID] = record
	}

	for _, p := range record.Payments {
		if p.PaymentHash == payment.PaymentHash {
			return p, false
		}
	}
	record.Payments = append(record.Payments, payment)

	return payment, true
}

func (i *Index) Get(lookupID string) (IncomingRecord, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	record, ok := i.records[lookupID]
	if !ok {
		return IncomingRecord{}, false
	}

	copied := *record
	copied.Payments = append([]IncomingPayment(nil), record.Payments...)

	return copied, true
}

// Prune drops records whose expiry is older than the retention window.
func (i *Index) Prune() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.clock.Now().Add(-i.retention)
	pruned := 0
	for id, record := range i.records {
		last := record.ExpiresAt
		if n := len(record.Payments); n > 0 && record.Payments[n-1].ReceivedAt.After(last) {
			last = record.Payments[n-1].ReceivedAt
		}
		if last.Before(cutoff) {
			delete(i.records, id)
			pruned++
		}
	}

	return pruned
}
