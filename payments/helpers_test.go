package payments

import (
	"testing"
	"time"

	"github.com/40acres/cashu-lnd/lightning"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// newTickingClock returns a test clock that reports every TickAfter call on
// the returned channel, so tests know when a goroutine started waiting.
func newTickingClock(start time.Time) (*clock.TestClock, chan time.Duration) {
	ticks := make(chan time.Duration, 16)

	return clock.NewTestClockWithTickSignal(start, ticks), ticks
}

func waitForTick(t *testing.T, ticks <-chan time.Duration) time.Duration {
	t.Helper()

	select {
	case d := <-ticks:
		return d
	case <-time.After(5 * time.Second):
		require.FailNow(t, "nothing started waiting on the clock")

		return 0
	}
}

func successOutcome(id lightning.PaymentID) Outcome {
	preimage := lightning.TestPreimage

	return Outcome{
		ID:          id,
		PaymentHash: preimage.Hash(),
		Preimage:    &preimage,
		AmountMsat:  5000,
		FeeMsat:     12,
		Success:     true,
	}
}

func failureOutcome(id lightning.PaymentID, reason string) Outcome {
	return Outcome{
		ID:            id,
		PaymentHash:   lntypes.Hash{0x01},
		FailureReason: reason,
	}
}
