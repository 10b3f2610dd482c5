package client

import (
	"context"
	"math/rand"
	"time"
)

// backoff implements exponential backoff with jitter for readiness polling.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
	}
}

// Sleep waits for the current backoff duration with ±20% jitter, or until
// ctx is cancelled, then doubles the duration up to the maximum.
func (b *backoff) Sleep(ctx context.Context) error {
	jitter := time.Duration(float64(b.current) * 0.2 * (rand.Float64()*2 - 1))

	t := time.NewTimer(b.current + jitter)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

// Reset returns the backoff to its initial duration.
func (b *backoff) Reset() {
	b.current = b.initial
}
