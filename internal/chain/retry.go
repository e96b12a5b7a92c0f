package chain

import (
	"context"
	"time"
)

const defaultBackoff = 100 * time.Millisecond

// Backoff retries a call with exponentially growing delays.
type Backoff struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// Do runs fn until it succeeds, the retries are spent or ctx is done. The
// last error from fn is returned.
func (b Backoff) Do(ctx context.Context, fn func(context.Context) error) error {
	retries := b.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := b.BaseDelay
	if delay <= 0 {
		delay = defaultBackoff
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= retries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
