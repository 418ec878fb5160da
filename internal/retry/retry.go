// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"time"
)

const (
	defaultBackoff    = 100 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// Policy bounds the retries of one operation.
type Policy struct {
	// MaxRetries is the number of calls after the first one.
	MaxRetries int
	// Backoff is the first delay; each failure doubles it up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
	// Notify, when set, is called before each wait.
	Notify func(attempt int, err error, wait time.Duration)
}

// Do calls fn until it succeeds, the retries are spent or ctx is done. It
// returns fn's last error, or ctx's error when cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	wait := p.Backoff
	if wait <= 0 {
		wait = defaultBackoff
	}
	limit := p.MaxBackoff
	if limit <= 0 {
		limit = defaultMaxBackoff
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil || attempt >= p.MaxRetries {
			return err
		}
		if p.Notify != nil {
			p.Notify(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if wait *= 2; wait > limit {
			wait = limit
		}
	}
}
