package platform

import (
	"context"
	"time"
)

const (
	defaultEditDelay   = 800 * time.Millisecond
	defaultMaxAttempts = 3
	backoffStart       = time.Second
	backoffCap         = 8 * time.Second
)

// Mutator serializes writes to the platform: every successful mutation is
// followed by a fixed delay to avoid edge abuse protections, and transient
// failures are retried with capped exponential backoff.
type Mutator struct {
	delay    time.Duration
	attempts int
	sleep    func(context.Context, time.Duration) error
}

// NewMutator builds a mutator with the given post-write delay. A zero or
// negative delay selects the default.
func NewMutator(delay time.Duration) *Mutator {
	if delay <= 0 {
		delay = defaultEditDelay
	}
	return &Mutator{
		delay:    delay,
		attempts: defaultMaxAttempts,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn, retrying transient failures, then applies the post-write
// delay. Permission errors are returned immediately without retry.
func (m *Mutator) Do(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	backoff := backoffStart
	var err error
	for attempt := 0; attempt < m.attempts; attempt++ {
		err = fn()
		if err == nil {
			return m.sleep(ctx, m.delay)
		}
		if !IsTransient(err) {
			return err
		}
		if attempt < m.attempts-1 {
			if serr := m.sleep(ctx, backoff); serr != nil {
				return serr
			}
			backoff *= 2
			if backoff > backoffCap {
				backoff = backoffCap
			}
		}
	}
	return err
}
