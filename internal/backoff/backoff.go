// Package backoff retries startup probes against external dependencies.
package backoff

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultPolicy is used for the PostgreSQL ping on startup.
var DefaultPolicy = RetryPolicy{
	MaxRetries:    5,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2,
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// Retry calls fn until it succeeds, the policy runs out or ctx is done.
// MaxRetries counts retries after the first call.
func Retry(ctx context.Context, policy RetryPolicy, logger *zerolog.Logger, name string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= policy.MaxRetries {
			return fmt.Errorf("%s: giving up after %d attempts: %w", name, attempt+1, err)
		}

		delay := policy.NextDelay(attempt + 1)
		if logger != nil {
			logger.Warn().Err(err).Str("target", name).Int("attempt", attempt+1).Dur("retry_in", delay).Msg("Probe failed")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
