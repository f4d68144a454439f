package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"zapis/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverAttemptLimiter uses primary until it errors, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverAttemptLimiter struct {
	primary  domain.AttemptLimiter
	fallback domain.AttemptLimiter
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverAttemptLimiter(primary, fallback domain.AttemptLimiter, logger *zerolog.Logger) *FailoverAttemptLimiter {
	return &FailoverAttemptLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Degraded reports whether calls currently go to the fallback.
func (r *FailoverAttemptLimiter) Degraded() bool {
	return r.isDown.Load()
}

func (r *FailoverAttemptLimiter) CheckRateLimit(ctx context.Context, clientID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.recoveryDue() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientID, limit, window)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary attempt limiter recovered")
			}
			return allowed, nil
		}
		if !r.isDown.Swap(true) {
			r.logger.Error().Err(err).Msg("Primary attempt limiter failed, falling back to memory")
		}
		r.markChecked()
	}

	return r.fallback.CheckRateLimit(ctx, clientID, limit, window)
}

func (r *FailoverAttemptLimiter) recoveryDue() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastCheck) > recoveryInterval
}

func (r *FailoverAttemptLimiter) markChecked() {
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}
