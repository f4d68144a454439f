package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttemptLimiter(t *testing.T) {
	repo := NewMemoryAttemptLimiter()
	now := time.Date(2022, 7, 4, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("RateLimit", func(t *testing.T) {
		clientID := int64(456)
		allowed, err := repo.CheckRateLimit(ctx, clientID, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, clientID, 2, time.Minute)
		assert.True(t, allowed)
		allowed, _ = repo.CheckRateLimit(ctx, clientID, 2, time.Minute)
		assert.False(t, allowed)

		// other clients have their own counter
		allowed, _ = repo.CheckRateLimit(ctx, clientID+1, 2, time.Minute)
		assert.True(t, allowed)

		now = now.Add(time.Minute)
		allowed, _ = repo.CheckRateLimit(ctx, clientID, 2, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("Reset", func(t *testing.T) {
		clientID := int64(10)
		for i := 0; i < 3; i++ {
			_, _ = repo.CheckRateLimit(ctx, clientID, 1, time.Minute)
		}
		require.NoError(t, repo.Reset(ctx, clientID))

		allowed, _ := repo.CheckRateLimit(ctx, clientID, 1, time.Minute)
		assert.True(t, allowed)
	})

	t.Run("Sweep", func(t *testing.T) {
		now = now.Add(time.Hour)
		assert.Equal(t, 3, repo.Sweep())
		assert.Equal(t, 0, repo.Sweep())
	})
}
