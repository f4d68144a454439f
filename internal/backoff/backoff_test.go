package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	d1 := policy.NextDelay(1)
	d2 := policy.NextDelay(2)
	d3 := policy.NextDelay(5)

	if d1 != time.Second {
		t.Fatalf("attempt1 expected 1s, got %s", d1)
	}
	if d2 != 2*time.Second {
		t.Fatalf("attempt2 expected 2s, got %s", d2)
	}
	if d3 != 5*time.Second {
		t.Fatalf("attempt5 expected capped 5s, got %s", d3)
	}

	if d := (RetryPolicy{}).NextDelay(0); d != time.Second {
		t.Fatalf("zero policy expected 1s, got %s", d)
	}
}

func TestRetry(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffFactor: 1}

	t.Run("eventually succeeds", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, nil, "db", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Fatalf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		probe := errors.New("refused")
		calls := 0
		err := Retry(context.Background(), policy, nil, "redis", func(context.Context) error {
			calls++
			return probe
		})
		if !errors.Is(err, probe) {
			t.Fatalf("expected wrapped probe error, got %v", err)
		}
		if calls != 4 {
			t.Fatalf("expected 4 calls, got %d", calls)
		}
	})

	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := Retry(ctx, RetryPolicy{MaxRetries: 10, InitialDelay: time.Hour}, nil, "db", func(context.Context) error {
			return errors.New("down")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}
