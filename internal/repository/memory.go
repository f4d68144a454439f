package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryAttemptLimiter is the in-process counterpart of RedisAttemptLimiter.
type MemoryAttemptLimiter struct {
	mu      sync.Mutex
	entries map[int64]*attemptEntry
	now     func() time.Time
}

type attemptEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryAttemptLimiter() *MemoryAttemptLimiter {
	return &MemoryAttemptLimiter{
		entries: make(map[int64]*attemptEntry),
		now:     time.Now,
	}
}

func (r *MemoryAttemptLimiter) CheckRateLimit(_ context.Context, clientID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.entries[clientID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &attemptEntry{expiresAt: now.Add(window)}
		r.entries[clientID] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemoryAttemptLimiter) Reset(_ context.Context, clientID int64) error {
	r.mu.Lock()
	delete(r.entries, clientID)
	r.mu.Unlock()
	return nil
}

// Sweep drops expired counters and returns how many were removed.
func (r *MemoryAttemptLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
