package application

import (
	"context"
	"sync"
	"time"
)

type IdempotencyStore interface {
	TryReserve(ctx context.Context, key string) (bool, error)
}

// MemoryIdempotency reserves keys in process memory for a fixed TTL. It is
// the default when Redis is disabled and only dedupes within one process.
type MemoryIdempotency struct {
	ttl   time.Duration
	clock Clock

	mu        sync.Mutex
	seen      map[string]time.Time
	nextSweep time.Time
}

func NewMemoryIdempotency(ttl time.Duration, clock Clock) *MemoryIdempotency {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MemoryIdempotency{ttl: ttl, clock: clock, seen: map[string]time.Time{}}
}

func (m *MemoryIdempotency) TryReserve(_ context.Context, key string) (bool, error) {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	if !now.Before(m.nextSweep) {
		for k, exp := range m.seen {
			if !now.Before(exp) {
				delete(m.seen, k)
			}
		}
		m.nextSweep = now.Add(m.ttl)
	}
	if exp, ok := m.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.seen[key] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryIdempotency) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}
