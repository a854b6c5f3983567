package wallet

import (
	"context"
	"sync"
	"time"

	"purse/internal/models"
)

// MemoryLocker is a process-local Locker for single-instance deployments and
// tests. Claims expire after their ttl; a zero ttl never expires.
type MemoryLocker struct {
	mu     sync.Mutex
	claims map[string]time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{claims: make(map[string]time.Time)}
}

func (l *MemoryLocker) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if exp, ok := l.claims[key]; ok && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	l.claims[key] = exp
	return true, nil
}

func (l *MemoryLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.claims, key)
	l.mu.Unlock()
	return nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, models.LedgerEvent) error { return nil }
