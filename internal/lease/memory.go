// Package lease - in-process locker for standalone deployments and tests
package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryLocker implements Locker with the same token-owned semantics as the
// Redis locker, scoped to a single process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]memoryEntry
	opts Options
}

// NewMemoryLocker creates an in-process locker.
func NewMemoryLocker(opts Options) *MemoryLocker {
	return &MemoryLocker{
		held: make(map[string]memoryEntry),
		opts: opts,
	}
}

func (l *MemoryLocker) tryAcquire(key, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if entry, ok := l.held[key]; ok && entry.expires.After(now) {
		return false
	}
	l.held[key] = memoryEntry{token: token, expires: now.Add(l.opts.TTL)}
	return true
}

// Acquire mirrors the Redis locker: bounded attempts with jittered backoff,
// ErrBusy once the budget is spent.
func (l *MemoryLocker) Acquire(ctx context.Context, key string) (*Lease, error) {
	token := uuid.New().String()

	for attempt := 0; attempt < l.opts.Attempts; attempt++ {
		if l.tryAcquire(key, token) {
			return &Lease{Key: key, Token: token, Expires: time.Now().Add(l.opts.TTL)}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff(l.opts, attempt)):
		}
	}
	return nil, ErrBusy
}

// Release removes the entry only when the token still matches.
func (l *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.held[lease.Key]
	if !ok || entry.token != lease.Token {
		return ErrNotHeld
	}
	delete(l.held, lease.Key)
	return nil
}

var _ Locker = (*MemoryLocker)(nil)
