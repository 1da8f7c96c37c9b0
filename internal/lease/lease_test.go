package lease

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions() Options {
	return Options{
		TTL:       200 * time.Millisecond,
		Attempts:  3,
		RetryBase: 2 * time.Millisecond,
		RetryCap:  10 * time.Millisecond,
	}
}

func TestAcquireRelease(t *testing.T) {
	l := NewMemoryLocker(fastOptions())
	ctx := context.Background()

	lease, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)
	require.NotEmpty(t, lease.Token)

	require.NoError(t, l.Release(ctx, lease))

	// Released key is immediately acquirable again.
	again, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, again))
}

func TestHeldLeaseBlocksSecondHolder(t *testing.T) {
	l := NewMemoryLocker(fastOptions())
	ctx := context.Background()

	lease, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)
	defer l.Release(ctx, lease)

	_, err = l.Acquire(ctx, Key("u1", "g1"))
	assert.ErrorIs(t, err, ErrBusy)

	// A different pair is unaffected.
	other, err := l.Acquire(ctx, Key("u2", "g1"))
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, other))
}

func TestStaleTokenCannotReleaseNewerLease(t *testing.T) {
	opts := fastOptions()
	opts.TTL = 20 * time.Millisecond
	l := NewMemoryLocker(opts)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)

	// Let the first lease expire, then have a second holder acquire.
	time.Sleep(30 * time.Millisecond)
	fresh, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)

	// The stale holder's release must not free the new holder's lease.
	assert.ErrorIs(t, l.Release(ctx, stale), ErrNotHeld)

	_, err = l.Acquire(ctx, Key("u1", "g1"))
	assert.ErrorIs(t, err, ErrBusy, "fresh lease should still be held")

	require.NoError(t, l.Release(ctx, fresh))
}

func TestExpiryReleasesCrashedHolder(t *testing.T) {
	opts := fastOptions()
	opts.TTL = 15 * time.Millisecond
	l := NewMemoryLocker(opts)
	ctx := context.Background()

	_, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)

	// Simulate a crash: never release. Expiry must unblock the pair.
	time.Sleep(25 * time.Millisecond)
	lease, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)
	require.NoError(t, l.Release(ctx, lease))
}

func TestAcquireHonorsContext(t *testing.T) {
	l := NewMemoryLocker(Options{
		TTL:       time.Second,
		Attempts:  50,
		RetryBase: 20 * time.Millisecond,
		RetryCap:  20 * time.Millisecond,
	})
	ctx := context.Background()

	held, err := l.Acquire(ctx, Key("u1", "g1"))
	require.NoError(t, err)
	defer l.Release(ctx, held)

	timed, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(timed, Key("u1", "g1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentAcquireIsExclusive(t *testing.T) {
	l := NewMemoryLocker(Options{
		TTL:       time.Second,
		Attempts:  1,
		RetryBase: time.Millisecond,
		RetryCap:  time.Millisecond,
	})
	ctx := context.Background()

	const goroutines = 32
	var acquired int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(ctx, Key("u1", "g1")); err == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired, "exactly one goroutine may hold the lease")
}
