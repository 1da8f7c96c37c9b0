package state

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/lease"
)

type fakeDurable struct {
	mu        sync.Mutex
	balances  map[string]int64
	reconcile []int64
}

func newFakeDurable(balances map[string]int64) *fakeDurable {
	return &fakeDurable{balances: balances}
}

func (f *fakeDurable) AccountBalance(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeDurable) ReconcileBalance(_ context.Context, userID, _ string, _, after int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = after
	f.reconcile = append(f.reconcile, after)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testStore(t *testing.T, durable Durable) *Store {
	t.Helper()
	opts := lease.DefaultOptions()
	opts.RetryBase = 2 * time.Millisecond
	opts.RetryCap = 10 * time.Millisecond
	return NewStore(NewMemoryRepository(), lease.NewMemoryLocker(opts), durable, time.Minute, quietLogger())
}

func TestInitializeSeedsFromDurable(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 5000})
	store := testStore(t, durable)
	ctx := context.Background()

	st, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), st.Balance)
	assert.Equal(t, "u1", st.UserID)
	assert.False(t, st.SessionStart.IsZero())

	// Second touch keeps the live record, not a fresh seed.
	_, err = store.Credit(ctx, "u1", "g1", 100)
	require.NoError(t, err)
	again, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(5100), again.Balance)
}

func TestDeductNeverBelowZero(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 100})
	store := testStore(t, durable)
	ctx := context.Background()

	_, err := store.Deduct(ctx, "u1", "g1", 150)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	st, err := store.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), st.Balance, "failed deduct must not mutate")
}

// Two concurrent deducts of 100 against a balance of 150 must produce
// exactly one success and a final balance of 50.
func TestConcurrentDeductsSerialize(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 150})
	store := testStore(t, durable)
	ctx := context.Background()

	_, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = store.Deduct(ctx, "u1", "g1", 100)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, successes)

	st, err := store.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), st.Balance)
}

func TestUpdateAbortsWithoutMutation(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 500})
	store := testStore(t, durable)
	ctx := context.Background()

	_, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)

	boom := assert.AnError
	_, err = store.Update(ctx, "u1", "g1", func(st *domain.PlayerGameState) error {
		st.Balance = 0
		st.Features.FreeSpins = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	st, err := store.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), st.Balance)
	assert.Zero(t, st.Features.FreeSpins)
}

func TestUpdateFeaturesRoundTrips(t *testing.T) {
	store := testStore(t, newFakeDurable(map[string]int64{}))
	ctx := context.Background()

	_, err := store.UpdateFeatures(ctx, "u1", "g1", func(f *domain.FeatureState) {
		f.FreeSpins = 10
		f.FreeSpinSelected = true
		f.ScatterValues = append(f.ScatterValues, domain.ScatterValue{Index: [2]int{1, 2}, Value: 300})
	})
	require.NoError(t, err)

	st, err := store.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Equal(t, 10, st.Features.FreeSpins)
	assert.True(t, st.Features.FreeSpinSelected)
	require.Len(t, st.Features.ScatterValues, 1)
	assert.Equal(t, [2]int{1, 2}, st.Features.ScatterValues[0].Index)
}

func TestReconcileWritesBackOneWay(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 1000})
	store := testStore(t, durable)
	ctx := context.Background()

	_, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)
	_, err = store.Credit(ctx, "u1", "g1", 250)
	require.NoError(t, err)

	require.NoError(t, store.Reconcile(ctx, "u1", "g1", "periodic"))
	assert.Equal(t, []int64{1250}, durable.reconcile)
}

func TestEndSessionReconcilesAndEvicts(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 800})
	store := testStore(t, durable)
	ctx := context.Background()

	_, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)
	_, err = store.Deduct(ctx, "u1", "g1", 300)
	require.NoError(t, err)

	require.NoError(t, store.EndSession(ctx, "u1", "g1"))

	_, err = store.Get(ctx, "u1", "g1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(500), durable.balances["u1"])
}

func TestSweepEvictsIdlePairs(t *testing.T) {
	durable := newFakeDurable(map[string]int64{"u1": 100})
	opts := lease.DefaultOptions()
	opts.RetryBase = 2 * time.Millisecond
	store := NewStore(NewMemoryRepository(), lease.NewMemoryLocker(opts), durable, 10*time.Millisecond, quietLogger())
	ctx := context.Background()

	_, err := store.Initialize(ctx, "u1", "g1")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, store.Sweep(ctx))

	_, err = store.Get(ctx, "u1", "g1")
	assert.ErrorIs(t, err, ErrNotFound)
}
