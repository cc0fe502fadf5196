package stock

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// memRepo models the store-side atomic clamped decrement: the mutex stands
// in for row-level locking, so each decrement is a single atomic operation
// exactly like the SQL statement it mirrors.
type memRepo struct {
	mu       sync.Mutex
	qty      map[string]int
	failures []string

	decrementErr error
	recordErr    error
}

func newMemRepo(initial map[string]int) *memRepo {
	qty := make(map[string]int, len(initial))
	for k, v := range initial {
		qty[k] = v
	}
	return &memRepo{qty: qty}
}

func (m *memRepo) DecrementClamped(_ context.Context, productID string, qty int) (int, error) {
	if m.decrementErr != nil {
		return 0, m.decrementErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.qty[productID]
	if !ok {
		return 0, ErrProductUnknown
	}
	remaining := current - qty
	if remaining < 0 {
		remaining = 0
	}
	m.qty[productID] = remaining
	return remaining, nil
}

func (m *memRepo) Quantity(_ context.Context, productID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.qty[productID]
	if !ok {
		return 0, ErrProductUnknown
	}
	return q, nil
}

func (m *memRepo) Upsert(_ context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qty[productID] = qty
	return nil
}

func (m *memRepo) RecordFailedAdjustment(_ context.Context, productID string, _ int, _ string) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, productID)
	return nil
}

func TestDecrement_Clamps(t *testing.T) {
	repo := newMemRepo(map[string]int{"p1": 3})
	ledger := NewLedger(repo, zap.NewNop())

	remaining, err := ledger.Decrement(context.Background(), "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestDecrement_RejectsNonPositive(t *testing.T) {
	ledger := NewLedger(newMemRepo(nil), zap.NewNop())

	_, err := ledger.Decrement(context.Background(), "p1", 0)
	require.Error(t, err)
	_, err = ledger.Decrement(context.Background(), "p1", -2)
	require.Error(t, err)
}

func TestDecrement_UnknownProductRecordsFailure(t *testing.T) {
	repo := newMemRepo(nil)
	ledger := NewLedger(repo, zap.NewNop())

	_, err := ledger.Decrement(context.Background(), "ghost", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProductUnknown)
	assert.Equal(t, []string{"ghost"}, repo.failures)
}

func TestDecrement_FailureRecordErrorIsSwallowed(t *testing.T) {
	repo := newMemRepo(nil)
	repo.decrementErr = errors.New("db down")
	repo.recordErr = errors.New("db still down")
	ledger := NewLedger(repo, zap.NewNop())

	_, err := ledger.Decrement(context.Background(), "p1", 1)
	require.Error(t, err)
}

// Two concurrent orders of 2 against a quantity of 3 must end at 0, not -1,
// and neither decrement may be lost.
func TestDecrement_ConcurrentPairClampsAtZero(t *testing.T) {
	repo := newMemRepo(map[string]int{"p1": 3})
	ledger := NewLedger(repo, zap.NewNop())

	var g errgroup.Group
	for range 2 {
		g.Go(func() error {
			_, err := ledger.Decrement(context.Background(), "p1", 2)
			return err
		})
	}
	require.NoError(t, g.Wait())

	final, err := ledger.Quantity(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, final)
}

// Property: for any set of concurrent decrements, the final quantity equals
// max(0, initial - sum(requested)) regardless of interleaving. With the
// clamp, sums at or past zero all land exactly on zero; below the clamp the
// arithmetic must be exact (no lost updates).
func TestDecrement_ConcurrentProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 20; round++ {
		initial := rng.Intn(1000)
		n := 2 + rng.Intn(30)

		repo := newMemRepo(map[string]int{"p1": initial})
		ledger := NewLedger(repo, zap.NewNop())

		sum := 0
		amounts := make([]int, n)
		for i := range amounts {
			amounts[i] = 1 + rng.Intn(50)
			sum += amounts[i]
		}

		var g errgroup.Group
		for _, amount := range amounts {
			g.Go(func() error {
				_, err := ledger.Decrement(context.Background(), "p1", amount)
				return err
			})
		}
		require.NoError(t, g.Wait())

		final, err := ledger.Quantity(context.Background(), "p1")
		require.NoError(t, err)

		want := initial - sum
		if want < 0 {
			want = 0
		}
		if sum <= initial {
			// No clamping possible: the result must be exact.
			assert.Equal(t, want, final, "round %d: initial=%d sum=%d", round, initial, sum)
		} else {
			assert.Equal(t, 0, final, "round %d: initial=%d sum=%d", round, initial, sum)
		}
	}
}
