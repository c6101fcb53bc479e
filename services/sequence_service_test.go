package services

import (
	"context"
	"sync"
	"testing"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/store"
	"github.com/stretchr/testify/require"
)

func TestSequenceAllocator(t *testing.T) {
	ctx := context.Background()

	t.Run("first allocation creates the counter and returns 1", func(t *testing.T) {
		counters := repositories.NewCounterRepository(store.NewMemoryStore())
		allocator := NewSequenceAllocator(counters)

		n, err := allocator.Allocate(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		counter, err := counters.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, counter.Value)
		require.Equal(t, models.HackerNumberCounterID, counter.ID)
	})

	t.Run("sequential allocations strictly increase", func(t *testing.T) {
		allocator := NewSequenceAllocator(repositories.NewCounterRepository(store.NewMemoryStore()))

		for want := 1; want <= 5; want++ {
			n, err := allocator.Allocate(ctx)
			require.NoError(t, err)
			require.Equal(t, want, n)
		}
	})

	t.Run("concurrent allocations are unique and contiguous", func(t *testing.T) {
		allocator := NewSequenceAllocator(repositories.NewCounterRepository(store.NewMemoryStore()))

		const n = 10
		results := make(chan int, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := allocator.Allocate(ctx)
				require.NoError(t, err)
				results <- v
			}()
		}
		wg.Wait()
		close(results)

		seen := make(map[int]bool, n)
		for v := range results {
			require.False(t, seen[v], "number %d allocated twice", v)
			seen[v] = true
		}
		for want := 1; want <= n; want++ {
			require.True(t, seen[want], "number %d missing from allocation set", want)
		}
	})

	t.Run("losing the creation race retries and returns 2", func(t *testing.T) {
		counters := &racingCounterRepo{inner: repositories.NewCounterRepository(store.NewMemoryStore())}
		allocator := NewSequenceAllocator(counters)

		n, err := allocator.Allocate(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)
	})

	t.Run("contention beyond the bound surfaces ErrAllocationExhausted", func(t *testing.T) {
		allocator := NewSequenceAllocator(&contendedCounterRepo{})

		_, err := allocator.Allocate(ctx)
		require.ErrorIs(t, err, ErrAllocationExhausted)
	})
}

// racingCounterRepo simulates losing the lazy-creation race: the first Get
// sees no counter, but by the time Create runs another caller has created it
// with value 1.
type racingCounterRepo struct {
	inner   repositories.CounterRepository
	tripped bool
}

func (r *racingCounterRepo) Get(ctx context.Context) (*models.Counter, error) {
	return r.inner.Get(ctx)
}

func (r *racingCounterRepo) Create(ctx context.Context, value int) (*models.Counter, error) {
	if !r.tripped {
		r.tripped = true
		if _, err := r.inner.Create(ctx, 1); err != nil {
			return nil, err
		}
		return nil, store.ErrAlreadyExists
	}
	return r.inner.Create(ctx, value)
}

func (r *racingCounterRepo) Replace(ctx context.Context, counter *models.Counter) (*models.Counter, error) {
	return r.inner.Replace(ctx, counter)
}

// contendedCounterRepo loses every conditional write.
type contendedCounterRepo struct{}

func (r *contendedCounterRepo) Get(ctx context.Context) (*models.Counter, error) {
	return &models.Counter{ID: models.HackerNumberCounterID, Value: 7, Version: "v1"}, nil
}

func (r *contendedCounterRepo) Create(ctx context.Context, value int) (*models.Counter, error) {
	return nil, store.ErrAlreadyExists
}

func (r *contendedCounterRepo) Replace(ctx context.Context, counter *models.Counter) (*models.Counter, error) {
	return nil, store.ErrVersionConflict
}
