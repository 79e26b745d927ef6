package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/repository"
)

func TestMemoryClaimStoreProvision(t *testing.T) {
	s := repository.NewMemoryClaimStore()
	require.NoError(t, s.Provision("A-1"))
	assert.ErrorIs(t, s.Provision("A-1"), repository.ErrDuplicateStand)

	cl, err := s.Get(context.Background(), "A-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusAvailable, cl.Status)
	assert.Equal(t, uint64(1), cl.Version)
	assert.Nil(t, cl.ExpiresAt)

	_, err = s.Get(context.Background(), "B-1")
	assert.ErrorIs(t, err, repository.ErrStandNotFound)
}

func TestMemoryClaimStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("guarded update increments the version by one", func(t *testing.T) {
		s := repository.NewMemoryClaimStore()
		require.NoError(t, s.Provision("A-1"))

		now := time.Now().UTC()
		exp := now.Add(10 * time.Minute)
		err := s.Update(ctx, "A-1", 1, model.Claim{
			Status:      model.StatusHeld,
			HolderToken: "tok",
			AcquiredAt:  &now,
			ExpiresAt:   &exp,
		})
		require.NoError(t, err)

		cl, err := s.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), cl.Version)
		assert.Equal(t, model.StatusHeld, cl.Status)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		s := repository.NewMemoryClaimStore()
		require.NoError(t, s.Provision("A-1"))
		require.NoError(t, s.Update(ctx, "A-1", 1, model.Claim{Status: model.StatusHeld, HolderToken: "tok"}))

		err := s.Update(ctx, "A-1", 1, model.Claim{Status: model.StatusHeld, HolderToken: "other"})
		assert.ErrorIs(t, err, repository.ErrVersionConflict)

		cl, err := s.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, "tok", cl.HolderToken, "the loser must not clobber the winner")
	})

	t.Run("unknown stand", func(t *testing.T) {
		s := repository.NewMemoryClaimStore()
		err := s.Update(ctx, "Z-9", 1, model.Claim{Status: model.StatusHeld})
		assert.ErrorIs(t, err, repository.ErrStandNotFound)
	})

	t.Run("exactly one of many concurrent writers wins a version", func(t *testing.T) {
		s := repository.NewMemoryClaimStore()
		require.NoError(t, s.Provision("A-1"))

		const writers = 50
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- s.Update(ctx, "A-1", 1, model.Claim{Status: model.StatusHeld, HolderToken: "tok"})
			}()
		}
		wg.Wait()
		close(results)

		won := 0
		for err := range results {
			if err == nil {
				won++
			} else {
				assert.ErrorIs(t, err, repository.ErrVersionConflict)
			}
		}
		assert.Equal(t, 1, won)

		cl, err := s.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), cl.Version)
	})

	t.Run("returned claims are copies", func(t *testing.T) {
		s := repository.NewMemoryClaimStore()
		require.NoError(t, s.Provision("A-1"))
		exp := time.Now().UTC().Add(time.Minute)
		require.NoError(t, s.Update(ctx, "A-1", 1, model.Claim{Status: model.StatusHeld, HolderToken: "tok", ExpiresAt: &exp}))

		cl, err := s.Get(ctx, "A-1")
		require.NoError(t, err)
		*cl.ExpiresAt = cl.ExpiresAt.Add(time.Hour) // mutate the copy

		again, err := s.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, exp, *again.ExpiresAt)
	})
}

func TestMemoryClaimStoreQueries(t *testing.T) {
	ctx := context.Background()
	s := repository.NewMemoryClaimStore()
	for _, id := range []string{"A-1", "A-2", "B-1"} {
		require.NoError(t, s.Provision(id))
	}
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(10 * time.Minute)

	require.NoError(t, s.Update(ctx, "A-1", 1, model.Claim{Status: model.StatusHeld, HolderToken: "tok", AcquiredAt: &past, ExpiresAt: &past}))
	require.NoError(t, s.Update(ctx, "A-2", 1, model.Claim{Status: model.StatusHeld, HolderToken: "tok", AcquiredAt: &now, ExpiresAt: &future}))
	require.NoError(t, s.Update(ctx, "B-1", 1, model.Claim{Status: model.StatusPendingApproval, HolderToken: "other"}))

	t.Run("list is ordered by stand id", func(t *testing.T) {
		all, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"A-1", "A-2", "B-1"},
			[]string{all[0].StandID, all[1].StandID, all[2].StandID})
	})

	t.Run("find by holder includes expired holds", func(t *testing.T) {
		mine, err := s.FindByHolder(ctx, "tok")
		require.NoError(t, err)
		require.Len(t, mine, 2)
	})

	t.Run("expired scan returns only overdue holds", func(t *testing.T) {
		overdue, err := s.ListExpiredHeld(ctx, now)
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, "A-1", overdue[0].StandID)
	})
}
