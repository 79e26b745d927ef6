package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/reservation"
)

func newSweeper(f *fixture) *reservation.Sweeper {
	return reservation.NewSweeper(f.store, f.pub, time.Minute,
		reservation.WithSweeperClock(f.clock))
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	t.Run("expired holds revert to available", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coord.Acquire(ctx, "A-1", "tok-x", 10*time.Minute)
		require.NoError(t, err)
		_, err = f.coord.Acquire(ctx, "A-2", "tok-y", 20*time.Minute)
		require.NoError(t, err)

		f.advance(15 * time.Minute)
		n, err := newSweeper(f).Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "only the 10-minute hold has expired")

		one, err := f.store.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusAvailable, one.Status)
		assert.Empty(t, one.HolderToken)
		assert.Equal(t, uint64(3), one.Version)

		two, err := f.store.Get(ctx, "A-2")
		require.NoError(t, err)
		assert.Equal(t, model.StatusHeld, two.Status)
	})

	t.Run("sweep publishes the reclaim transition", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coord.Acquire(ctx, "A-1", "tok-x", 10*time.Minute)
		require.NoError(t, err)

		f.advance(11 * time.Minute)
		_, err = newSweeper(f).Sweep(ctx)
		require.NoError(t, err)

		evs := f.pub.all()
		require.Len(t, evs, 2)
		last := evs[1]
		assert.Equal(t, "A-1", last.StandID)
		assert.Equal(t, model.StatusHeld, last.OldStatus)
		assert.Equal(t, model.StatusAvailable, last.NewStatus)
		assert.Equal(t, uint64(3), last.Version)
	})

	t.Run("sweep is idempotent", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coord.Acquire(ctx, "A-1", "tok-x", 10*time.Minute)
		require.NoError(t, err)

		f.advance(11 * time.Minute)
		sw := newSweeper(f)
		n, err := sw.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = sw.Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, n, "an already-reclaimed row is not eligible again")
	})

	t.Run("converted applications are never swept", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coord.Acquire(ctx, "A-1", "tok-x", 10*time.Minute)
		require.NoError(t, err)
		_, err = f.coord.ConvertToApplication(ctx, "A-1", "tok-x", "")
		require.NoError(t, err)

		f.advance(24 * time.Hour)
		n, err := newSweeper(f).Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		cl, err := f.store.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPendingApproval, cl.Status)
	})

	t.Run("a hold renewed after the scan survives the sweep", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.coord.Acquire(ctx, "A-1", "tok-x", 10*time.Minute)
		require.NoError(t, err)
		f.advance(11 * time.Minute)

		// The holder re-acquires between the sweeper's scan and its
		// conditional write; the version guard must protect the new
		// hold. Simulated by re-acquiring first and sweeping after:
		// the expired row the sweeper would have seen is gone.
		_, err = f.coord.Acquire(ctx, "A-1", "tok-x", 10*time.Minute)
		require.NoError(t, err)

		n, err := newSweeper(f).Sweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		cl, err := f.store.Get(ctx, "A-1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusHeld, cl.Status)
		assert.Equal(t, "tok-x", cl.HolderToken)
	})
}

func TestSweeperRun(t *testing.T) {
	// Run must stop promptly when the context is cancelled.
	f := newFixture(t)
	sw := reservation.NewSweeper(f.store, f.pub, 5*time.Millisecond,
		reservation.WithSweeperClock(f.clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sw.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
