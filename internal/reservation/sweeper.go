package reservation

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/notifier"
	"github.com/expocenter/stand-reservation/internal/repository"
)

// Sweeper is the background loop that reclaims abandoned holds. A
// client that closes its browser never calls Release; its hold's
// deadline is the cancellation mechanism, and the sweeper enforces it
// independently of request traffic. The interval should sit well
// under the minimum hold TTL so a stale "held" never outlives its
// real availability for long.
type Sweeper struct {
	store    repository.ClaimStore
	events   notifier.Publisher
	interval time.Duration
	now      func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperClock overrides the time source, mirroring WithClock on
// the coordinator.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) { s.now = now }
}

// NewSweeper builds a Sweeper over the same store and publisher the
// coordinator uses.
func NewSweeper(store repository.ClaimStore, events notifier.Publisher, interval time.Duration, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store:    store,
		events:   events,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run sweeps on a fixed ticker until the context is cancelled. Sweep
// errors are logged and the loop keeps going; a missed cycle only
// delays reclamation by one interval.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	log.Printf("sweeper: running every %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("sweeper: stopped: %v", ctx.Err())
			return
		case <-t.C:
			if n, err := s.Sweep(ctx); err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("sweeper: reclaimed %d expired hold(s)", n)
			}
		}
	}
}

// Sweep reverts every expired hold to AVAILABLE with a version-guarded
// write and reports how many rows it reclaimed. A row whose version
// moved between the scan and the write was renewed, converted or
// released in the meantime; its conflict is logged and skipped — the
// sweep is redundant for that row this cycle.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.store.ListExpiredHeld(ctx, now)
	if err != nil {
		return 0, err
	}
	reclaimed := 0
	for _, cl := range expired {
		err := s.store.Update(ctx, cl.StandID, cl.Version, model.Claim{Status: model.StatusAvailable})
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			log.Printf("sweeper: stand %s moved on its own, skipping", cl.StandID)
			continue
		case err != nil:
			return reclaimed, err
		}
		reclaimed++
		s.events.Publish(notifier.Event{
			StandID:   cl.StandID,
			OldStatus: model.StatusHeld,
			NewStatus: model.StatusAvailable,
			Version:   cl.Version + 1,
		})
	}
	return reclaimed, nil
}
