// Package reservation implements the stand reservation coordinator:
// the state machine that turns concurrent, unaffiliated browser
// sessions into race-free exclusive claims on exhibition stands.
//
// Every operation follows the same shape: read the current claim,
// validate preconditions, attempt a conditional (version-guarded)
// write on the claim store, and publish the accepted transition. The
// store's compare-and-swap is the only synchronization point; whoever
// lands first wins and the loser observes the winner's state on
// re-read. No queueing or fairness is provided — contention windows
// are human-scale.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/expocenter/stand-reservation/internal/model"
	"github.com/expocenter/stand-reservation/internal/notifier"
	"github.com/expocenter/stand-reservation/internal/repository"
)

// Coordinator exposes the claim transitions. It is safe for use from
// any number of goroutines; all mutable state lives in the store.
type Coordinator struct {
	store      repository.ClaimStore
	events     notifier.Publisher
	defaultTTL time.Duration
	maxTTL     time.Duration
	now        func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the time source. Tests use this to cross hold
// deadlines without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator builds a Coordinator. defaultTTL applies when Acquire
// or Touch is called without an explicit TTL; maxTTL caps any
// caller-supplied value.
func NewCoordinator(store repository.ClaimStore, events notifier.Publisher, defaultTTL, maxTTL time.Duration, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      store,
		events:     events,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// clampTTL normalizes a caller-supplied TTL to [defaultTTL when unset, maxTTL].
func (c *Coordinator) clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return c.defaultTTL
	}
	if ttl > c.maxTTL {
		return c.maxTTL
	}
	return ttl
}

// get loads the claim, mapping the store's not-found to the
// coordinator's error kind.
func (c *Coordinator) get(ctx context.Context, standID string) (*model.Claim, error) {
	cl, err := c.store.Get(ctx, standID)
	if errors.Is(err, repository.ErrStandNotFound) {
		return nil, ErrNotFound
	}
	return cl, err
}

// apply performs the conditional write and, on success, publishes the
// transition. The published version is the one the store just
// assigned: expected+1.
func (c *Coordinator) apply(ctx context.Context, cur *model.Claim, next model.Claim) (*model.Claim, error) {
	err := c.store.Update(ctx, cur.StandID, cur.Version, next)
	if errors.Is(err, repository.ErrVersionConflict) {
		return nil, ErrConflict
	}
	if errors.Is(err, repository.ErrStandNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	next.StandID = cur.StandID
	next.Version = cur.Version + 1
	c.events.Publish(notifier.Event{
		StandID:   next.StandID,
		OldStatus: cur.Status,
		NewStatus: next.Status,
		Version:   next.Version,
	})
	return &next, nil
}

// Acquire takes an exclusive, time-limited hold on a stand for the
// given holder token. Stands that are AVAILABLE or logically expired
// (HELD past the deadline) can be acquired. A compare-and-swap loss is
// retried once; a second loss is reported as ErrAlreadyClaimed since
// the re-read will show the winner's claim.
//
// A token may have at most one live hold or pending application at a
// time. Re-acquiring the stand the token already holds extends the
// hold instead of failing.
func (c *Coordinator) Acquire(ctx context.Context, standID, holderToken string, ttl time.Duration) (*model.Claim, error) {
	cl, err := c.acquireOnce(ctx, standID, holderToken, ttl)
	if errors.Is(err, ErrConflict) {
		cl, err = c.acquireOnce(ctx, standID, holderToken, ttl)
		if errors.Is(err, ErrConflict) {
			err = ErrAlreadyClaimed
		}
	}
	return cl, err
}

func (c *Coordinator) acquireOnce(ctx context.Context, standID, holderToken string, ttl time.Duration) (*model.Claim, error) {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return nil, err
	}
	now := c.now()
	ttl = c.clampTTL(ttl)

	// Same token, live hold on the same stand: extend rather than fail.
	if cur.Status == model.StatusHeld && cur.HolderToken == holderToken && !cur.ExpiredAt(now) {
		return c.extend(ctx, cur, now, ttl)
	}

	if cur.EffectiveStatus(now) != model.StatusAvailable {
		return nil, ErrAlreadyClaimed
	}

	// One live claim per token across all stands.
	owned, err := c.store.FindByHolder(ctx, holderToken)
	if err != nil {
		return nil, err
	}
	for _, o := range owned {
		if o.StandID != standID && !o.ExpiredAt(now) {
			return nil, ErrHoldLimit
		}
	}

	exp := now.Add(ttl)
	cl, err := c.apply(ctx, cur, model.Claim{
		Status:      model.StatusHeld,
		HolderToken: holderToken,
		AcquiredAt:  &now,
		ExpiresAt:   &exp,
	})
	if err != nil {
		return nil, err
	}
	return c.enforceClaimLimit(ctx, cl, now)
}

// enforceClaimLimit re-validates the one-claim-per-token rule after
// the hold has committed. The pre-acquire scan and the conditional
// write guard different rows, so two simultaneous acquires by one
// token on two different stands can both pass the scan and both
// commit. Whichever acquire observes the double resolves it toward
// the lexically smallest stand id: a larger-id hold of our own is
// rolled back and reported as ErrHoldLimit, a larger-id hold on the
// other stand is released with the same guarded update the rollback
// uses. Both sides apply the same rule, so exactly one live claim
// survives no matter which of them sees the other.
func (c *Coordinator) enforceClaimLimit(ctx context.Context, cl *model.Claim, now time.Time) (*model.Claim, error) {
	owned, err := c.store.FindByHolder(ctx, cl.HolderToken)
	if err != nil {
		_, _ = c.apply(ctx, cl, model.Claim{Status: model.StatusAvailable})
		return nil, err
	}
	for i := range owned {
		o := owned[i]
		if o.StandID == cl.StandID || o.ExpiredAt(now) {
			continue
		}
		// A pending application always outranks a fresh hold.
		if o.Status == model.StatusPendingApproval || o.StandID < cl.StandID {
			_, _ = c.apply(ctx, cl, model.Claim{Status: model.StatusAvailable})
			return nil, ErrHoldLimit
		}
		// A version conflict here means the other side already rolled
		// its hold back; either way the double is gone.
		_, _ = c.apply(ctx, &o, model.Claim{Status: model.StatusAvailable})
	}
	return cl, nil
}

// extend pushes a live hold's deadline to now+ttl, keeping acquired_at.
func (c *Coordinator) extend(ctx context.Context, cur *model.Claim, now time.Time, ttl time.Duration) (*model.Claim, error) {
	exp := now.Add(ttl)
	return c.apply(ctx, cur, model.Claim{
		Status:      model.StatusHeld,
		HolderToken: cur.HolderToken,
		AcquiredAt:  cur.AcquiredAt,
		ExpiresAt:   &exp,
		Note:        cur.Note,
	})
}

// Release returns a held stand to AVAILABLE. Releasing a stand that is
// already available — including one whose hold logically expired under
// a different token — succeeds silently, so clients can release on
// page exit without tracking state. ErrNotHolder reports a token
// mismatch on a live hold; claims past the hold stage are rejected
// with ErrInvalidState.
func (c *Coordinator) Release(ctx context.Context, standID, holderToken string) error {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return err
	}
	now := c.now()
	switch cur.Status {
	case model.StatusAvailable:
		return nil
	case model.StatusHeld:
		if cur.ExpiredAt(now) && cur.HolderToken != holderToken {
			// Logically available already; the sweeper will catch it.
			return nil
		}
		if cur.HolderToken != holderToken {
			return ErrNotHolder
		}
		_, err = c.apply(ctx, cur, model.Claim{Status: model.StatusAvailable})
		return err
	default:
		return ErrInvalidState
	}
}

// Touch extends a live hold's deadline. Only the current holder may
// touch, and only before expiry; an expired hold must be re-acquired.
func (c *Coordinator) Touch(ctx context.Context, standID, holderToken string, ttl time.Duration) (*model.Claim, error) {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return nil, err
	}
	if cur.Status != model.StatusHeld || cur.HolderToken != holderToken {
		return nil, ErrNotHolder
	}
	now := c.now()
	if cur.ExpiredAt(now) {
		return nil, ErrExpired
	}
	return c.extend(ctx, cur, now, c.clampTTL(ttl))
}

// ConvertToApplication upgrades a live hold into a submitted
// application awaiting organizer approval. The deadline is cleared —
// once past the tentative stage the claim no longer auto-expires —
// and the note records the hand-off. The CRM layer receives the full
// form payload out of band only after this transition has committed.
func (c *Coordinator) ConvertToApplication(ctx context.Context, standID, holderToken, note string) (*model.Claim, error) {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return nil, err
	}
	switch cur.Status {
	case model.StatusHeld:
		// fall through to the holder checks below
	case model.StatusPendingApproval, model.StatusOccupied:
		return nil, ErrInvalidState
	default:
		return nil, ErrNotHolder
	}
	if cur.HolderToken != holderToken {
		return nil, ErrNotHolder
	}
	if cur.ExpiredAt(c.now()) {
		return nil, ErrExpired
	}
	if note == "" {
		note = "awaiting organizer approval"
	}
	return c.apply(ctx, cur, model.Claim{
		Status:      model.StatusPendingApproval,
		HolderToken: cur.HolderToken,
		AcquiredAt:  cur.AcquiredAt,
		Note:        note,
	})
}

// Approve finalizes a pending application: the stand becomes OCCUPIED.
// The holder token and acquisition time are kept for audit.
func (c *Coordinator) Approve(ctx context.Context, standID string) (*model.Claim, error) {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return nil, err
	}
	if cur.Status != model.StatusPendingApproval {
		return nil, ErrInvalidState
	}
	return c.apply(ctx, cur, model.Claim{
		Status:      model.StatusOccupied,
		HolderToken: cur.HolderToken,
		AcquiredAt:  cur.AcquiredAt,
		Note:        "approved",
	})
}

// Reject returns a pending application's stand to the pool, clearing
// the holder so the next exhibitor can claim it.
func (c *Coordinator) Reject(ctx context.Context, standID string) (*model.Claim, error) {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return nil, err
	}
	if cur.Status != model.StatusPendingApproval {
		return nil, ErrInvalidState
	}
	return c.apply(ctx, cur, model.Claim{Status: model.StatusAvailable})
}

// ForceRelease is the explicit administrator cancellation of an
// OCCUPIED stand (e.g. a withdrawn exhibitor). The coordinator never
// reverts OCCUPIED on its own.
func (c *Coordinator) ForceRelease(ctx context.Context, standID string) (*model.Claim, error) {
	cur, err := c.get(ctx, standID)
	if err != nil {
		return nil, err
	}
	if cur.Status != model.StatusOccupied {
		return nil, ErrInvalidState
	}
	return c.apply(ctx, cur, model.Claim{Status: model.StatusAvailable})
}
