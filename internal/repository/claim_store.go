package repository

import (
	"context"
	"time"

	"github.com/expocenter/stand-reservation/internal/model"
)

// ClaimStore is the authoritative table of current claims, one row per
// stand. It exposes exactly one mutation primitive: a conditional
// update guarded by the row's version. Every higher-level transition
// is built from a plain read plus that primitive; no other write path
// exists.
//
// Two backends implement it: MySQLClaimStore for production and
// MemoryClaimStore for tests and single-binary dev setups.
type ClaimStore interface {
	// Get returns the claim row for a stand, or ErrStandNotFound.
	Get(ctx context.Context, standID string) (*model.Claim, error)

	// List returns all claim rows ordered by stand id.
	List(ctx context.Context) ([]model.Claim, error)

	// FindByHolder returns the claims currently bound to a holder token
	// in HELD or PENDING_APPROVAL state. Expired holds are included;
	// the caller applies the logical-expiry rule.
	FindByHolder(ctx context.Context, holderToken string) ([]model.Claim, error)

	// ListExpiredHeld returns HELD claims whose expires_at is at or
	// before the given instant. Used by the sweeper.
	ListExpiredHeld(ctx context.Context, now time.Time) ([]model.Claim, error)

	// Update applies the new tuple to the stand's claim row if and only
	// if the stored version still equals expectedVersion, incrementing
	// the version by exactly one. It returns ErrVersionConflict when
	// the guard fails and ErrStandNotFound for an unknown stand. The
	// Version field of next is ignored; the store owns the counter.
	Update(ctx context.Context, standID string, expectedVersion uint64, next model.Claim) error
}
