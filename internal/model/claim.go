package model

import "time"

// ClaimStatus enumerates the lifecycle states of a stand claim.
type ClaimStatus string

const (
	// StatusAvailable means nobody holds the stand; holder and timestamps are null.
	StatusAvailable ClaimStatus = "AVAILABLE"
	// StatusHeld is a tentative, time-limited hold taken while an exhibitor
	// fills out the pre-registration form. It expires automatically.
	StatusHeld ClaimStatus = "HELD"
	// StatusPendingApproval means the hold was converted into a submitted
	// application and awaits an organizer decision. No TTL applies.
	StatusPendingApproval ClaimStatus = "PENDING_APPROVAL"
	// StatusOccupied is the final state after an application is approved.
	// Only an explicit admin force-release reverts it.
	StatusOccupied ClaimStatus = "OCCUPIED"
)

// Claim is the mutable coordination record for one stand. Exactly one
// Claim row exists per Stand at all times; rows are created when the
// stand is provisioned and never deleted, only cycled through states.
//
// Version is the compare-and-swap guard: every accepted transition
// increments it by exactly one, and a writer must present the version
// it read for its write to be accepted.
type Claim struct {
	StandID     string      `json:"stand_id"`               // claims.stand_id
	Status      ClaimStatus `json:"status"`                 // claims.status
	HolderToken string      `json:"holder_token,omitempty"` // claims.holder_token (empty when AVAILABLE)
	AcquiredAt  *time.Time  `json:"acquired_at,omitempty"`  // claims.acquired_at (nil when AVAILABLE)
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`   // claims.expires_at (nil unless HELD)
	Note        string      `json:"note,omitempty"`         // claims.note, non-authoritative metadata
	Version     uint64      `json:"version"`                // claims.version
}

// ExpiredAt reports whether the claim is a hold whose deadline has passed
// at the given instant. A logically expired hold must be treated as
// available by every reader even before the sweeper physically reverts it.
func (c *Claim) ExpiredAt(now time.Time) bool {
	return c.Status == StatusHeld && c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// EffectiveStatus returns the status a reader must act on: HELD collapses
// to AVAILABLE once the hold deadline has passed.
func (c *Claim) EffectiveStatus(now time.Time) ClaimStatus {
	if c.ExpiredAt(now) {
		return StatusAvailable
	}
	return c.Status
}
