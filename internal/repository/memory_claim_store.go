package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/expocenter/stand-reservation/internal/model"
)

// MemoryClaimStore is an in-process ClaimStore backend. It backs the
// test suite and the DB_DRIVER=memory dev mode where running MySQL is
// not worth the trouble. A single mutex makes the conditional update
// atomic; semantics match MySQLClaimStore exactly.
type MemoryClaimStore struct {
	mu     sync.Mutex
	claims map[string]model.Claim
}

// NewMemoryClaimStore returns an empty MemoryClaimStore.
func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{claims: make(map[string]model.Claim)}
}

// Provision inserts the initial AVAILABLE claim row for a stand with
// version 1. It returns ErrDuplicateStand when the row already exists.
func (s *MemoryClaimStore) Provision(standID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[standID]; ok {
		return ErrDuplicateStand
	}
	s.claims[standID] = model.Claim{
		StandID: standID,
		Status:  model.StatusAvailable,
		Version: 1,
	}
	return nil
}

// Get returns a copy of the claim row for a stand.
func (s *MemoryClaimStore) Get(_ context.Context, standID string) (*model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[standID]
	if !ok {
		return nil, ErrStandNotFound
	}
	return cloneClaim(c), nil
}

// List returns all claim rows ordered by stand id.
func (s *MemoryClaimStore) List(_ context.Context) ([]model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Claim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, *cloneClaim(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StandID < out[j].StandID })
	return out, nil
}

// FindByHolder returns claims bound to the token in HELD or
// PENDING_APPROVAL state, expired holds included.
func (s *MemoryClaimStore) FindByHolder(_ context.Context, holderToken string) ([]model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Claim
	for _, c := range s.claims {
		if c.HolderToken == holderToken &&
			(c.Status == model.StatusHeld || c.Status == model.StatusPendingApproval) {
			out = append(out, *cloneClaim(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StandID < out[j].StandID })
	return out, nil
}

// ListExpiredHeld returns HELD claims whose deadline is at or before now.
func (s *MemoryClaimStore) ListExpiredHeld(_ context.Context, now time.Time) ([]model.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Claim
	for _, c := range s.claims {
		if c.Status == model.StatusHeld && c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
			out = append(out, *cloneClaim(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StandID < out[j].StandID })
	return out, nil
}

// Update applies the conditional write under the store mutex.
func (s *MemoryClaimStore) Update(_ context.Context, standID string, expectedVersion uint64, next model.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.claims[standID]
	if !ok {
		return ErrStandNotFound
	}
	if cur.Version != expectedVersion {
		return ErrVersionConflict
	}
	next.StandID = standID
	next.Version = expectedVersion + 1
	s.claims[standID] = *cloneClaim(next)
	return nil
}

// cloneClaim deep-copies a claim so callers never share the stored
// timestamp pointers.
func cloneClaim(c model.Claim) *model.Claim {
	out := c
	if c.AcquiredAt != nil {
		t := *c.AcquiredAt
		out.AcquiredAt = &t
	}
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}
