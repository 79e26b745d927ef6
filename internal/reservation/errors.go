package reservation

import "errors"

// Error kinds surfaced by the coordinator. Every one of them is a
// normal outcome of contention or stale client state, never fatal to
// the process; handlers translate them into user-facing responses.
var (
	// ErrAlreadyClaimed means the stand is not available to this caller:
	// live-held by another token, pending approval, or occupied. The
	// caller picks a different stand.
	ErrAlreadyClaimed = errors.New("stand already claimed")

	// ErrConflict is a compare-and-swap loss against a concurrent
	// writer. Acquire absorbs one internally; elsewhere it is surfaced
	// so the caller can re-read and retry deliberately.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrNotHolder means the supplied token does not match the current
	// holder. The caller's local state is stale; it should resync.
	ErrNotHolder = errors.New("caller does not hold this stand")

	// ErrExpired means the hold's deadline passed before Touch/Convert;
	// the caller must re-acquire.
	ErrExpired = errors.New("hold expired")

	// ErrInvalidState rejects an operation the claim's current status
	// does not permit (e.g. Approve on a non-pending claim).
	ErrInvalidState = errors.New("invalid claim state for operation")

	// ErrNotFound means the stand id is unknown.
	ErrNotFound = errors.New("unknown stand")

	// ErrHoldLimit rejects an Acquire while the same token still has a
	// live hold or pending application on another stand.
	ErrHoldLimit = errors.New("holder already has an active claim")
)
