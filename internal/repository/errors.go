// Package repository defines the storage layer for stands and their
// claims, together with the sentinel error values shared across its
// backends. These sentinels allow higher layers such as the
// coordinator and handlers to distinguish between different failure
// scenarios with errors.Is instead of inspecting driver-specific
// errors.
package repository

import "errors"

// ErrStandNotFound is returned when no stand (or claim row) exists
// for the requested identifier.
var ErrStandNotFound = errors.New("stand not found")

// ErrVersionConflict is returned by a conditional claim update whose
// expected version no longer matches the stored row: a concurrent
// writer committed first. Callers must re-read before deciding
// whether to retry.
var ErrVersionConflict = errors.New("claim version conflict")

// ErrDuplicateStand is returned when provisioning attempts to insert
// a stand whose identifier already exists in the catalog.
var ErrDuplicateStand = errors.New("stand already exists")
