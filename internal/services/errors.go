package services

import (
	"errors"

	"couple-planner/backend/internal/store"
)

// Error taxonomy surfaced to handlers. Conflict and NotFound originate in the
// store's conditional update; the rest are produced here. Only
// ErrStoreUnavailable is a candidate for caller-side retry, and retries are
// never performed server-side.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrValidation       = errors.New("invalid input")
	ErrForbidden        = errors.New("permission denied")
	ErrNotFound         = store.ErrNotFound
	ErrConflict         = store.ErrConflict
	ErrStoreUnavailable = errors.New("store unavailable")
)
