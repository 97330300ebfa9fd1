package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: record does not exist in the store
// - ErrAlreadyExists: a record with the same key or unique field exists
// - ErrInvalidState: record is in the wrong state for the requested mutation
// - ErrInsufficient: a balance or quota cannot cover the requested amount
// - ErrUnavailable: backing store temporarily unreachable
//
// For input validation use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidState  = errors.New("invalid state")
	ErrInsufficient  = errors.New("insufficient")
	ErrUnavailable   = errors.New("unavailable")
)
