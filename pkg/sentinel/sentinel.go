package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so callers can translate them into domain
// errors or HTTP statuses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity or manifest does not exist in the store
// - ErrConflict: write lost to a concurrent save of the same entity
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
