package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and provider clients
// return these (optionally wrapped) so services can translate them into
// domain errors or reason codes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in a store
// - ErrExpired: cached entry or verification handle has expired
// - ErrUnavailable: provider or backing service temporarily unreachable
// - ErrTimeout: a bounded network step ran out of time
//
// For bad input, use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrTimeout     = errors.New("timeout")
)
