package service

import "errors"

// Typed error taxonomy returned by the business layer. Handlers map these to
// HTTP status codes with errors.Is; anything not listed here is treated as a
// storage failure and surfaced as a retryable 5xx without internal detail.
var (
	// ErrInvalidInput: malformed input (empty required field, non-positive
	// amount, unknown direction). Rejected before any state is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound: unknown material or user id.
	ErrNotFound = errors.New("not found")

	// ErrMaterialInactive: movement attempted on a deactivated material.
	ErrMaterialInactive = errors.New("material is inactive")

	// ErrInsufficientStock: an out movement would drive quantity negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrBusy: the movement could not win its per-material serialization
	// point before the configured timeout. Nothing was written; the caller
	// may retry.
	ErrBusy = errors.New("material busy, retry later")

	// ErrInvalidCredentials: login failed (never says which part was wrong).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDirectoryUnavailable: the LDAP service is disabled or its circuit
	// breaker is open. Distinct from a credential rejection so that login can
	// fall back to local accounts only when the directory never got to check.
	ErrDirectoryUnavailable = errors.New("directory service unavailable")
)
