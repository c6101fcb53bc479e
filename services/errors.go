package services

import "errors"

// Errors shared across the engine services and mapped to HTTP statuses in
// the handlers layer.
var (
	// Validation / bad input
	ErrValidationFailed = errors.New("validation failed")
	ErrIdentityRequired = errors.New("participant identity is required")
	ErrTeamNameRequired = errors.New("team name is required")
	ErrTeamNotEmpty     = errors.New("team still has members")

	// Missing resources
	ErrTeamNotFound        = errors.New("team not found")
	ErrParticipantNotFound = errors.New("participant not found")

	// Assignment preconditions
	ErrNoTeamsAvailable = errors.New("no teams available for assignment")

	// Contention beyond the internal retry bound. Transient: the caller may
	// safely retry the whole operation.
	ErrAllocationExhausted   = errors.New("sequence allocation retries exhausted")
	ErrConflictRetryExceeded = errors.New("version conflict retries exhausted")

	// Backend failure, surfaced for the caller's backoff policy.
	ErrStoreUnavailable = errors.New("roster store unavailable")

	// Authentication
	ErrInvalidCredentials = errors.New("invalid admin credentials")

	// Badge uploads are optional; storage may not be configured.
	ErrBadgeStorageDisabled = errors.New("badge storage is not configured")
)
