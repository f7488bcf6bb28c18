package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by repositories
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrProblemNotFound = errors.New("problem not found")
)

// Mastery errors
var (
	// ErrVersionConflict is returned when a compare-and-set write lost a race
	ErrVersionConflict = errors.New("mastery state version conflict")
)

// Hint errors
var (
	ErrInvalidPurpose = errors.New("invalid hint purpose")
)

// General errors
var (
	ErrInvalidInput = errors.New("invalid input")
)
