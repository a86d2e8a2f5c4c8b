package services

import "errors"

// Error taxonomy shared by the services. Controllers translate these into
// HTTP statuses with errors.Is; anything unrecognized is a 500.
var (
	// ErrValidation marks missing or malformed input (400).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown record id (404).
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an ownership or role violation (403).
	ErrForbidden = errors.New("forbidden")
	// ErrPrecondition marks an unmet lifecycle precondition, such as
	// marking an unapproved request paid (400).
	ErrPrecondition = errors.New("precondition failed")
	// ErrConflict marks a duplicate terminal state, such as paying twice (400).
	ErrConflict = errors.New("conflict")
)
