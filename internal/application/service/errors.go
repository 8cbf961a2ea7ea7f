package service

import "errors"

// Error taxonomy surfaced by the service layer. All errors are reported
// synchronously to the caller; none are retried here.
var (
	// ErrNotFound indicates a referenced expense, user or company does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates an approve/reject attempt on an
	// expense that has already reached a terminal state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrValidation indicates missing or invalid input fields. It is
	// raised before any state mutation occurs.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the actor lacks permission for the
	// expense's current step. Distinct from ErrInvalidTransition so
	// callers can render appropriate messaging.
	ErrUnauthorized = errors.New("not authorized")
)
