package usecase

import "errors"

// Sentinels wrapped by the services with fmt.Errorf("%w: ..."). The HTTP
// layer maps each to a status; waiver.RejectionError and the claim lock
// errors ride along inside ErrInvalidInput and ErrConflict.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
