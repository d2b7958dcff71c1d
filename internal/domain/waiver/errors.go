package waiver

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidClaim    = errors.New("invalid waiver claim")
	ErrInvalidSettings = errors.New("invalid waiver settings")
	ErrClaimRejected   = errors.New("waiver claim rejected")
	ErrClaimNotPending = errors.New("waiver claim is not pending")
	ErrClaimLocked     = errors.New("waiver claim is being processed")
	ErrClaimNotFound   = errors.New("waiver claim not found")
	ErrDuplicateClaim  = errors.New("duplicate pending waiver claim")
	ErrIntegrityFault  = errors.New("waiver state integrity fault")
	ErrPassNotFound    = errors.New("waiver pass not found")
)

// RejectionError is returned by the eligibility checks.
type RejectionError struct {
	Reason Reason
	Detail string
}

func reject(reason Reason, format string, args ...any) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (e *RejectionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrClaimRejected, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrClaimRejected, e.Reason, e.Detail)
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrClaimRejected
}

// RejectionReason extracts the reason from a rejection anywhere in the chain.
func RejectionReason(err error) (Reason, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Reason, true
	}
	return "", false
}
