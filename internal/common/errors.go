// Package common defines shared constants and sentinel errors used across
// the inbox service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Identity errors.
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")

	// Inbox errors.
	ErrInvalidLink       = errors.New("invalid link")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrForbidden         = errors.New("forbidden")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrAuditTrail marks a message that could not be paired with its
	// submission metadata. It is never recoverable by the caller.
	ErrAuditTrail = errors.New("submission metadata was not captured")
)

// IntegrityError reports a write that would have left a message without its
// audit trail. It wraps ErrAuditTrail and the underlying cause.
type IntegrityError struct {
	MessageID int64
	Err       error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v (message %d): %v", ErrAuditTrail, e.MessageID, e.Err)
}

func (e *IntegrityError) Unwrap() []error {
	return []error{ErrAuditTrail, e.Err}
}

// IsFatal reports whether err belongs outside the recoverable error taxonomy.
func IsFatal(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
