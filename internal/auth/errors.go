// Package auth implements registration, credential verification and
// bearer-token session management.
package auth

import "errors"

// ValidationError marks recoverable user-input problems: short usernames,
// malformed emails, weak passwords. The message is safe to show to users.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError marks duplicate identity attempts.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrInvalidCredentials is returned for every authentication failure.
// The same message covers "no such user" and "wrong password" so the
// API cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid username/email or password")

// ErrInvalidSession covers expired, inactive and unknown session tokens
// alike. It is an expected outcome, not a system fault.
var ErrInvalidSession = errors.New("invalid or expired session")
