// Package common defines shared constants and sentinel errors used across
// filekeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrMalformedDatabase = errors.New("malformed user database")
	ErrMalformedRecord   = errors.New("malformed user record")

	// Auth errors (malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Storage errors.
	ErrInvalidPath   = errors.New("invalid path")
	ErrAlreadyExists = errors.New("already exists")
	ErrQuotaExceeded = errors.New("quota exceeded")
)
