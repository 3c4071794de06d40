// Package common defines shared constants and sentinel errors used across
// ScanVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal           = errors.New("internal error")
	ErrorBackendUnavailable = errors.New("backend unavailable")

	// Validation errors (user-correctable).
	ErrorInvalidInput = errors.New("invalid input")

	// Identity and ownership errors.
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorForbidden       = errors.New("forbidden")

	// Upload intent errors.
	ErrorDuplicateName = errors.New("duplicate filename")
	ErrorQuotaExceeded = errors.New("quota exceeded")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Login errors.
	ErrorInvalidLoginPassword = errors.New("invalid login/password")
	ErrorLoginAlreadyExists   = errors.New("login already exists")
)
