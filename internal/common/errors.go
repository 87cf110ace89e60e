// Package common defines the error taxonomy shared by the client and server
// layers of ontop. Callers should use errors.Is to match these values and
// Classify to decide between retry, surface and forced logout.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Service-level errors.
	ErrInternal           = errors.New("internal error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Transport errors. ErrUnavailable covers network failures, timeouts and
	// pool exhaustion; ErrServer covers 5xx and non-success response bodies.
	ErrUnavailable = errors.New("server unavailable")
	ErrServer      = errors.New("server error")

	// ErrUnauthorized means the server rejected the installed token (401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	ErrBackupDisabled = errors.New("backups are not configured")
)
