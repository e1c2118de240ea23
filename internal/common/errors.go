// Package common defines sentinel errors and shared constants used by the
// saltgate server and client. Callers match them with errors.Is; transports
// translate them to status codes at a single boundary.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorValidation       = errors.New("validation error")
	ErrorInternal         = errors.New("internal error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many requests")

	// Auth gate errors. Every reason a token can be rejected (bad signature,
	// malformed, expired) collapses into ErrInvalidToken.
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)
