// Package client contains the CLI side of saltgate.
//
// It provides:
//  1. The Client contract for the saltgate HTTP API (get-salt, register,
//     login, profile, health) and HTTPClient, its net/http implementation.
//  2. InitDatabase and RunMigrations, which open the local SQLite session
//     database and apply its embedded goose migrations.
//
// Non-2xx answers come back as *APIError. Its Unwrap returns one of the
// package sentinels, so callers match them with errors.Is: ErrUnauthorized,
// ErrForbidden, ErrAlreadyExists, ErrBadRequest, ErrRateLimited, ErrServer.
// Transport failures wrap ErrUnavailable.
package client
