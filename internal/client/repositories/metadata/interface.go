// Package metadata stores the CLI session as key/value pairs in the local
// SQLite database.
package metadata

import (
	"context"
)

// Session keys.
const (
	KeyUsername    = "username"
	KeyUserID      = "user_id"
	KeyAccessToken = "access_token"
	KeyServerURL   = "server_url"
)

// Repository is a flat key/value store. Get returns (nil, nil) for an
// absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
