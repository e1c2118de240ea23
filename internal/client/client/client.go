package client

import (
	"context"
	"time"
)

// Client is the saltgate API as seen by the CLI. Implementations must honor
// context cancellation.
type Client interface {
	GetSalt(ctx context.Context, username string) (*SaltResult, error)
	Register(ctx context.Context, username, email, clientHash string) (string, error)
	Login(ctx context.Context, username, clientHash, nonce string) (*LoginResult, error)
	Profile(ctx context.Context, token string) (*User, error)
	Health(ctx context.Context) error
}

type SaltResult struct {
	Salt      string `json:"salt"`
	IsNewUser bool   `json:"isNewUser"`
}

type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	IssuedAt  *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
