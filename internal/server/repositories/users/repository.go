// Package users is the credential store adapter: lookup and insert of user
// records keyed by username, backed by Postgres, SQLite or memory.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/server/models"
)

// Repository is the capability set the auth flows need from storage.
//
// Create must rely on the backend's own uniqueness guarantee for username
// and email and report a duplicate as common.ErrorAlreadyExists.
// GetUserByLogin reports a missing user as common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}
