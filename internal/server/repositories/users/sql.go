package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/dbx"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	insertUser        string
	selectByLogin     string
	updateLastLogin   string
	isUniqueViolation func(error) bool
	timeArg           func(time.Time) any
}

// SQLRepository implements Repository over database/sql.
type SQLRepository struct {
	db dbx.DBTX
	d  dialect
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	email := sql.NullString{String: user.Email, Valid: user.Email != ""}

	_, err := r.db.ExecContext(ctx, r.d.insertUser,
		user.ID, user.UserName, email, user.PasswordHash, user.Salt, user.IsActive, r.d.timeArg(user.CreatedAt))
	if err != nil {
		if r.d.isUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	var (
		user      models.User
		email     sql.NullString
		lastLogin any
		createdAt any
	)

	err := r.db.QueryRowContext(ctx, r.d.selectByLogin, userName).Scan(
		&user.ID, &user.UserName, &email, &user.PasswordHash, &user.Salt, &user.IsActive, &lastLogin, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Email = email.String
	if user.LastLogin, err = decodeTime(lastLogin); err != nil {
		return nil, fmt.Errorf("db error: last_login: %w", err)
	}
	created, err := decodeTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("db error: created_at: %w", err)
	}
	if created != nil {
		user.CreatedAt = *created
	}

	return &user, nil
}

func (r *SQLRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, r.d.updateLastLogin, r.d.timeArg(at), userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// decodeTime accepts what the drivers hand back for timestamp columns:
// time.Time from pgx, RFC 3339 text from SQLite, or NULL.
func decodeTime(v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	default:
		return nil, fmt.Errorf("unsupported time value %T", v)
	}
}

func parseTime(s string) (*time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
