package users

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/dbx"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

var postgresDialect = dialect{
	insertUser: `INSERT INTO users (id, username, email, password_hash, salt, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	selectByLogin: `SELECT id, username, email, password_hash, salt, is_active, last_login, created_at
		FROM users
		WHERE username = $1`,
	updateLastLogin: `UPDATE users SET last_login = $1 WHERE id = $2`,
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
	},
	timeArg: func(t time.Time) any { return t.UTC() },
}

// NewPostgresRepository binds the repository to a pgx-backed handle.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, d: postgresDialect}
}
