package users

import (
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteDialect = dialect{
	insertUser: `INSERT INTO users (id, username, email, password_hash, salt, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
	selectByLogin: `SELECT id, username, email, password_hash, salt, is_active, last_login, created_at
		FROM users
		WHERE username = ?`,
	updateLastLogin: `UPDATE users SET last_login = ? WHERE id = ?`,
	isUniqueViolation: func(err error) bool {
		var sqlErr *sqlite.Error
		if errors.As(err, &sqlErr) {
			switch sqlErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
				return true
			}
		}
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	},
	// SQLite has no timestamp type; keep a sortable UTC string.
	timeArg: func(t time.Time) any { return t.UTC().Format(time.RFC3339Nano) },
}

// NewSQLiteRepository binds the repository to a modernc.org/sqlite handle.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, d: sqliteDialect}
}
