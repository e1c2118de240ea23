// Package repomanager opens the credential store named by a DSN, runs its
// migrations and vends the repositories bound to it.
package repomanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/server/repositories/users"
)

// RepositoryManager owns one store connection for the life of the process.
type RepositoryManager interface {
	Users() users.Repository
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open selects a backend by DSN scheme:
//
//	memory://                      process-local map, lost on exit
//	sqlite://path/to/file.db       modernc.org/sqlite; empty path means :memory:
//	postgres://user:pw@host/db     pgx stdlib driver
//
// Open does not touch the network; call Ping or RunMigrations for that.
func Open(dsn string) (RepositoryManager, error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("%w: database dsn has no scheme", common.ErrorValidation)
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return NewMemoryRepositoryManager(), nil
	case "sqlite", "sqlite3":
		return openSQLite(rest)
	case "postgres", "postgresql":
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported database scheme %q", common.ErrorValidation, scheme)
	}
}
