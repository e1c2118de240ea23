package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/saltgate/internal/server/migrations"
	"github.com/dmitrijs2005/saltgate/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLRepositoryManager vends database/sql backed repositories and migrates
// the schema for its dialect.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect goose.Dialect
	dir     string
	users   users.Repository
}

// gooseUp is a seam for testing the goose provider run.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// NewPostgresRepositoryManager wraps an open pgx handle.
func NewPostgresRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:      db,
		dialect: goose.DialectPostgres,
		dir:     "postgres",
		users:   users.NewPostgresRepository(db),
	}
}

// NewSQLiteRepositoryManager wraps an open modernc.org/sqlite handle.
func NewSQLiteRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:      db,
		dialect: goose.DialectSQLite3,
		dir:     "sqlite",
		users:   users.NewSQLiteRepository(db),
	}
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations applies every pending embedded migration. Already applied
// versions are skipped, so repeated runs are no-ops.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	fsys, err := migrations.Dir(m.dir)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if err := gooseUp(ctx, m.dialect, m.db, fsys); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (m *SQLRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

func openPostgres(dsn string) (*SQLRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

func openSQLite(path string) (*SQLRepositoryManager, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps a :memory: database alive on a
	// single connection.
	db.SetMaxOpenConns(1)
	return NewSQLiteRepositoryManager(db), nil
}
