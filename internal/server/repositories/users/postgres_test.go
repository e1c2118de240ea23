package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertRE = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*salt,\s*is_active,\s*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`
	selectRE = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*salt,\s*is_active,\s*last_login,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1$`
	updateRE = `(?s)^UPDATE\s+users\s+SET\s+last_login\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2$`
)

var selectColumns = []string{"id", "username", "email", "password_hash", "salt", "is_active", "last_login", "created_at"}

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func sampleUser() *models.User {
	return &models.User{
		ID:           "5f0c7e7e-8d7a-4d8f-9a55-2f1b0b8f9d01",
		UserName:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "h1",
		Salt:         "salt",
		IsActive:     true,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPostgresCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(insertRE).
		WithArgs(u.ID, "alice", sql.NullString{String: "alice@example.com", Valid: true}, "h1", "salt", true, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_NoEmailIsNull(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()
	u.Email = ""

	mock.ExpectExec(insertRE).
		WithArgs(u.ID, "alice", sql.NullString{}, "h1", "salt", true, u.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertRE).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	_, err := repo.Create(context.Background(), sampleUser())
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestPostgresCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertRE).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleUser())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestPostgresGetUserByLogin_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	last := created.Add(time.Hour)

	mock.ExpectQuery(selectRE).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(selectColumns).
			AddRow("u-1", "alice", "alice@example.com", "h1", "salt", true, last, created))

	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "h1", got.PasswordHash)
	assert.True(t, got.IsActive)
	require.NotNil(t, got.LastLogin)
	assert.True(t, last.Equal(*got.LastLogin))
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestPostgresGetUserByLogin_NullColumns(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectRE).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(selectColumns).
			AddRow("u-2", "bob", nil, "h1", "salt", true, nil, time.Now()))

	got, err := repo.GetUserByLogin(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Nil(t, got.LastLogin)
}

func TestPostgresGetUserByLogin_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectRE).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByLogin(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresGetUserByLogin_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectRE).WithArgs("alice").WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByLogin(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestPostgresUpdateLastLogin(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(updateRE).WithArgs(at, "u-1").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateLastLogin(context.Background(), "u-1", at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no such user", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(updateRE).WithArgs(at, "u-x").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.UpdateLastLogin(context.Background(), "u-x", at), common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(updateRE).WillReturnError(errors.New("gone"))
		err := repo.UpdateLastLogin(context.Background(), "u-1", at)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error")
	})
}
