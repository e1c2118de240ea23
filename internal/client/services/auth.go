// Package services contains application services for the saltgate CLI.
// This file holds the authentication service: register, challenge login,
// profile lookup and housekeeping of the cached session.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/saltgate/internal/client/client"
	"github.com/dmitrijs2005/saltgate/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/cryptox"
	"github.com/dmitrijs2005/saltgate/internal/dbx"
)

// NonceBytes is the amount of randomness behind each login nonce.
const NonceBytes = 16

var ErrEmptyPassword = errors.New("password must not be empty")

// Session is what a successful login leaves in the local database.
type Session struct {
	Username string
	UserID   string
	Token    string
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Salt: ask the server for the salt of a username.
//   - Register: hash the password with the server salt and create the user.
//   - Login: answer a fresh nonce challenge and cache the issued token.
//   - Profile: call the protected endpoint with the cached token.
//   - Logout: forget the cached session.
//   - CurrentSession: read the cached session, if any.
//   - Ping: check server health.
type AuthService interface {
	Salt(ctx context.Context, username string) (*client.SaltResult, error)
	Register(ctx context.Context, username, email string, password []byte) (string, error)
	Login(ctx context.Context, username string, password []byte) (*Session, error)
	Profile(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
	nonce  func() (string, error)
}

// NewAuthService constructs an AuthService bound to the given API client and
// session database.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{
		client: c,
		db:     db,
		nonce:  func() (string, error) { return common.MakeRandHexString(NonceBytes) },
	}
}

func (a *authService) Salt(ctx context.Context, username string) (*client.SaltResult, error) {
	res, err := a.client.GetSalt(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get salt error: %w", err)
	}
	return res, nil
}

// Register derives h1 = H(password || salt) from the server salt and sends
// it as the client hash. The plaintext password never leaves the process.
func (a *authService) Register(ctx context.Context, username, email string, password []byte) (string, error) {
	if len(password) == 0 {
		return "", ErrEmptyPassword
	}

	salt, err := a.Salt(ctx, username)
	if err != nil {
		return "", err
	}

	id, err := a.client.Register(ctx, username, email, cryptox.PasswordHash(string(password), salt.Salt))
	if err != nil {
		return "", fmt.Errorf("register error: %w", err)
	}
	return id, nil
}

// Login fetches the salt, picks a new nonce and sends H(h1 || nonce). On
// success the token replaces any previously cached session.
func (a *authService) Login(ctx context.Context, username string, password []byte) (*Session, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}

	salt, err := a.Salt(ctx, username)
	if err != nil {
		return nil, err
	}

	nonce, err := a.nonce()
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	h1 := cryptox.PasswordHash(string(password), salt.Salt)
	res, err := a.client.Login(ctx, username, cryptox.ChallengeResponse(h1, nonce), nonce)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	s := &Session{Username: res.User.Username, UserID: res.User.ID, Token: res.Token}
	if s.Username == "" {
		s.Username = username
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// saveSession replaces the cached session in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		return repo.SetMany(ctx, map[string][]byte{
			metadata.KeyUsername:    []byte(s.Username),
			metadata.KeyUserID:      []byte(s.UserID),
			metadata.KeyAccessToken: []byte(s.Token),
		})
	})
}

// CurrentSession returns client.ErrLocalDataNotAvailable when nobody is
// logged in.
func (a *authService) CurrentSession(ctx context.Context) (*Session, error) {
	values, err := metadata.NewSQLiteRepository(a.db).List(ctx)
	if err != nil {
		return nil, err
	}
	token := values[metadata.KeyAccessToken]
	if len(token) == 0 {
		return nil, client.ErrLocalDataNotAvailable
	}
	return &Session{
		Username: string(values[metadata.KeyUsername]),
		UserID:   string(values[metadata.KeyUserID]),
		Token:    string(token),
	}, nil
}

// Profile drops the cached session when the server rejects its token.
func (a *authService) Profile(ctx context.Context) (*client.User, error) {
	s, err := a.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}

	u, err := a.client.Profile(ctx, s.Token)
	if err != nil {
		if errors.Is(err, client.ErrForbidden) || errors.Is(err, client.ErrUnauthorized) {
			if clearErr := a.Logout(ctx); clearErr != nil {
				return nil, errors.Join(err, clearErr)
			}
		}
		return nil, fmt.Errorf("profile error: %w", err)
	}
	return u, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Health(ctx)
}
