// Package services contains server-side business logic. UserService runs
// the salt lookup, registration and challenge-verify login flows.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/dmitrijs2005/saltgate/internal/cryptox"
	"github.com/dmitrijs2005/saltgate/internal/logging"
	"github.com/dmitrijs2005/saltgate/internal/server/auth"
	"github.com/dmitrijs2005/saltgate/internal/server/models"
	"github.com/dmitrijs2005/saltgate/internal/server/repositories/users"
	"github.com/google/uuid"
)

// TokenIssuer is the part of auth.TokenIssuer the login flow needs.
type TokenIssuer interface {
	Issue(userID, userName string) (string, *auth.Claims, error)
}

// LoginResult is what a successful login hands back to the transport.
type LoginResult struct {
	Token  string
	Claims *auth.Claims
	User   *models.User
}

// dummyPasswordHash stands in for the stored hash of an unknown user so
// that both failure paths compute the same response.
var dummyPasswordHash = cryptox.Hash("saltgate", "unknown user")

type UserService struct {
	repo   users.Repository
	tokens TokenIssuer
	pepper []byte
	known  KnownUsers
	log    logging.Logger
	now    func() time.Time
}

type Option func(*UserService)

func WithLogger(l logging.Logger) Option {
	return func(s *UserService) { s.log = l }
}

// WithKnownUsers lets GetSalt answer isNewUser for registered names
// without a store round-trip.
func WithKnownUsers(k KnownUsers) Option {
	return func(s *UserService) { s.known = k }
}

func WithClock(now func() time.Time) Option {
	return func(s *UserService) { s.now = now }
}

func NewUserService(repo users.Repository, tokens TokenIssuer, pepper []byte, opts ...Option) *UserService {
	s := &UserService{
		repo:   repo,
		tokens: tokens,
		pepper: append([]byte(nil), pepper...),
		known:  noKnownUsers{},
		log:    logging.Nop{},
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetSalt returns the derived salt for userName and whether no account
// exists under that name yet. The salt is the same either way.
func (s *UserService) GetSalt(ctx context.Context, userName string) (string, bool, error) {
	if userName == "" {
		return "", false, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}

	salt := cryptox.DeriveSalt(userName, s.pepper)
	if s.known.Contains(userName) {
		return salt, false, nil
	}

	_, err := s.repo.GetUserByLogin(ctx, userName)
	switch {
	case err == nil:
		s.known.Add(userName)
		return salt, false, nil
	case errors.Is(err, common.ErrorNotFound):
		return salt, true, nil
	default:
		s.log.Error(ctx, "get salt: user lookup failed", "error", err)
		return "", false, fmt.Errorf("%w: user lookup", common.ErrorInternal)
	}
}

// Register stores clientHash verbatim as the password record. Duplicate
// detection is left to the store's unique constraint.
func (s *UserService) Register(ctx context.Context, userName, email, clientHash string) (*models.User, error) {
	switch {
	case userName == "":
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	case clientHash == "":
		return nil, fmt.Errorf("%w: clientHash is required", common.ErrorValidation)
	case email != "" && !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: email is malformed", common.ErrorValidation)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     userName,
		Email:        email,
		PasswordHash: clientHash,
		Salt:         cryptox.DeriveSalt(userName, s.pepper),
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username or email already registered", common.ErrorAlreadyExists)
		}
		s.log.Error(ctx, "register: create user failed", "error", err)
		return nil, fmt.Errorf("%w: create user", common.ErrorInternal)
	}

	s.known.Add(userName)
	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Login checks clientHash against H(storedHash || nonce). Unknown users,
// inactive users and mismatches all return common.ErrInvalidCredentials.
//
// The nonce is accepted as sent; nothing here issues or tracks nonces.
func (s *UserService) Login(ctx context.Context, userName, clientHash, nonce string) (*LoginResult, error) {
	if userName == "" || clientHash == "" || nonce == "" {
		return nil, fmt.Errorf("%w: username, clientHash and nonce are required", common.ErrorValidation)
	}

	user, err := s.repo.GetUserByLogin(ctx, userName)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.log.Error(ctx, "login: user lookup failed", "error", err)
		return nil, fmt.Errorf("%w: user lookup", common.ErrorInternal)
	}

	stored := dummyPasswordHash
	if user != nil {
		stored = user.PasswordHash
	}
	match := cryptox.Equal(clientHash, cryptox.ChallengeResponse(stored, nonce))

	if user == nil || !user.IsActive || !match {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.log.Warn(ctx, "login: last login update failed", "user_id", user.ID, "error", err)
	}

	token, claims, err := s.tokens.Issue(user.ID, user.UserName)
	if err != nil {
		s.log.Error(ctx, "login: sign token failed", "error", err)
		return nil, fmt.Errorf("%w: sign token", common.ErrorInternal)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Token: token, Claims: claims, User: user}, nil
}
