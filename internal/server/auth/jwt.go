// Package auth issues and verifies the signed session tokens handed out on
// successful login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTTL is the fixed lifetime of a session token.
const TokenTTL = 24 * time.Hour

const DefaultIssuer = "saltgate"

// Claims carries the registered JWT claims plus the authenticated identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	UserName string `json:"username"`
}

// IssuedAtTime and ExpiresAtTime return the zero time when the claim is absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenIssuer signs HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

type Option func(*TokenIssuer)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(t *TokenIssuer) { t.now = now }
}

func WithIssuer(iss string) Option {
	return func(t *TokenIssuer) { t.issuer = iss }
}

func NewTokenIssuer(secret []byte, opts ...Option) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	t := &TokenIssuer{
		secret: append([]byte(nil), secret...),
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Issue returns a signed token valid for TokenTTL from its IssuedAt claim.
// IssuedAt is the issue time rounded down to whole seconds, matching the
// NumericDate precision, so ExpiresAt is exactly IssuedAt + TokenTTL and
// a token never outlives TokenTTL from the moment it was issued. With a
// fractional issue time the window closes up to one second early.
func (t *TokenIssuer) Issue(userID, userName string) (string, *Claims, error) {
	iat := t.now().UTC().Truncate(time.Second)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(TokenTTL)),
		},
		UserID:   userID,
		UserName: userName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify checks signature, algorithm and expiry. A token is valid strictly
// before ExpiresAt. Every failure is reported as common.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
