// Package cryptox implements the salt-then-nonce hash composition shared by
// the server and the reference client.
//
//	salt     = hex(SHA-256(username || pepper))[:SaltLength]
//	h1       = hex(SHA-256(password || salt))     stored by the server
//	response = hex(SHA-256(h1 || nonce))          sent on every login
//
// All values are lowercase hex strings so they travel unchanged in JSON.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SaltLength is the number of hex characters kept from the salt digest.
const SaltLength = 32

// PepperSize is the length in bytes of a pepper derived by DerivePepper.
const PepperSize = 32

const pepperInfo = "saltgate salt pepper"

// Hash returns hex(SHA-256(a || b || ...)).
func Hash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DeriveSalt computes the per-username salt. It is deterministic and does
// not need the user to exist, so unknown names get a stable salt too.
func DeriveSalt(username string, pepper []byte) string {
	return Hash(username, string(pepper))[:SaltLength]
}

// PasswordHash is the client-side first round: H(password || salt).
func PasswordHash(password, salt string) string {
	return Hash(password, salt)
}

// ChallengeResponse is the second round: H(passwordHash || nonce). The
// client computes it from its own PasswordHash, the server from the stored
// one.
func ChallengeResponse(passwordHash, nonce string) string {
	return Hash(passwordHash, nonce)
}

// Equal compares two responses in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// DerivePepper expands the signing secret into an independent pepper with
// HKDF-SHA256. Used when no explicit pepper is configured.
func DerivePepper(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty secret")
	}
	pepper := make([]byte, PepperSize)
	r := hkdf.New(sha256.New, secret, nil, []byte(pepperInfo))
	if _, err := io.ReadFull(r, pepper); err != nil {
		return nil, err
	}
	return pepper, nil
}
