package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// MakeRandHexString returns size random bytes encoded as hex, so the result
// is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ParseBearer extracts the token from an Authorization value. The scheme is
// matched case-insensitively. No value, another scheme or a bare "Bearer"
// is ErrMissingToken; a Bearer value that is not exactly one token is
// ErrInvalidToken.
func ParseBearer(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 || !strings.EqualFold(parts[0], BearerScheme) {
		return "", ErrMissingToken
	}
	switch len(parts) {
	case 1:
		return "", ErrMissingToken
	case 2:
		return parts[1], nil
	default:
		return "", ErrInvalidToken
	}
}
