// Package models holds the server-side domain records.
package models

import "time"

// User is a registered account. PasswordHash is the client-computed
// H(password || salt) stored verbatim; it must never leave the server.
type User struct {
	ID           string
	UserName     string
	Email        string // empty when not supplied
	PasswordHash string
	Salt         string
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
}
