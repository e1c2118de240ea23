// Package cli provides the saltgate command-line client.
//
// Commands:
//   - salt:     show the salt the server hands out for a username
//   - register: create an account; the password is hashed locally
//   - login:    answer a nonce challenge and cache the issued token
//   - profile:  call the protected endpoint with the cached token
//   - logout:   forget the cached token
//   - ping:     check server health
//
// The session lives in a SQLite file under the user config directory unless
// --session points elsewhere. Passwords are read without echo from a
// terminal, or as one line from stdin when it is not a terminal or when
// --password-stdin is given.
package cli
