package client

import "errors"

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("token rejected")
	ErrAlreadyExists         = errors.New("user already exists")
	ErrBadRequest            = errors.New("bad request")
	ErrRateLimited           = errors.New("too many login attempts")
	ErrServer                = errors.New("server error")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)
