package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	// ErrTokenRevoked is returned when a refresh token was logged out, rotated or never issued.
	ErrTokenRevoked = errors.New("token revoked")
)
