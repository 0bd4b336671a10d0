package authservice

import "errors"

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken is returned when no token is provided.
	ErrMissingToken = errors.New("missing authentication token")

	// ErrUnknownSessionUser is returned when a token names a user that no longer exists.
	ErrUnknownSessionUser = errors.New("session user no longer exists")
)
