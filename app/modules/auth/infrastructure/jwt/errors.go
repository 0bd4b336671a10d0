package authjwt

import "errors"

// Session token failures. The middleware treats all three as "signed out".
var (
	ErrInvalidToken     = errors.New("session token is malformed")
	ErrExpiredToken     = errors.New("session has expired")
	ErrInvalidSignature = errors.New("session token signature does not match")
)
