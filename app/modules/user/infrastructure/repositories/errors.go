package userdb

import "errors"

// Sentinel errors for the user repository layer.
var (
	// ErrNotFound indicates the requested user does not exist.
	ErrNotFound = errors.New("user record not found")

	// ErrDuplicateUsername indicates the username unique constraint fired.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrReferenced indicates rows that must outlive the user still point at it.
	ErrReferenced = errors.New("user is still referenced")
)
