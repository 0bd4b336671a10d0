package scoredb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested score record does not exist.
	ErrNotFound = errors.New("score not found")

	// ErrUnknownUser indicates the score references a user that does not exist.
	ErrUnknownUser = errors.New("score user does not exist")
)
