package userdomain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MinPasswordRunes   = 8
	MaxPasswordRunes   = 72
	MaxDisplayNameRune = 40
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

var (
	ErrInvalidUsername    = errors.New("username must be 3-20 characters of a-z, 0-9 or _")
	ErrInvalidPassword    = fmt.Errorf("password must be %d-%d characters", MinPasswordRunes, MaxPasswordRunes)
	ErrInvalidDisplayName = fmt.Errorf("display name must be at most %d characters", MaxDisplayNameRune)
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSelfModification   = errors.New("admins cannot demote or delete themselves")
	ErrUserHasGameHistory = errors.New("user has Mölkky game history and cannot be deleted")
)

// User is the public view of an account.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NormalizeUsername lowercases and trims a username before validation.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordRunes || n > MaxPasswordRunes {
		return ErrInvalidPassword
	}
	return nil
}

// NormalizeDisplayName trims the name and falls back to the username when empty.
func NormalizeDisplayName(displayName, username string) (string, error) {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return username, nil
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameRune {
		return "", ErrInvalidDisplayName
	}
	return name, nil
}
