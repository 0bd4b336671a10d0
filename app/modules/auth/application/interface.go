package authservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// Signup creates an account and opens a session for it.
	Signup(ctx context.Context, req SignupRequest) (*Session, error)

	// Signin verifies credentials and opens a session.
	Signin(ctx context.Context, username, password string) (*Session, error)

	// ValidateToken validates a session token against the current user record.
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// SignupRequest is the signup form.
type SignupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Session is an issued session token and the account it belongs to.
type Session struct {
	Token     string          `json:"-"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      userdomain.User `json:"user"`
}
