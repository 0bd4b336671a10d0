package authdomain

import (
	"time"

	"github.com/google/uuid"
)

// Claims represents the domain model for authentication claims.
type Claims struct {
	UserID    uuid.UUID
	Username  string
	Role      Role
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// Actor returns the identity that services authorize against.
func (c *Claims) Actor() Actor {
	return Actor{UserID: c.UserID, Role: c.Role}
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
