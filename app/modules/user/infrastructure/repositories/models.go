package userdb

import (
	"time"

	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User represents an account row.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	DisplayName  string    `bun:"display_name,notnull"`
	IsAdmin      bool      `bun:"is_admin,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (u *User) ToDomain() userdomain.User {
	return userdomain.User{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
	}
}
