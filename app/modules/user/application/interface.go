package userservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/google/uuid"
)

// Service manages accounts after signup.
type Service interface {
	GetUser(ctx context.Context, id uuid.UUID) (*userdomain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]userdomain.User, error)
	SetAdmin(ctx context.Context, actor authdomain.Actor, id uuid.UUID, isAdmin bool) (*userdomain.User, error)
	DeleteUser(ctx context.Context, actor authdomain.Actor, id uuid.UUID) error
	CountUsers(ctx context.Context) (int, error)
	// DisplayNames resolves ids to display names. Unknown ids are omitted.
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
