package photoservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	photodomain "github.com/Black-And-White-Club/party-companion/app/modules/photo/domain"
	"github.com/google/uuid"
)

// Service manages the shared photo feed.
type Service interface {
	PostPhoto(ctx context.Context, actor authdomain.Actor, imageURL, caption string) (*photodomain.Photo, error)
	// Feed lists visible photos newest first. A non-nil before pages past that instant.
	Feed(ctx context.Context, actor authdomain.Actor, limit int, before *time.Time) (*photodomain.Page, error)
	GetPhoto(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*photodomain.Photo, error)
	DeletePhoto(ctx context.Context, actor authdomain.Actor, id uuid.UUID) error
	Like(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*photodomain.Photo, error)
	Unlike(ctx context.Context, actor authdomain.Actor, id uuid.UUID) (*photodomain.Photo, error)

	SetHidden(ctx context.Context, id uuid.UUID, hidden bool) (*photodomain.Photo, error)
	ListAll(ctx context.Context, limit int) ([]photodomain.Photo, error)
	CountPhotos(ctx context.Context) (visible int, hidden int, err error)
}

// UserDirectory resolves user ids to display names. Unknown ids are omitted.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
