package photodb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for photo persistence.
type Repository interface {
	InsertPhoto(ctx context.Context, db bun.IDB, photo *Photo) error
	// GetPhoto returns a photo with like totals as seen by viewer.
	GetPhoto(ctx context.Context, db bun.IDB, id, viewer uuid.UUID) (*PhotoView, error)
	// ListPhotos returns photos newest first.
	ListPhotos(ctx context.Context, db bun.IDB, filter ListFilter) ([]PhotoView, error)
	DeletePhoto(ctx context.Context, db bun.IDB, id uuid.UUID) error
	SetHidden(ctx context.Context, db bun.IDB, id uuid.UUID, hidden bool) error

	// AddLike and RemoveLike are idempotent.
	AddLike(ctx context.Context, db bun.IDB, photoID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, db bun.IDB, photoID, userID uuid.UUID) error

	CountPhotos(ctx context.Context, db bun.IDB) (visible int, hidden int, err error)
}
