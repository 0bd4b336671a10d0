package photodb

import (
	"time"

	photodomain "github.com/Black-And-White-Club/party-companion/app/modules/photo/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Photo is one row of the photos table.
type Photo struct {
	bun.BaseModel `bun:"table:photos,alias:p"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	ImageURL  string    `bun:"image_url,notnull"`
	Caption   string    `bun:"caption,notnull"`
	Hidden    bool      `bun:"hidden,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Like is one row of the photo_likes table.
type Like struct {
	bun.BaseModel `bun:"table:photo_likes,alias:pl"`

	PhotoID   uuid.UUID `bun:"photo_id,pk,type:uuid"`
	UserID    uuid.UUID `bun:"user_id,pk,type:uuid"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// PhotoView is a photo with its like totals for one viewer.
type PhotoView struct {
	Photo `bun:",extend"`

	LikeCount int  `bun:"like_count,scanonly"`
	LikedByMe bool `bun:"liked_by_me,scanonly"`
}

// ListFilter narrows ListPhotos. Before pages by created_at.
type ListFilter struct {
	Viewer        uuid.UUID
	IncludeHidden bool
	Before        *time.Time
	Limit         int
}

func (v *PhotoView) ToDomain() photodomain.Photo {
	return photodomain.Photo{
		ID:        v.ID,
		UserID:    v.UserID,
		ImageURL:  v.ImageURL,
		Caption:   v.Caption,
		Hidden:    v.Hidden,
		LikeCount: v.LikeCount,
		LikedByMe: v.LikedByMe,
		CreatedAt: v.CreatedAt,
	}
}
