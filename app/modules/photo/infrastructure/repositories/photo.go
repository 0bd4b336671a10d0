package photodb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a photo is not found.
	ErrNotFound = errors.New("photo not found")
	// ErrUnknownUser is returned when a row references a missing user.
	ErrUnknownUser = errors.New("photo user does not exist")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new photo repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) viewQuery(db bun.IDB, rows any, viewer uuid.UUID) *bun.SelectQuery {
	return db.NewSelect().
		Model(rows).
		ColumnExpr("p.*").
		ColumnExpr("(SELECT COUNT(*) FROM photo_likes AS l WHERE l.photo_id = p.id) AS like_count").
		ColumnExpr("EXISTS (SELECT 1 FROM photo_likes AS l WHERE l.photo_id = p.id AND l.user_id = ?) AS liked_by_me", viewer)
}

// InsertPhoto stores a new photo.
func (r *Impl) InsertPhoto(ctx context.Context, db bun.IDB, photo *Photo) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(photo).Exec(ctx); err != nil {
		if bundb.IsForeignKeyViolation(err) {
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to insert photo: %w", err)
	}
	return nil
}

// GetPhoto retrieves a photo by id.
func (r *Impl) GetPhoto(ctx context.Context, db bun.IDB, id, viewer uuid.UUID) (*PhotoView, error) {
	db = r.resolveDB(db)
	view := new(PhotoView)
	if err := r.viewQuery(db, view, viewer).Where("p.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return view, nil
}

// ListPhotos pages through photos newest first.
func (r *Impl) ListPhotos(ctx context.Context, db bun.IDB, filter ListFilter) ([]PhotoView, error) {
	db = r.resolveDB(db)
	var views []PhotoView
	q := r.viewQuery(db, &views, filter.Viewer).
		OrderExpr("p.created_at DESC, p.id DESC")
	if !filter.IncludeHidden {
		q = q.Where("p.hidden = FALSE")
	}
	if filter.Before != nil {
		q = q.Where("p.created_at < ?", *filter.Before)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return views, nil
}

// DeletePhoto removes a photo and, through the foreign key, its likes.
func (r *Impl) DeletePhoto(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().Model((*Photo)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetHidden flips the moderation flag.
func (r *Impl) SetHidden(ctx context.Context, db bun.IDB, id uuid.UUID, hidden bool) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Photo)(nil)).
		Set("hidden = ?", hidden).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update photo visibility: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddLike records a like once per user.
func (r *Impl) AddLike(ctx context.Context, db bun.IDB, photoID, userID uuid.UUID) error {
	db = r.resolveDB(db)
	like := &Like{PhotoID: photoID, UserID: userID, CreatedAt: time.Now().UTC()}
	if _, err := db.NewInsert().Model(like).On("CONFLICT (photo_id, user_id) DO NOTHING").Exec(ctx); err != nil {
		if bundb.IsForeignKeyViolation(err) {
			if bundb.ConstraintName(err) == "photo_likes_photo_id_fkey" {
				return ErrNotFound
			}
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to like photo: %w", err)
	}
	return nil
}

// RemoveLike deletes a like if present.
func (r *Impl) RemoveLike(ctx context.Context, db bun.IDB, photoID, userID uuid.UUID) error {
	db = r.resolveDB(db)
	_, err := db.NewDelete().
		Model((*Like)(nil)).
		Where("photo_id = ?", photoID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unlike photo: %w", err)
	}
	return nil
}

// CountPhotos returns visible and hidden totals.
func (r *Impl) CountPhotos(ctx context.Context, db bun.IDB) (int, int, error) {
	db = r.resolveDB(db)
	var counts struct {
		Visible int `bun:"visible"`
		Hidden  int `bun:"hidden"`
	}
	err := db.NewSelect().
		Model((*Photo)(nil)).
		ColumnExpr("COUNT(*) FILTER (WHERE NOT p.hidden) AS visible").
		ColumnExpr("COUNT(*) FILTER (WHERE p.hidden) AS hidden").
		Scan(ctx, &counts)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return counts.Visible, counts.Hidden, nil
}
