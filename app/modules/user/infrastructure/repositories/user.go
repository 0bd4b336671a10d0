package userdb

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

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new user repository.
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

func (r *Impl) Create(ctx context.Context, db bun.IDB, user *User) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := db.NewInsert().Model(user).Exec(ctx); err != nil {
		if bundb.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, r.resolveDB(db), "u.id = ?", id)
}

func (r *Impl) GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error) {
	return r.getOne(ctx, r.resolveDB(db), "u.username = ?", username)
}

func (r *Impl) getOne(ctx context.Context, db bun.IDB, where string, arg any) (*User, error) {
	user := new(User)
	if err := db.NewSelect().Model(user).Where(where, arg).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *Impl) GetByIDs(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var users []User
	if err := db.NewSelect().Model(&users).Where("u.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get users by id: %w", err)
	}
	return users, nil
}

func (r *Impl) List(ctx context.Context, db bun.IDB, limit, offset int) ([]User, error) {
	db = r.resolveDB(db)
	var users []User
	q := db.NewSelect().Model(&users).Order("u.username ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *Impl) SetAdmin(ctx context.Context, db bun.IDB, id uuid.UUID, isAdmin bool) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*User)(nil)).
		Set("is_admin = ?", isAdmin).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}
	return requireRow(res)
}

func (r *Impl) Delete(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().Model((*User)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		if bundb.IsForeignKeyViolation(err) {
			return ErrReferenced
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRow(res)
}

func (r *Impl) Count(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
