package userdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for user persistence.
type Repository interface {
	Create(ctx context.Context, db bun.IDB, user *User) error
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error)
	// GetByIDs returns the users that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]User, error)
	List(ctx context.Context, db bun.IDB, limit, offset int) ([]User, error)
	SetAdmin(ctx context.Context, db bun.IDB, id uuid.UUID, isAdmin bool) error
	Delete(ctx context.Context, db bun.IDB, id uuid.UUID) error
	Count(ctx context.Context, db bun.IDB) (int, error)
}
