package userdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is a programmable Repository for service and handler tests.
type FakeRepository struct {
	trace []string

	CreateFunc        func(ctx context.Context, db bun.IDB, user *User) error
	GetByIDFunc       func(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error)
	GetByUsernameFunc func(ctx context.Context, db bun.IDB, username string) (*User, error)
	GetByIDsFunc      func(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]User, error)
	ListFunc          func(ctx context.Context, db bun.IDB, limit, offset int) ([]User, error)
	SetAdminFunc      func(ctx context.Context, db bun.IDB, id uuid.UUID, isAdmin bool) error
	DeleteFunc        func(ctx context.Context, db bun.IDB, id uuid.UUID) error
	CountFunc         func(ctx context.Context, db bun.IDB) (int, error)
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) Create(ctx context.Context, db bun.IDB, user *User) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, user)
	}
	return nil
}

func (f *FakeRepository) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*User, error) {
	f.record("GetByID")
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, id)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetByUsername(ctx context.Context, db bun.IDB, username string) (*User, error) {
	f.record("GetByUsername")
	if f.GetByUsernameFunc != nil {
		return f.GetByUsernameFunc(ctx, db, username)
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) GetByIDs(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]User, error) {
	f.record("GetByIDs")
	if f.GetByIDsFunc != nil {
		return f.GetByIDsFunc(ctx, db, ids)
	}
	return nil, nil
}

func (f *FakeRepository) List(ctx context.Context, db bun.IDB, limit, offset int) ([]User, error) {
	f.record("List")
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db, limit, offset)
	}
	return nil, nil
}

func (f *FakeRepository) SetAdmin(ctx context.Context, db bun.IDB, id uuid.UUID, isAdmin bool) error {
	f.record("SetAdmin")
	if f.SetAdminFunc != nil {
		return f.SetAdminFunc(ctx, db, id, isAdmin)
	}
	return nil
}

func (f *FakeRepository) Delete(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	f.record("Delete")
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, db, id)
	}
	return nil
}

func (f *FakeRepository) Count(ctx context.Context, db bun.IDB) (int, error) {
	f.record("Count")
	if f.CountFunc != nil {
		return f.CountFunc(ctx, db)
	}
	return 0, nil
}

// --- Accessors for assertions ---

func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ Repository = (*FakeRepository)(nil)
