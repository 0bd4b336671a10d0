package userservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestService(repo *userdb.FakeRepository) *UserService {
	return NewUserService(
		repo,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
		nil,
		nil,
	)
}

type publishedEvent struct {
	topic string
	msg   *message.Message
}

type fakeEventBus struct {
	mu        sync.Mutex
	published []publishedEvent
}

func (f *fakeEventBus) Publish(_ context.Context, topic string, msg *message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, publishedEvent{topic: topic, msg: msg})
	return nil
}

func (f *fakeEventBus) Subscribe(context.Context, string, eventbus.HandlerFunc) error { return nil }
func (f *fakeEventBus) Close() error                                                  { return nil }

func TestUserService_GetUser(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		setupRepo func(*userdb.FakeRepository)
		wantErr   error
		wantAny   bool
	}{
		{
			name: "found",
			setupRepo: func(f *userdb.FakeRepository) {
				f.GetByIDFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*userdb.User, error) {
					return &userdb.User{ID: got, Username: "ada", DisplayName: "Ada"}, nil
				}
			},
		},
		{
			name:      "not found",
			setupRepo: func(f *userdb.FakeRepository) {},
			wantErr:   userdomain.ErrUserNotFound,
		},
		{
			name: "database error",
			setupRepo: func(f *userdb.FakeRepository) {
				f.GetByIDFunc = func(ctx context.Context, db bun.IDB, got uuid.UUID) (*userdb.User, error) {
					return nil, errors.New("connection refused")
				}
			},
			wantAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			tt.setupRepo(repo)

			user, err := newTestService(repo).GetUser(context.Background(), id)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, userdomain.ErrUserNotFound)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Ada", user.DisplayName)
			}
		})
	}
}

func TestUserService_SetAdmin(t *testing.T) {
	adminID := uuid.New()
	targetID := uuid.New()
	admin := authdomain.Actor{UserID: adminID, Role: authdomain.RoleAdmin}

	tests := []struct {
		name      string
		target    uuid.UUID
		isAdmin   bool
		setupRepo func(*userdb.FakeRepository)
		wantErr   error
		wantTrace []string
	}{
		{
			name:    "promote",
			target:  targetID,
			isAdmin: true,
			setupRepo: func(f *userdb.FakeRepository) {
				f.GetByIDFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) (*userdb.User, error) {
					return &userdb.User{ID: id, Username: "bob", IsAdmin: true}, nil
				}
			},
			wantTrace: []string{"SetAdmin", "GetByID"},
		},
		{
			name:      "self demotion rejected",
			target:    adminID,
			isAdmin:   false,
			setupRepo: func(f *userdb.FakeRepository) {},
			wantErr:   userdomain.ErrSelfModification,
			wantTrace: []string{},
		},
		{
			name:    "unknown user",
			target:  targetID,
			isAdmin: true,
			setupRepo: func(f *userdb.FakeRepository) {
				f.SetAdminFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID, isAdmin bool) error {
					return userdb.ErrNotFound
				}
			},
			wantErr:   userdomain.ErrUserNotFound,
			wantTrace: []string{"SetAdmin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			tt.setupRepo(repo)

			user, err := newTestService(repo).SetAdmin(context.Background(), admin, tt.target, tt.isAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.True(t, user.IsAdmin)
			}
			assert.Equal(t, tt.wantTrace, repo.Trace())
		})
	}
}

func TestUserService_DeleteUser(t *testing.T) {
	adminID := uuid.New()
	admin := authdomain.Actor{UserID: adminID, Role: authdomain.RoleAdmin}

	t.Run("deletes another user", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		err := newTestService(repo).DeleteUser(context.Background(), admin, uuid.New())
		assert.NoError(t, err)
		assert.Equal(t, []string{"Delete"}, repo.Trace())
	})

	t.Run("cannot delete self", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		err := newTestService(repo).DeleteUser(context.Background(), admin, adminID)
		assert.ErrorIs(t, err, userdomain.ErrSelfModification)
		assert.Empty(t, repo.Trace())
	})

	t.Run("missing user", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.DeleteFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) error { return userdb.ErrNotFound }
		err := newTestService(repo).DeleteUser(context.Background(), admin, uuid.New())
		assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
	})

	t.Run("user with game history is kept", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		repo.DeleteFunc = func(ctx context.Context, db bun.IDB, id uuid.UUID) error { return userdb.ErrReferenced }
		bus := &fakeEventBus{}
		svc := newTestService(repo)
		svc.eventBus = bus
		err := svc.DeleteUser(context.Background(), admin, uuid.New())
		assert.ErrorIs(t, err, userdomain.ErrUserHasGameHistory)
		assert.Empty(t, bus.published)
	})

	t.Run("publishes user deleted", func(t *testing.T) {
		repo := userdb.NewFakeRepository()
		bus := &fakeEventBus{}
		svc := newTestService(repo)
		svc.eventBus = bus
		target := uuid.New()
		require.NoError(t, svc.DeleteUser(context.Background(), admin, target))

		require.Len(t, bus.published, 1)
		assert.Equal(t, userdomain.UserDeletedV1, bus.published[0].topic)
		var payload userdomain.UserDeletedPayloadV1
		require.NoError(t, eventbus.Decode(bus.published[0].msg, &payload))
		assert.Equal(t, target, payload.UserID)
	})
}

func TestUserService_DisplayNames(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	repo := userdb.NewFakeRepository()
	repo.GetByIDsFunc = func(ctx context.Context, db bun.IDB, ids []uuid.UUID) ([]userdb.User, error) {
		return []userdb.User{{ID: a, DisplayName: "Ada"}}, nil
	}

	names, err := newTestService(repo).DisplayNames(context.Background(), []uuid.UUID{a, b})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{a: "Ada"}, names)
}
