package userhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	userservice "github.com/Black-And-White-Club/party-companion/app/modules/user/application"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeService struct {
	userservice.Service
	ListUsersFunc  func(ctx context.Context, limit, offset int) ([]userdomain.User, error)
	CountUsersFunc func(ctx context.Context) (int, error)
	SetAdminFunc   func(ctx context.Context, actor authdomain.Actor, id uuid.UUID, isAdmin bool) (*userdomain.User, error)
	DeleteUserFunc func(ctx context.Context, actor authdomain.Actor, id uuid.UUID) error
}

func (f *fakeService) ListUsers(ctx context.Context, limit, offset int) ([]userdomain.User, error) {
	return f.ListUsersFunc(ctx, limit, offset)
}

func (f *fakeService) CountUsers(ctx context.Context) (int, error) {
	return f.CountUsersFunc(ctx)
}

func (f *fakeService) SetAdmin(ctx context.Context, actor authdomain.Actor, id uuid.UUID, isAdmin bool) (*userdomain.User, error) {
	return f.SetAdminFunc(ctx, actor, id, isAdmin)
}

func (f *fakeService) DeleteUser(ctx context.Context, actor authdomain.Actor, id uuid.UUID) error {
	return f.DeleteUserFunc(ctx, actor, id)
}

func newRouter(svc *fakeService, admin authdomain.Actor) http.Handler {
	h := NewHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claims := &authdomain.Claims{UserID: admin.UserID, Role: admin.Role}
			next.ServeHTTP(w, req.WithContext(authhandlers.WithClaims(req.Context(), claims)))
		})
	})
	r.Get("/users", h.HandleListUsers)
	r.Put("/users/{userID}/admin", h.HandleSetAdmin)
	r.Delete("/users/{userID}", h.HandleDeleteUser)
	return r
}

func TestHandlers_HandleListUsers(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &fakeService{
		ListUsersFunc: func(_ context.Context, limit, offset int) ([]userdomain.User, error) {
			gotLimit, gotOffset = limit, offset
			return []userdomain.User{{ID: uuid.New(), Username: "alice"}}, nil
		},
		CountUsersFunc: func(context.Context) (int, error) { return 7, nil },
	}
	router := newRouter(svc, authdomain.Actor{UserID: uuid.New(), Role: authdomain.RoleAdmin})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users?limit=1000&offset=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxPageSize, gotLimit)
	assert.Equal(t, 10, gotOffset)

	var body userList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 7, body.Total)
	assert.Len(t, body.Users, 1)
}

func TestHandlers_HandleSetAdmin(t *testing.T) {
	adminID := uuid.New()
	targetID := uuid.New()

	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "promoted", path: "/users/" + targetID.String() + "/admin", body: `{"isAdmin":true}`, wantStatus: http.StatusOK},
		{name: "bad id", path: "/users/nope/admin", body: `{"isAdmin":true}`, wantStatus: http.StatusBadRequest},
		{name: "unknown user", path: "/users/" + targetID.String() + "/admin", body: `{"isAdmin":true}`, err: userdomain.ErrUserNotFound, wantStatus: http.StatusNotFound},
		{name: "self demotion", path: "/users/" + adminID.String() + "/admin", body: `{"isAdmin":false}`, err: userdomain.ErrSelfModification, wantStatus: http.StatusBadRequest},
		{name: "storage failure", path: "/users/" + targetID.String() + "/admin", body: `{"isAdmin":true}`, err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				SetAdminFunc: func(_ context.Context, actor authdomain.Actor, id uuid.UUID, isAdmin bool) (*userdomain.User, error) {
					assert.Equal(t, adminID, actor.UserID)
					if tt.err != nil {
						return nil, tt.err
					}
					return &userdomain.User{ID: id, IsAdmin: isAdmin}, nil
				},
			}
			router := newRouter(svc, authdomain.Actor{UserID: adminID, Role: authdomain.RoleAdmin})

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "boom")
			}
		})
	}
}

func TestHandlers_HandleDeleteUser(t *testing.T) {
	var deleted uuid.UUID
	svc := &fakeService{
		DeleteUserFunc: func(_ context.Context, _ authdomain.Actor, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}
	router := newRouter(svc, authdomain.Actor{UserID: uuid.New(), Role: authdomain.RoleAdmin})

	target := uuid.New()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+target.String(), nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, target, deleted)
}

func TestHandlers_HandleDeleteUser_GameHistory(t *testing.T) {
	svc := &fakeService{
		DeleteUserFunc: func(context.Context, authdomain.Actor, uuid.UUID) error {
			return userdomain.ErrUserHasGameHistory
		},
	}
	router := newRouter(svc, authdomain.Actor{UserID: uuid.New(), Role: authdomain.RoleAdmin})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+uuid.New().String(), nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "game history")
}
