package adminhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	admindomain "github.com/Black-And-White-Club/party-companion/app/modules/admin/domain"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeService struct {
	OverviewFunc func(ctx context.Context) (*admindomain.Overview, error)
	ExportFunc   func(ctx context.Context) ([]byte, error)
}

func (f *fakeService) Overview(ctx context.Context) (*admindomain.Overview, error) {
	return f.OverviewFunc(ctx)
}

func (f *fakeService) Export(ctx context.Context) ([]byte, error) { return f.ExportFunc(ctx) }

func newRouter(svc *fakeService, role *authdomain.Role) http.Handler {
	h := NewHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if role != nil {
				req = req.WithContext(authhandlers.WithClaims(req.Context(), &authdomain.Claims{UserID: uuid.New(), Role: *role}))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, h)
	return r
}

func TestHandleOverview(t *testing.T) {
	admin, player := authdomain.RoleAdmin, authdomain.RolePlayer

	tests := []struct {
		name     string
		role     *authdomain.Role
		svcErr   error
		wantCode int
	}{
		{name: "admin", role: &admin, wantCode: http.StatusOK},
		{name: "player", role: &player, wantCode: http.StatusForbidden},
		{name: "anonymous", wantCode: http.StatusUnauthorized},
		{name: "failure", role: &admin, svcErr: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{OverviewFunc: func(context.Context) (*admindomain.Overview, error) {
				if tt.svcErr != nil {
					return nil, tt.svcErr
				}
				return &admindomain.Overview{Users: 7, MolkkyGames: map[string]int{"ongoing": 1}}, nil
			}}
			rec := httptest.NewRecorder()
			newRouter(svc, tt.role).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/overview", nil))
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var got admindomain.Overview
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, 7, got.Users)
			}
		})
	}
}

func TestHandleExport(t *testing.T) {
	admin := authdomain.RoleAdmin
	svc := &fakeService{ExportFunc: func(context.Context) ([]byte, error) { return []byte("PK\x03\x04"), nil }}

	rec := httptest.NewRecorder()
	newRouter(svc, &admin).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/export.xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "party-export.xlsx")
	assert.Equal(t, "PK\x03\x04", rec.Body.String())
}
