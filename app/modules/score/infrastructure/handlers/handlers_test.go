package scorehandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	scoreservice "github.com/Black-And-White-Club/party-companion/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeService struct {
	scoreservice.Service
	SubmitScoreFunc func(ctx context.Context, actor authdomain.Actor, slug string, value int64) (*scoredomain.Score, error)
	LeaderboardFunc func(ctx context.Context, slug string, limit int) (*scoredomain.Leaderboard, error)
	MyScoresFunc    func(ctx context.Context, actor authdomain.Actor, slug string, limit int) ([]scoredomain.Score, error)
	DeleteScoreFunc func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeService) ListGames(context.Context) []scoredomain.MiniGame {
	return []scoredomain.MiniGame{{Slug: "quiz", Name: "Party Quiz", RankingMode: scoredomain.RankingMax, MaxValue: 100}}
}

func (f *fakeService) SubmitScore(ctx context.Context, actor authdomain.Actor, slug string, value int64) (*scoredomain.Score, error) {
	return f.SubmitScoreFunc(ctx, actor, slug, value)
}

func (f *fakeService) Leaderboard(ctx context.Context, slug string, limit int) (*scoredomain.Leaderboard, error) {
	return f.LeaderboardFunc(ctx, slug, limit)
}

func (f *fakeService) MyScores(ctx context.Context, actor authdomain.Actor, slug string, limit int) ([]scoredomain.Score, error) {
	return f.MyScoresFunc(ctx, actor, slug, limit)
}

func (f *fakeService) DeleteScore(ctx context.Context, id uuid.UUID) error {
	return f.DeleteScoreFunc(ctx, id)
}

func newRouter(svc *fakeService, as *authdomain.Actor) http.Handler {
	h := NewHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), noop.NewTracerProvider().Tracer("test"))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if as != nil {
				req = req.WithContext(authhandlers.WithClaims(req.Context(), &authdomain.Claims{UserID: as.UserID, Role: as.Role}))
			}
			next.ServeHTTP(w, req)
		})
	})
	RegisterRoutes(r, h)
	return r
}

func TestHandleSubmitScore(t *testing.T) {
	user := &authdomain.Actor{UserID: uuid.New(), Role: authdomain.RolePlayer}

	tests := []struct {
		name     string
		as       *authdomain.Actor
		body     string
		svcErr   error
		wantCode int
	}{
		{name: "created", as: user, body: `{"value":42}`, wantCode: http.StatusCreated},
		{name: "anonymous", body: `{"value":42}`, wantCode: http.StatusUnauthorized},
		{name: "missing value", as: user, body: `{}`, wantCode: http.StatusBadRequest},
		{name: "unknown field", as: user, body: `{"value":1,"bonus":2}`, wantCode: http.StatusBadRequest},
		{name: "out of range", as: user, body: `{"value":1000}`, svcErr: scoredomain.ErrInvalidValue, wantCode: http.StatusBadRequest},
		{name: "unknown game", as: user, body: `{"value":1}`, svcErr: scoredomain.ErrUnknownGame, wantCode: http.StatusNotFound},
		{name: "store failure", as: user, body: `{"value":1}`, svcErr: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSlug string
			var gotValue int64
			svc := &fakeService{
				SubmitScoreFunc: func(_ context.Context, actor authdomain.Actor, slug string, value int64) (*scoredomain.Score, error) {
					gotSlug, gotValue = slug, value
					if tt.svcErr != nil {
						return nil, tt.svcErr
					}
					return &scoredomain.Score{ID: uuid.New(), GameSlug: slug, UserID: actor.UserID, Value: value}, nil
				},
			}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/scores/games/quiz", strings.NewReader(tt.body))
			newRouter(svc, tt.as).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode == http.StatusCreated {
				assert.Equal(t, "quiz", gotSlug)
				assert.Equal(t, int64(42), gotValue)
			}
		})
	}
}

func TestHandleLeaderboard(t *testing.T) {
	var gotLimit int
	svc := &fakeService{
		LeaderboardFunc: func(_ context.Context, slug string, limit int) (*scoredomain.Leaderboard, error) {
			gotLimit = limit
			if slug != "quiz" {
				return nil, scoredomain.ErrUnknownGame
			}
			return &scoredomain.Leaderboard{
				Game:    scoredomain.MiniGame{Slug: "quiz"},
				Entries: []scoredomain.LeaderboardEntry{{Rank: 1, UserID: uuid.New(), Value: 90}},
			}, nil
		},
	}
	router := newRouter(svc, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores/games/quiz/leaderboard?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)

	var board scoredomain.Leaderboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	assert.Len(t, board.Entries, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores/games/darts/leaderboard", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores/games", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rankingMode":"max"`)
}

func TestHandleMyScores(t *testing.T) {
	user := &authdomain.Actor{UserID: uuid.New(), Role: authdomain.RolePlayer}
	var gotGame string
	svc := &fakeService{
		MyScoresFunc: func(_ context.Context, actor authdomain.Actor, slug string, _ int) ([]scoredomain.Score, error) {
			gotGame = slug
			return []scoredomain.Score{{UserID: actor.UserID, GameSlug: "quiz", Value: 3}}, nil
		},
	}
	rec := httptest.NewRecorder()
	newRouter(svc, user).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores/me?game=quiz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quiz", gotGame)
}

func TestAdminDeleteScore(t *testing.T) {
	admin := &authdomain.Actor{UserID: uuid.New(), Role: authdomain.RoleAdmin}
	player := &authdomain.Actor{UserID: uuid.New(), Role: authdomain.RolePlayer}
	existing := uuid.New()
	svc := &fakeService{
		DeleteScoreFunc: func(_ context.Context, id uuid.UUID) error {
			if id != existing {
				return scoredomain.ErrScoreNotFound
			}
			return nil
		},
	}

	tests := []struct {
		name     string
		as       *authdomain.Actor
		path     string
		wantCode int
	}{
		{name: "deleted", as: admin, path: "/api/admin/scores/" + existing.String(), wantCode: http.StatusNoContent},
		{name: "missing", as: admin, path: "/api/admin/scores/" + uuid.NewString(), wantCode: http.StatusNotFound},
		{name: "bad id", as: admin, path: "/api/admin/scores/abc", wantCode: http.StatusBadRequest},
		{name: "player", as: player, path: "/api/admin/scores/" + existing.String(), wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newRouter(svc, tt.as).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}
