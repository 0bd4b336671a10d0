package authhandlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authservice "github.com/Black-And-White-Club/party-companion/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type fakeService struct {
	SignupFunc        func(ctx context.Context, req authservice.SignupRequest) (*authservice.Session, error)
	SigninFunc        func(ctx context.Context, username, password string) (*authservice.Session, error)
	ValidateTokenFunc func(ctx context.Context, token string) (*authdomain.Claims, error)
}

func (f *fakeService) Signup(ctx context.Context, req authservice.SignupRequest) (*authservice.Session, error) {
	return f.SignupFunc(ctx, req)
}

func (f *fakeService) Signin(ctx context.Context, username, password string) (*authservice.Session, error) {
	return f.SigninFunc(ctx, username, password)
}

func (f *fakeService) ValidateToken(ctx context.Context, token string) (*authdomain.Claims, error) {
	return f.ValidateTokenFunc(ctx, token)
}

var _ authservice.Service = (*fakeService)(nil)

type fakeUsers struct {
	GetUserFunc func(ctx context.Context, id uuid.UUID) (*userdomain.User, error)
}

func (f *fakeUsers) GetUser(ctx context.Context, id uuid.UUID) (*userdomain.User, error) {
	return f.GetUserFunc(ctx, id)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandlers(svc *fakeService, users *fakeUsers) *AuthHandlers {
	return NewAuthHandlers(svc, users, discardLogger(), noop.NewTracerProvider().Tracer("test"), true)
}

func sessionFor(username string) *authservice.Session {
	return &authservice.Session{
		Token:     "tok-" + username,
		ExpiresAt: time.Now().Add(time.Hour),
		User:      userdomain.User{ID: uuid.New(), Username: username, DisplayName: username},
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_HandleSignup(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		signupErr  error
		wantStatus int
		wantCookie bool
	}{
		{name: "created", body: `{"username":"alice","password":"longenough"}`, wantStatus: http.StatusCreated, wantCookie: true},
		{name: "invalid username", body: `{"username":"A","password":"longenough"}`, signupErr: userdomain.ErrInvalidUsername, wantStatus: http.StatusBadRequest},
		{name: "taken", body: `{"username":"alice","password":"longenough"}`, signupErr: userdomain.ErrUsernameTaken, wantStatus: http.StatusConflict},
		{name: "malformed body", body: `{"username":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"username":"alice","password":"x","admin":true}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				SignupFunc: func(_ context.Context, req authservice.SignupRequest) (*authservice.Session, error) {
					if tt.signupErr != nil {
						return nil, tt.signupErr
					}
					return sessionFor(req.Username), nil
				},
			}
			h := newHandlers(svc, &fakeUsers{})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.HandleSignup(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			cookie := findCookie(rec, SessionCookie)
			if tt.wantCookie {
				require.NotNil(t, cookie)
				assert.Equal(t, "tok-alice", cookie.Value)
				assert.True(t, cookie.HttpOnly)
				assert.True(t, cookie.Secure)
				assert.NotContains(t, rec.Body.String(), "tok-alice")
			} else {
				assert.Nil(t, cookie)
			}
		})
	}
}

func TestAuthHandlers_HandleSignin(t *testing.T) {
	svc := &fakeService{
		SigninFunc: func(_ context.Context, username, password string) (*authservice.Session, error) {
			if password != "correct-horse" {
				return nil, userdomain.ErrInvalidCredentials
			}
			return sessionFor(username), nil
		},
	}
	h := newHandlers(svc, &fakeUsers{})

	rec := httptest.NewRecorder()
	h.HandleSignin(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"bob","password":"wrong-pass"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleSignin(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"bob","password":"correct-horse"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, findCookie(rec, SessionCookie))
}

func TestAuthHandlers_HandleSignout(t *testing.T) {
	h := newHandlers(&fakeService{}, &fakeUsers{})
	rec := httptest.NewRecorder()
	h.HandleSignout(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookie := findCookie(rec, SessionCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthenticator(t *testing.T) {
	userID := uuid.New()
	svc := &fakeService{
		ValidateTokenFunc: func(_ context.Context, token string) (*authdomain.Claims, error) {
			switch token {
			case "good":
				return &authdomain.Claims{UserID: userID, Username: "alice", Role: authdomain.RolePlayer}, nil
			case "admin":
				return &authdomain.Claims{UserID: userID, Username: "root", Role: authdomain.RoleAdmin}, nil
			case "expired":
				return nil, authservice.ErrExpiredToken
			default:
				return nil, authservice.ErrInvalidToken
			}
		},
	}

	tests := []struct {
		name       string
		guard      func(http.Handler) http.Handler
		cookie     string
		bearer     string
		wantStatus int
	}{
		{name: "anonymous passes open route", guard: nil, wantStatus: http.StatusOK},
		{name: "anonymous rejected by RequireUser", guard: RequireUser, wantStatus: http.StatusUnauthorized},
		{name: "cookie session", guard: RequireUser, cookie: "good", wantStatus: http.StatusOK},
		{name: "bearer session", guard: RequireUser, bearer: "good", wantStatus: http.StatusOK},
		{name: "expired token", guard: nil, cookie: "expired", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", guard: nil, bearer: "junk", wantStatus: http.StatusUnauthorized},
		{name: "player rejected by RequireAdmin", guard: RequireAdmin, cookie: "good", wantStatus: http.StatusForbidden},
		{name: "admin passes RequireAdmin", guard: RequireAdmin, cookie: "admin", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var final http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if claims, ok := ClaimsFromContext(r.Context()); ok {
					assert.Equal(t, userID, ActorFromContext(r.Context()).UserID)
					assert.Equal(t, userID, claims.UserID)
				}
				w.WriteHeader(http.StatusOK)
			})
			if tt.guard != nil {
				final = tt.guard(final)
			}
			handler := Authenticator(svc, discardLogger())(final)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestActorFromContext_Anonymous(t *testing.T) {
	actor := ActorFromContext(context.Background())
	assert.Equal(t, uuid.Nil, actor.UserID)
	assert.False(t, actor.IsAdmin())
}
