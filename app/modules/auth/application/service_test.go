package authservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/jwt"
	authpassword "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/password"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

var testHasher = authpassword.NewArgon2idHasherWithParams(&argon2id.Params{
	Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
})

func newTestService(repo userdb.Repository, admins ...string) Service {
	return NewService(
		authjwt.NewProvider(testSecret, "test"),
		testHasher,
		repo,
		Config{TokenTTL: time.Hour, AdminUsernames: admins},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewNoop(),
		noop.NewTracerProvider().Tracer("test"),
	)
}

func TestService_Signup(t *testing.T) {
	tests := []struct {
		name      string
		req       SignupRequest
		admins    []string
		setupRepo func(*userdb.FakeRepository)
		wantErr   error
		verify    func(t *testing.T, s *Session, created *userdb.User)
	}{
		{
			name: "creates player",
			req:  SignupRequest{Username: " Ada_L ", Password: "password123", DisplayName: "Ada"},
			verify: func(t *testing.T, s *Session, created *userdb.User) {
				assert.Equal(t, "ada_l", created.Username)
				assert.Equal(t, "Ada", created.DisplayName)
				assert.False(t, created.IsAdmin)
				assert.NotEqual(t, "password123", created.PasswordHash)
				assert.NotEmpty(t, s.Token)
				assert.Equal(t, created.ID, s.User.ID)
			},
		},
		{
			name:   "bootstrap admin",
			req:    SignupRequest{Username: "host", Password: "password123"},
			admins: []string{"host"},
			verify: func(t *testing.T, s *Session, created *userdb.User) {
				assert.True(t, created.IsAdmin)
				assert.Equal(t, "host", created.DisplayName)
			},
		},
		{
			name:    "invalid username",
			req:     SignupRequest{Username: "a!", Password: "password123"},
			wantErr: userdomain.ErrInvalidUsername,
		},
		{
			name:    "short password",
			req:     SignupRequest{Username: "ada", Password: "short"},
			wantErr: userdomain.ErrInvalidPassword,
		},
		{
			name: "username taken",
			req:  SignupRequest{Username: "ada", Password: "password123"},
			setupRepo: func(f *userdb.FakeRepository) {
				f.CreateFunc = func(ctx context.Context, db bun.IDB, user *userdb.User) error {
					return userdb.ErrDuplicateUsername
				}
			},
			wantErr: userdomain.ErrUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			var created *userdb.User
			repo.CreateFunc = func(ctx context.Context, db bun.IDB, user *userdb.User) error {
				created = user
				return nil
			}
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}

			session, err := newTestService(repo, tt.admins...).Signup(context.Background(), tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, created)
			tt.verify(t, session, created)
		})
	}
}

func TestService_Signin(t *testing.T) {
	hash, err := testHasher.Hash("password123")
	require.NoError(t, err)
	stored := &userdb.User{ID: uuid.New(), Username: "ada", PasswordHash: hash, DisplayName: "Ada"}

	tests := []struct {
		name      string
		username  string
		password  string
		admins    []string
		found     bool
		wantErr   error
		wantAdmin bool
		wantTrace []string
	}{
		{name: "valid", username: "ADA", password: "password123", found: true, wantTrace: []string{"GetByUsername"}},
		{name: "wrong password", username: "ada", password: "password124", found: true, wantErr: userdomain.ErrInvalidCredentials, wantTrace: []string{"GetByUsername"}},
		{name: "unknown user", username: "bob", password: "password123", wantErr: userdomain.ErrInvalidCredentials, wantTrace: []string{"GetByUsername"}},
		{name: "promoted on signin", username: "ada", password: "password123", admins: []string{"ada"}, found: true, wantAdmin: true, wantTrace: []string{"GetByUsername", "SetAdmin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			repo.GetByUsernameFunc = func(ctx context.Context, db bun.IDB, username string) (*userdb.User, error) {
				if tt.found {
					u := *stored
					return &u, nil
				}
				return nil, userdb.ErrNotFound
			}

			session, err := newTestService(repo, tt.admins...).Signin(context.Background(), tt.username, tt.password)
			assert.Equal(t, tt.wantTrace, repo.Trace())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, stored.ID, session.User.ID)
			assert.Equal(t, tt.wantAdmin, session.User.IsAdmin)
		})
	}
}

func TestService_ValidateToken(t *testing.T) {
	userID := uuid.New()
	provider := authjwt.NewProvider(testSecret, "test")

	valid, err := provider.GenerateToken(&authdomain.Claims{UserID: userID, Username: "ada", Role: authdomain.RolePlayer}, time.Hour)
	require.NoError(t, err)
	expired, err := provider.GenerateToken(&authdomain.Claims{UserID: userID, Role: authdomain.RolePlayer}, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		token    string
		lookup   func(ctx context.Context, db bun.IDB, id uuid.UUID) (*userdb.User, error)
		wantErr  error
		wantRole authdomain.Role
	}{
		{
			name:  "role follows the stored flag",
			token: valid,
			lookup: func(ctx context.Context, db bun.IDB, id uuid.UUID) (*userdb.User, error) {
				return &userdb.User{ID: id, Username: "ada", IsAdmin: true}, nil
			},
			wantRole: authdomain.RoleAdmin,
		},
		{name: "missing", token: "", wantErr: ErrMissingToken},
		{name: "garbage", token: "abc", wantErr: ErrInvalidToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{
			name:    "deleted user",
			token:   valid,
			wantErr: ErrUnknownSessionUser,
		},
		{
			name:  "lookup failure",
			token: valid,
			lookup: func(ctx context.Context, db bun.IDB, id uuid.UUID) (*userdb.User, error) {
				return nil, errors.New("db down")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := userdb.NewFakeRepository()
			repo.GetByIDFunc = tt.lookup

			claims, err := newTestService(repo).ValidateToken(context.Background(), tt.token)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantRole == "":
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, userID, claims.UserID)
				assert.Equal(t, tt.wantRole, claims.Role)
			}
		})
	}
}
