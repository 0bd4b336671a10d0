package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/jwt"
	authpassword "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/password"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTokenTTL applies when Config.TokenTTL is zero.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Config holds the configuration for the auth service.
type Config struct {
	TokenTTL       time.Duration
	AdminUsernames []string
}

// service implements the Service interface.
type service struct {
	repo        userdb.Repository
	jwtProvider authjwt.Provider
	hasher      authpassword.Hasher
	config      Config
	logger      *slog.Logger
	tracer      trace.Tracer
	telemetry   operation.Telemetry
}

// NewService creates a new auth service.
func NewService(
	jwtProvider authjwt.Provider,
	hasher authpassword.Hasher,
	repo userdb.Repository,
	config Config,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
) Service {
	if config.TokenTTL <= 0 {
		config.TokenTTL = DefaultTokenTTL
	}
	return &service{
		repo:        repo,
		jwtProvider: jwtProvider,
		hasher:      hasher,
		config:      config,
		logger:      logger,
		tracer:      tracer,
		telemetry: operation.Telemetry{
			Service: "AuthService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
	}
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*Session, error) {
	username := userdomain.NormalizeUsername(req.Username)

	return results.Unwrap(operation.Run(s.telemetry, ctx, "Signup", username, func(ctx context.Context) (results.OperationResult[*Session, error], error) {
		if err := userdomain.ValidateUsername(username); err != nil {
			return results.FailureResult[*Session, error](err), nil
		}
		if err := userdomain.ValidatePassword(req.Password); err != nil {
			return results.FailureResult[*Session, error](err), nil
		}
		displayName, err := userdomain.NormalizeDisplayName(req.DisplayName, username)
		if err != nil {
			return results.FailureResult[*Session, error](err), nil
		}

		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return results.OperationResult[*Session, error]{}, err
		}

		user := &userdb.User{
			ID:           uuid.New(),
			Username:     username,
			PasswordHash: hash,
			DisplayName:  displayName,
			IsAdmin:      slices.Contains(s.config.AdminUsernames, username),
		}
		if err := s.repo.Create(ctx, nil, user); err != nil {
			if errors.Is(err, userdb.ErrDuplicateUsername) {
				return results.FailureResult[*Session, error](userdomain.ErrUsernameTaken), nil
			}
			return results.OperationResult[*Session, error]{}, err
		}

		if user.IsAdmin {
			s.logger.InfoContext(ctx, "Bootstrap admin signed up", attr.String("username", username))
		}

		session, err := s.issue(user)
		if err != nil {
			return results.OperationResult[*Session, error]{}, err
		}
		return results.SuccessResult[*Session, error](session), nil
	}))
}

func (s *service) Signin(ctx context.Context, username, password string) (*Session, error) {
	username = userdomain.NormalizeUsername(username)

	return results.Unwrap(operation.Run(s.telemetry, ctx, "Signin", username, func(ctx context.Context) (results.OperationResult[*Session, error], error) {
		user, err := s.repo.GetByUsername(ctx, nil, username)
		if err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[*Session, error](userdomain.ErrInvalidCredentials), nil
			}
			return results.OperationResult[*Session, error]{}, err
		}

		match, err := s.hasher.Verify(password, user.PasswordHash)
		if err != nil {
			return results.OperationResult[*Session, error]{}, err
		}
		if !match {
			return results.FailureResult[*Session, error](userdomain.ErrInvalidCredentials), nil
		}

		// Listed usernames are promoted on signin too, so adding a name to the
		// config works for accounts created before the change.
		if !user.IsAdmin && slices.Contains(s.config.AdminUsernames, username) {
			if err := s.repo.SetAdmin(ctx, nil, user.ID, true); err != nil {
				return results.OperationResult[*Session, error]{}, err
			}
			user.IsAdmin = true
			s.logger.InfoContext(ctx, "Promoted bootstrap admin", attr.String("username", username))
		}

		session, err := s.issue(user)
		if err != nil {
			return results.OperationResult[*Session, error]{}, err
		}
		return results.SuccessResult[*Session, error](session), nil
	}))
}

// ValidateToken checks the signature, then reloads the user so deleted
// accounts and role changes take effect without waiting for token expiry.
func (s *service) ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ValidateToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims, err := s.jwtProvider.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, nil, claims.UserID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return nil, ErrUnknownSessionUser
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}

	claims.Username = user.Username
	claims.Role = authdomain.RoleFor(user.IsAdmin)
	return claims, nil
}

func (s *service) issue(user *userdb.User) (*Session, error) {
	claims := &authdomain.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     authdomain.RoleFor(user.IsAdmin),
	}
	token, err := s.jwtProvider.GenerateToken(claims, s.config.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(s.config.TokenTTL),
		User:      user.ToDomain(),
	}, nil
}
