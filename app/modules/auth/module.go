package auth

import (
	"context"
	"log/slog"
	"net/http"

	authservice "github.com/Black-And-White-Club/party-companion/app/modules/auth/application"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/jwt"
	authpassword "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/password"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/go-chi/chi/v5"
)

// tokenIssuer is the iss claim on every session token.
const tokenIssuer = "party-companion"

// Module represents the auth module.
type Module struct {
	config   *config.Config
	service  authservice.Service
	handlers *authhandlers.AuthHandlers
	limiter  *authhandlers.IPRateLimiter
	logger   *slog.Logger
}

// NewModule creates a new auth module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	userRepo userdb.Repository,
	users authhandlers.UserLookup,
) *Module {
	logger := obs.Logger.With("module", "auth")
	tracer := obs.Tracer("auth")

	logger.InfoContext(ctx, "Initializing auth module")

	service := authservice.NewService(
		authjwt.NewProvider(cfg.JWT.Secret, tokenIssuer),
		authpassword.NewArgon2idHasher(),
		userRepo,
		authservice.Config{
			TokenTTL:       cfg.JWT.DefaultTTL,
			AdminUsernames: cfg.Auth.AdminUsernames,
		},
		logger,
		obs.Metrics,
		tracer,
	)

	return &Module{
		config:   cfg,
		service:  service,
		handlers: authhandlers.NewAuthHandlers(service, users, logger, tracer, cfg.Auth.SecureCookies),
		limiter:  authhandlers.NewIPRateLimiter(5, 10),
		logger:   logger,
	}
}

// Middleware resolves the session on every request. Mount it before any route.
func (m *Module) Middleware() func(http.Handler) http.Handler {
	return authhandlers.Authenticator(m.service, m.logger)
}

// RegisterRoutes mounts /api/auth.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authhandlers.RateLimitMiddleware(m.limiter))
			r.Post("/signup", m.handlers.HandleSignup)
			r.Post("/signin", m.handlers.HandleSignin)
		})
		r.Post("/signout", m.handlers.HandleSignout)
		r.With(authhandlers.RequireUser).Get("/me", m.handlers.HandleMe)
	})
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}
