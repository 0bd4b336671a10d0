package user

import (
	"context"
	"log/slog"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	userservice "github.com/Black-And-White-Club/party-companion/app/modules/user/application"
	userhandlers "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/handlers"
	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the user module.
type Module struct {
	repo     userdb.Repository
	service  *userservice.UserService
	handlers *userhandlers.Handlers
	logger   *slog.Logger
}

// NewModule creates a new user module.
func NewModule(ctx context.Context, obs observability.Observability, db *bun.DB, eventBus eventbus.EventBus) *Module {
	logger := obs.Logger.With("module", "user")
	tracer := obs.Tracer("user")

	logger.InfoContext(ctx, "Initializing user module")

	repo := userdb.NewRepository(db)
	service := userservice.NewUserService(repo, logger, obs.Metrics, tracer, db, eventBus)

	return &Module{
		repo:     repo,
		service:  service,
		handlers: userhandlers.NewHandlers(service, logger, tracer),
		logger:   logger,
	}
}

// RegisterRoutes mounts /api/admin/users.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.Route("/api/admin/users", func(r chi.Router) {
		r.Use(authhandlers.RequireAdmin)
		r.Get("/", m.handlers.HandleListUsers)
		r.Put("/{userID}/admin", m.handlers.HandleSetAdmin)
		r.Delete("/{userID}", m.handlers.HandleDeleteUser)
	})
}

// Repository exposes the user repository to the auth module.
func (m *Module) Repository() userdb.Repository {
	return m.repo
}

// Service exposes the user service to other modules.
func (m *Module) Service() *userservice.UserService {
	return m.service
}
