package photo

import (
	"context"
	"log/slog"

	photoservice "github.com/Black-And-White-Club/party-companion/app/modules/photo/application"
	photohandlers "github.com/Black-And-White-Club/party-companion/app/modules/photo/infrastructure/handlers"
	photodb "github.com/Black-And-White-Club/party-companion/app/modules/photo/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the photo feed module.
type Module struct {
	service  *photoservice.PhotoService
	handlers *photohandlers.Handlers
	logger   *slog.Logger
}

// NewModule wires the photo repository, service and handlers.
func NewModule(
	ctx context.Context,
	obs observability.Observability,
	db *bun.DB,
	users photoservice.UserDirectory,
) (*Module, error) {
	logger := obs.Logger.With("module", "photo")
	tracer := obs.Tracer("photo")

	logger.InfoContext(ctx, "Initializing photo module")

	service := photoservice.NewPhotoService(photodb.NewRepository(db), users, logger, obs.Metrics, tracer)

	return &Module{
		service:  service,
		handlers: photohandlers.NewHandlers(service, logger, tracer),
		logger:   logger,
	}, nil
}

// RegisterRoutes mounts the photo routes.
func (m *Module) RegisterRoutes(r chi.Router) {
	photohandlers.RegisterRoutes(r, m.handlers)
}

// Service exposes the photo service to the admin module.
func (m *Module) Service() *photoservice.PhotoService {
	return m.service
}
