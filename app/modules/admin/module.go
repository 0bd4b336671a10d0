package admin

import (
	"context"
	"log/slog"

	adminservice "github.com/Black-And-White-Club/party-companion/app/modules/admin/application"
	adminhandlers "github.com/Black-And-White-Club/party-companion/app/modules/admin/infrastructure/handlers"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/go-chi/chi/v5"
)

// Module represents the admin dashboard module.
type Module struct {
	service  *adminservice.AdminService
	handlers *adminhandlers.Handlers
	logger   *slog.Logger
}

// NewModule wires the dashboard over the other modules' services.
func NewModule(ctx context.Context, obs observability.Observability, sources adminservice.Sources) *Module {
	logger := obs.Logger.With("module", "admin")
	tracer := obs.Tracer("admin")

	logger.InfoContext(ctx, "Initializing admin module")

	service := adminservice.NewAdminService(sources, logger, obs.Metrics, tracer)
	return &Module{
		service:  service,
		handlers: adminhandlers.NewHandlers(service, logger, tracer),
		logger:   logger,
	}
}

// RegisterRoutes mounts /api/admin/overview and /api/admin/export.xlsx.
func (m *Module) RegisterRoutes(r chi.Router) {
	adminhandlers.RegisterRoutes(r, m.handlers)
}
