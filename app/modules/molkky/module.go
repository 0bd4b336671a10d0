package molkky

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	molkkyservice "github.com/Black-And-White-Club/party-companion/app/modules/molkky/application"
	molkkyhandlers "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/handlers"
	molkkyqueue "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/queue"
	molkkydb "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the Mölkky module.
type Module struct {
	service      *molkkyservice.MolkkyService
	handlers     *molkkyhandlers.Handlers
	queue        *molkkyqueue.Service
	throwLimiter *authhandlers.IPRateLimiter
	logger       *slog.Logger
}

// NewModule creates a new Mölkky module. The stale lobby sweeper is only
// started when enabled in config.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	users molkkyservice.UserDirectory,
) (*Module, error) {
	logger := obs.Logger.With("module", "molkky")
	tracer := obs.Tracer("molkky")

	logger.InfoContext(ctx, "Initializing molkky module")

	service := molkkyservice.NewMolkkyService(
		molkkydb.NewRepository(db),
		users,
		eventBus,
		logger,
		obs.Metrics,
		observability.NewThrowMetrics(obs.Registry),
		tracer,
		db,
	)

	m := &Module{
		service:      service,
		handlers:     molkkyhandlers.NewHandlers(service, logger, tracer),
		throwLimiter: authhandlers.NewIPRateLimiter(10, 20),
		logger:       logger,
	}

	if cfg.Molkky.SweeperEnabled {
		queue, err := molkkyqueue.NewService(ctx, cfg.Postgres.DSN, molkkyqueue.Config{
			StaleLobbyTTL: cfg.Molkky.StaleLobbyTTL,
			SweepInterval: cfg.Molkky.SweepInterval,
		}, service, logger, obs.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create molkky queue: %w", err)
		}
		m.queue = queue
	} else {
		logger.InfoContext(ctx, "Stale lobby sweeper disabled")
	}

	return m, nil
}

// RegisterRoutes mounts the Mölkky routes.
func (m *Module) RegisterRoutes(r chi.Router) {
	molkkyhandlers.RegisterRoutes(r, m.handlers, m.throwLimiter)
}

// Run starts background jobs.
func (m *Module) Run(ctx context.Context) error {
	if m.queue == nil {
		return nil
	}
	return m.queue.Start(ctx)
}

// Close stops background jobs.
func (m *Module) Close(ctx context.Context) error {
	if m.queue == nil {
		return nil
	}
	return m.queue.Stop(ctx)
}

// Service exposes the Mölkky service to the admin module.
func (m *Module) Service() *molkkyservice.MolkkyService {
	return m.service
}
