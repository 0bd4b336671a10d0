package icebreaker

import (
	"context"
	"fmt"
	"log/slog"

	icebreakerservice "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/application"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	icebreakerhandlers "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/handlers"
	icebreakerdb "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/repositories"
	icebreakertoggle "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/toggle"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module represents the icebreaker module.
type Module struct {
	service  *icebreakerservice.IcebreakerService
	handlers *icebreakerhandlers.Handlers
	logger   *slog.Logger
}

// NewModule loads the card pool and picks the toggle store from config.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	users icebreakerservice.UserDirectory,
) (*Module, error) {
	logger := obs.Logger.With("module", "icebreaker")
	tracer := obs.Tracer("icebreaker")

	logger.InfoContext(ctx, "Initializing icebreaker module")

	deck, err := icebreakerdomain.LoadDeck(cfg.Icebreaker.CardsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load icebreaker cards: %w", err)
	}

	repo := icebreakerdb.NewRepository(db)

	var toggle icebreakertoggle.Store
	switch cfg.Icebreaker.ToggleStore {
	case config.ToggleStoreMemory:
		toggle = icebreakertoggle.NewMemoryStore(cfg.Icebreaker.DefaultEnabled)
	default:
		toggle = icebreakertoggle.NewDBStore(repo, cfg.Icebreaker.DefaultEnabled)
	}

	source := cfg.Icebreaker.CardsFile
	if source == "" {
		source = "embedded"
	}
	logger.InfoContext(ctx, "Icebreaker card pool loaded",
		attr.Int("cards", deck.Size()),
		attr.String("source", source),
		attr.String("toggle_store", cfg.Icebreaker.ToggleStore),
		attr.Bool("toggle_persistent", toggle.Persistent()),
		attr.Bool("default_enabled", cfg.Icebreaker.DefaultEnabled),
	)
	if !toggle.Persistent() {
		logger.WarnContext(ctx, "Icebreaker toggle resets to its default on restart")
	}

	service := icebreakerservice.NewIcebreakerService(repo, deck, toggle, users, logger, obs.Metrics, tracer, db)

	return &Module{
		service:  service,
		handlers: icebreakerhandlers.NewHandlers(service, logger, tracer),
		logger:   logger,
	}, nil
}

// RegisterRoutes mounts the icebreaker routes.
func (m *Module) RegisterRoutes(r chi.Router) {
	icebreakerhandlers.RegisterRoutes(r, m.handlers)
}

// Service exposes the icebreaker service to the admin module.
func (m *Module) Service() *icebreakerservice.IcebreakerService {
	return m.service
}
