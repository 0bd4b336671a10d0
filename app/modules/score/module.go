package score

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	scoreservice "github.com/Black-And-White-Club/party-companion/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	scorecache "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/cache"
	scorehandlers "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/handlers"
	scoredb "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/repositories"
	scoresubscribers "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/subscribers"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// Module represents the score module.
type Module struct {
	service     *scoreservice.ScoreService
	handlers    *scorehandlers.Handlers
	subscribers *scoresubscribers.Subscribers
	logger      *slog.Logger
}

// NewModule creates the score module. A nil rdb serves leaderboards straight
// from the database.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	db *bun.DB,
	eventBus eventbus.EventBus,
	rdb *redis.Client,
	users scoreservice.UserDirectory,
) (*Module, error) {
	logger := obs.Logger.With("module", "score")
	tracer := obs.Tracer("score")

	logger.InfoContext(ctx, "Initializing score module")

	games := make([]scoredomain.MiniGame, 0, len(cfg.MiniGames))
	for _, g := range cfg.MiniGames {
		games = append(games, scoredomain.MiniGame{
			Slug:        g.Slug,
			Name:        g.Name,
			RankingMode: scoredomain.RankingMode(g.RankingMode),
			MaxValue:    g.MaxValue,
		})
	}
	catalogue, err := scoredomain.NewCatalogue(games)
	if err != nil {
		return nil, fmt.Errorf("failed to build mini-game catalogue: %w", err)
	}

	var cache scorecache.Cache = scorecache.NoopCache{}
	if rdb != nil {
		cache = scorecache.NewRedisCache(rdb, cfg.Redis.TTL)
	} else {
		logger.InfoContext(ctx, "Redis not configured, leaderboards are served from the database")
	}

	service := scoreservice.NewScoreService(scoredb.NewRepository(db), cache, catalogue, users, logger, obs.Metrics, tracer)

	return &Module{
		service:     service,
		handlers:    scorehandlers.NewHandlers(service, logger, tracer),
		subscribers: scoresubscribers.NewSubscribers(eventBus, service, logger),
		logger:      logger,
	}, nil
}

// RegisterRoutes mounts the score routes.
func (m *Module) RegisterRoutes(r chi.Router) {
	scorehandlers.RegisterRoutes(r, m.handlers)
}

// Run subscribes to the events that credit scores.
func (m *Module) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting score module")
	return m.subscribers.Subscribe(ctx)
}

// Service exposes the score service to the admin module.
func (m *Module) Service() *scoreservice.ScoreService {
	return m.service
}
