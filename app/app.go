package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	"github.com/Black-And-White-Club/party-companion/app/modules/admin"
	adminservice "github.com/Black-And-White-Club/party-companion/app/modules/admin/application"
	"github.com/Black-And-White-Club/party-companion/app/modules/auth"
	"github.com/Black-And-White-Club/party-companion/app/modules/icebreaker"
	"github.com/Black-And-White-Club/party-companion/app/modules/molkky"
	"github.com/Black-And-White-Club/party-companion/app/modules/photo"
	"github.com/Black-And-White-Club/party-companion/app/modules/score"
	"github.com/Black-And-White-Club/party-companion/app/modules/user"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// App holds the shared infrastructure and every module.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	Logger        *slog.Logger
	DB            *bun.DB
	Redis         *redis.Client
	EventBus      eventbus.EventBus
	Modules       *Modules
}

// Modules groups the feature modules.
type Modules struct {
	User       *user.Module
	Auth       *auth.Module
	Molkky     *molkky.Module
	Score      *score.Module
	Icebreaker *icebreaker.Module
	Photo      *photo.Module
	Admin      *admin.Module
}

// NewApp connects to PostgreSQL and Redis and builds every module.
func NewApp(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	app := &App{
		Config:        cfg,
		Observability: obs,
		Logger:        obs.Logger,
	}

	db, err := bundb.Open(ctx, cfg.Postgres.DSN, bundb.Options{
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			app.Logger.WarnContext(ctx, "Redis unavailable, leaderboards will be served from PostgreSQL",
				attr.String("addr", cfg.Redis.Addr),
				attr.Error(err),
			)
		}
		app.Redis = rdb
	} else {
		app.Logger.InfoContext(ctx, "Redis not configured, leaderboard cache disabled")
	}

	app.EventBus = eventbus.NewEventBus(obs.Logger.With("component", "eventbus"))

	if err := app.initializeModules(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) initializeModules(ctx context.Context) error {
	cfg, obs := app.Config, app.Observability

	userModule := user.NewModule(ctx, obs, app.DB, app.EventBus)
	users := userModule.Service()

	authModule := auth.NewModule(ctx, cfg, obs, userModule.Repository(), users)

	molkkyModule, err := molkky.NewModule(ctx, cfg, obs, app.DB, app.EventBus, users)
	if err != nil {
		return fmt.Errorf("failed to initialize molkky module: %w", err)
	}

	scoreModule, err := score.NewModule(ctx, cfg, obs, app.DB, app.EventBus, app.Redis, users)
	if err != nil {
		return fmt.Errorf("failed to initialize score module: %w", err)
	}

	icebreakerModule, err := icebreaker.NewModule(ctx, cfg, obs, app.DB, users)
	if err != nil {
		return fmt.Errorf("failed to initialize icebreaker module: %w", err)
	}

	photoModule, err := photo.NewModule(ctx, obs, app.DB, users)
	if err != nil {
		return fmt.Errorf("failed to initialize photo module: %w", err)
	}

	adminModule := admin.NewModule(ctx, obs, adminservice.Sources{
		Users:      users,
		Scores:     scoreModule.Service(),
		Photos:     photoModule.Service(),
		Molkky:     molkkyModule.Service(),
		Icebreaker: icebreakerModule.Service(),
	})

	app.Modules = &Modules{
		User:       userModule,
		Auth:       authModule,
		Molkky:     molkkyModule,
		Score:      scoreModule,
		Icebreaker: icebreakerModule,
		Photo:      photoModule,
		Admin:      adminModule,
	}
	return nil
}

// Close releases the event bus, Redis and database handles.
func (app *App) Close() error {
	var errs []error
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event bus: %w", err))
		}
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
