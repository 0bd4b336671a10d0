package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/party-companion/app"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/Black-And-White-Club/party-companion/db/migrations"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "party-companion",
		Usage: "party games backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			seedCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "migrate",
				Usage:   "apply pending migrations before serving",
				EnvVars: []string{"AUTO_MIGRATE"},
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := bootstrap(ctx, c.String("config"), c.Bool("migrate"))
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					application.Logger.Error("Error during close", "error", err)
				}
			}()

			if err := application.Start(ctx); err != nil {
				return err
			}
			application.Logger.Info("Application shut down gracefully")
			return nil
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "fill the database with fake guests, scores and photos",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Value: 20},
			&cli.IntFlag{Name: "scores", Value: 5, Usage: "scores per user"},
			&cli.IntFlag{Name: "photos", Value: 1, Usage: "photos per user"},
			&cli.Uint64Flag{Name: "seed", Value: 42},
			&cli.StringFlag{Name: "password", Usage: "password for every seeded account"},
		},
		Action: func(c *cli.Context) error {
			application, err := bootstrap(c.Context, c.String("config"), true)
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.Seed(c.Context, app.SeedOptions{
				Users:          c.Int("users"),
				ScoresPerUser:  c.Int("scores"),
				PhotosPerUser:  c.Int("photos"),
				Seed:           c.Uint64("seed"),
				PasswordForAll: c.String("password"),
			})
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d users, %d scores, %d photos\n", res.Users, res.Scores, res.Photos)
			return nil
		},
	}
}

func bootstrap(ctx context.Context, configPath string, migrate bool) (*app.App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	obs := observability.New(observability.Config{
		Environment: cfg.Observability.Environment,
		LogLevel:    cfg.Observability.LogLevel,
		LogFormat:   cfg.Observability.LogFormat,
	}, os.Stdout)

	application, err := app.NewApp(ctx, cfg, obs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	if migrate {
		if err := migrations.Up(ctx, application.DB, cfg.Postgres.DSN, obs.Logger); err != nil {
			application.Close()
			return nil, err
		}
	}
	return application, nil
}
