// Command bun manages the per-module schema migrations and the River job tables.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Black-And-White-Club/party-companion/config"
	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/Black-And-White-Club/party-companion/db/migrations"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:  "bun",
		Usage: "party-companion schema migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "configuration file holding the Postgres DSN"},
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "database migrations",
				Subcommands: []*cli.Command{
					{Name: "init", Usage: "create the bookkeeping tables of every module", Action: withTool(logger, (*tool).initTables)},
					{
						Name:  "up",
						Usage: "apply pending migrations in module order",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "skip-river", Usage: "leave the River job tables alone"},
						},
						Action: withTool(logger, (*tool).up),
					},
					{Name: "rollback", Usage: "roll back the last group of every module, newest module first", Action: withTool(logger, (*tool).rollback)},
					{
						Name:      "new",
						Usage:     "scaffold a migration file for one module",
						ArgsUsage: "<module> <words...>",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "sql", Usage: "write .up.sql/.down.sql files instead of Go"},
						},
						Action: withTool(logger, (*tool).scaffold),
					},
					{Name: "status", Usage: "list applied and pending migrations", Action: withTool(logger, (*tool).status)},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("bun command failed", "error", err)
		os.Exit(1)
	}
}

// tool holds one open connection and the ordered module migrators.
type tool struct {
	logger  *slog.Logger
	dsn     string
	modules []migrations.NamedMigrator
}

func withTool(logger *slog.Logger, run func(*tool, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := bundb.Open(c.Context, cfg.Postgres.DSN, bundb.Options{})
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()
		return run(newTool(logger, cfg.Postgres.DSN, db), c)
	}
}

func newTool(logger *slog.Logger, dsn string, db *bun.DB) *tool {
	return &tool{logger: logger, dsn: dsn, modules: migrations.Migrators(db)}
}

func (t *tool) initTables(c *cli.Context) error {
	for _, m := range t.modules {
		if err := m.Migrator.Init(c.Context); err != nil {
			return fmt.Errorf("init %s: %w", m.Name, err)
		}
		t.logger.Info("Initialized migration tables", "module", m.Name)
	}
	return nil
}

func (t *tool) up(c *cli.Context) error {
	for _, m := range t.modules {
		group, err := m.Migrator.Migrate(c.Context)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", m.Name, err)
		}
		t.logger.Info("Applied migrations", "module", m.Name, "group", group.String(), "noop", group.IsZero())
	}
	if c.Bool("skip-river") {
		return nil
	}
	return migrations.RiverUp(c.Context, t.dsn, t.logger)
}

func (t *tool) rollback(c *cli.Context) error {
	for i := len(t.modules) - 1; i >= 0; i-- {
		m := t.modules[i]
		group, err := m.Migrator.Rollback(c.Context)
		if err != nil {
			return fmt.Errorf("rollback %s: %w", m.Name, err)
		}
		t.logger.Info("Rolled back migrations", "module", m.Name, "group", group.String(), "noop", group.IsZero())
	}
	return nil
}

func (t *tool) scaffold(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: migrate new [--sql] <module> <words...>")
	}
	module := c.Args().First()
	name := strings.Join(c.Args().Tail(), "_")
	for _, m := range t.modules {
		if m.Name != module {
			continue
		}
		if !c.Bool("sql") {
			file, err := m.Migrator.CreateGoMigration(c.Context, name)
			if err != nil {
				return err
			}
			t.logger.Info("Created migration", "module", module, "path", file.Path)
			return nil
		}
		files, err := m.Migrator.CreateSQLMigrations(c.Context, name)
		if err != nil {
			return err
		}
		for _, file := range files {
			t.logger.Info("Created migration", "module", module, "path", file.Path)
		}
		return nil
	}
	return fmt.Errorf("unknown module %q", module)
}

func (t *tool) status(c *cli.Context) error {
	for _, m := range t.modules {
		ms, err := m.Migrator.MigrationsWithStatus(c.Context)
		if err != nil {
			return fmt.Errorf("status %s: %w", m.Name, err)
		}
		fmt.Printf("%s\n  applied:   %s\n  unapplied: %s\n", m.Name, ms.Applied(), ms.Unapplied())
	}
	return nil
}
