// Package migrations runs every module's schema migrations in dependency order.
package migrations

import (
	"context"
	"fmt"
	"log/slog"

	icebreakermigrations "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/infrastructure/repositories/migrations"
	molkkymigrations "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/repositories/migrations"
	photomigrations "github.com/Black-And-White-Club/party-companion/app/modules/photo/infrastructure/repositories/migrations"
	scoremigrations "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/repositories/migrations"
	usermigrations "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Module is one module's migration set.
type Module struct {
	Name       string
	Migrations *migrate.Migrations
}

// Modules lists migration sets in foreign key order: users first.
func Modules() []Module {
	return []Module{
		{Name: "user", Migrations: usermigrations.Migrations},
		{Name: "molkky", Migrations: molkkymigrations.Migrations},
		{Name: "icebreaker", Migrations: icebreakermigrations.Migrations},
		{Name: "score", Migrations: scoremigrations.Migrations},
		{Name: "photo", Migrations: photomigrations.Migrations},
	}
}

// NamedMigrator pairs a module name with its migrator.
type NamedMigrator struct {
	Name     string
	Migrator *migrate.Migrator
}

// Migrators builds one migrator per module. Each module tracks its history in
// its own table because migration names are only unique within a module.
func Migrators(db *bun.DB) []NamedMigrator {
	mods := Modules()
	out := make([]NamedMigrator, 0, len(mods))
	for _, m := range mods {
		out = append(out, NamedMigrator{
			Name: m.Name,
			Migrator: migrate.NewMigrator(db, m.Migrations,
				migrate.WithTableName("bun_migrations_"+m.Name),
				migrate.WithLocksTableName("bun_migration_locks_"+m.Name),
			),
		})
	}
	return out
}

// Up creates the migration tables if needed and applies every pending
// migration. When dsn is set the River queue schema is migrated too.
func Up(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to init %s migrations: %w", m.Name, err)
		}
		group, err := m.Migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", m.Name, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", "module", m.Name)
		} else {
			logger.InfoContext(ctx, "Migrated module", "module", m.Name, "group", group.String())
		}
	}

	if dsn == "" {
		return nil
	}
	return RiverUp(ctx, dsn, logger)
}

// RiverUp migrates the River job tables used by the stale lobby sweeper.
func RiverUp(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	logger.InfoContext(ctx, "River migrations applied", "versions", len(res.Versions))
	return nil
}
