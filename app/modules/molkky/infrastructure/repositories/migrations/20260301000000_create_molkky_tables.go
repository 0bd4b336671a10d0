package molkkymigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating molkky tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS molkky_games (
					id UUID PRIMARY KEY,
					status VARCHAR(16) NOT NULL DEFAULT 'waiting'
						CHECK (status IN ('waiting', 'ongoing', 'completed', 'cancelled')),
					creator_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
					winner_id UUID REFERENCES users(id) ON DELETE RESTRICT,
					last_sequence INTEGER NOT NULL DEFAULT 0 CHECK (last_sequence >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					started_at TIMESTAMPTZ,
					ended_at TIMESTAMPTZ
				);
				CREATE INDEX IF NOT EXISTS idx_molkky_games_status_created ON molkky_games(status, created_at);
			`); err != nil {
				return fmt.Errorf("failed to create molkky_games table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS molkky_players (
					id UUID PRIMARY KEY,
					game_id UUID NOT NULL REFERENCES molkky_games(id) ON DELETE CASCADE,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
					seat INTEGER NOT NULL,
					score INTEGER NOT NULL DEFAULT 0 CHECK (score BETWEEN 0 AND 50),
					miss_count INTEGER NOT NULL DEFAULT 0 CHECK (miss_count BETWEEN 0 AND 3),
					eliminated BOOLEAN NOT NULL DEFAULT FALSE,
					joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (game_id, user_id),
					UNIQUE (game_id, seat)
				);
			`); err != nil {
				return fmt.Errorf("failed to create molkky_players table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS molkky_throws (
					id UUID PRIMARY KEY,
					game_id UUID NOT NULL REFERENCES molkky_games(id) ON DELETE CASCADE,
					player_id UUID NOT NULL REFERENCES molkky_players(id) ON DELETE RESTRICT,
					sequence INTEGER NOT NULL CHECK (sequence >= 1),
					pins_hit INTEGER NOT NULL CHECK (pins_hit BETWEEN 0 AND 12),
					pin_number INTEGER CHECK (pin_number BETWEEN 1 AND 12),
					points INTEGER NOT NULL,
					score_before INTEGER NOT NULL,
					score_after INTEGER NOT NULL CHECK (score_after BETWEEN 0 AND 50),
					is_miss BOOLEAN NOT NULL,
					is_penalty BOOLEAN NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT molkky_throws_game_sequence_key UNIQUE (game_id, sequence)
				);
			`); err != nil {
				return fmt.Errorf("failed to create molkky_throws table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping molkky tables...")
		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS molkky_throws;
			DROP TABLE IF EXISTS molkky_players;
			DROP TABLE IF EXISTS molkky_games;
		`)
		return err
	})
}
