package scoremigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating scores table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS scores (
					id UUID PRIMARY KEY,
					game_slug VARCHAR(64) NOT NULL,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					value BIGINT NOT NULL CHECK (value >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create scores table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_scores_game_user ON scores (game_slug, user_id);
				CREATE INDEX IF NOT EXISTS idx_scores_user_created ON scores (user_id, created_at DESC);
			`); err != nil {
				return fmt.Errorf("failed to create score indexes: %w", err)
			}

			fmt.Println("Scores table created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping scores table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS scores;`); err != nil {
			return fmt.Errorf("failed to drop scores table: %w", err)
		}
		return nil
	})
}
