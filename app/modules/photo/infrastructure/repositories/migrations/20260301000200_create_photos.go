package photomigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating photos and photo_likes tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS photos (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					image_url VARCHAR(2048) NOT NULL,
					caption VARCHAR(280) NOT NULL DEFAULT '',
					hidden BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				CREATE INDEX IF NOT EXISTS idx_photos_created_at ON photos (created_at DESC, id DESC);
			`); err != nil {
				return fmt.Errorf("failed to create photos table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS photo_likes (
					photo_id UUID NOT NULL,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (photo_id, user_id),
					CONSTRAINT photo_likes_photo_id_fkey FOREIGN KEY (photo_id) REFERENCES photos(id) ON DELETE CASCADE
				);
			`); err != nil {
				return fmt.Errorf("failed to create photo_likes table: %w", err)
			}

			fmt.Println("Photo tables created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping photo tables...")

		if _, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS photo_likes;
			DROP TABLE IF EXISTS photos;
		`); err != nil {
			return fmt.Errorf("failed to drop photo tables: %w", err)
		}
		return nil
	})
}
