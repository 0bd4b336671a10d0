package usermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating users table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				username VARCHAR(20) NOT NULL UNIQUE CHECK (username ~ '^[a-z0-9_]{3,20}$'),
				password_hash TEXT NOT NULL,
				display_name VARCHAR(40) NOT NULL,
				is_admin BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create users table: %w", err)
		}

		fmt.Println("Users table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping users table...")

		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS users CASCADE;`)
		if err != nil {
			return fmt.Errorf("failed to drop users table: %w", err)
		}
		return nil
	})
}
