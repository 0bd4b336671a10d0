package icebreakermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating icebreaker tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS icebreaker_assignments (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					card_id VARCHAR(64) NOT NULL,
					position INTEGER NOT NULL CHECK (position >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT icebreaker_assignments_user_key UNIQUE (user_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create icebreaker_assignments table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS icebreaker_answers (
					assignment_id UUID NOT NULL REFERENCES icebreaker_assignments(id) ON DELETE CASCADE,
					question_number INTEGER NOT NULL CHECK (question_number >= 1),
					answered_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (assignment_id, question_number),
					CONSTRAINT icebreaker_answers_assignment_person_key UNIQUE (assignment_id, answered_user_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create icebreaker_answers table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS app_settings (
					key VARCHAR(64) PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create app_settings table: %w", err)
			}

			fmt.Println("Icebreaker tables created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping icebreaker tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS icebreaker_answers;
				DROP TABLE IF EXISTS icebreaker_assignments;
				DROP TABLE IF EXISTS app_settings;
			`); err != nil {
				return fmt.Errorf("failed to drop icebreaker tables: %w", err)
			}
			return nil
		})
	})
}
