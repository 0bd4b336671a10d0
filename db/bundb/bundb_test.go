package bundb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestConstraintClassification(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "molkky_throws_game_id_sequence_key"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "icebreaker_answers_answered_user_id_fkey"}

	tests := []struct {
		name           string
		err            error
		wantUnique     bool
		wantFK         bool
		wantConstraint string
	}{
		{
			name:           "unique violation",
			err:            unique,
			wantUnique:     true,
			wantConstraint: "molkky_throws_game_id_sequence_key",
		},
		{
			name:           "wrapped unique violation",
			err:            fmt.Errorf("failed to insert throw: %w", unique),
			wantUnique:     true,
			wantConstraint: "molkky_throws_game_id_sequence_key",
		},
		{
			name:           "foreign key violation",
			err:            fk,
			wantFK:         true,
			wantConstraint: "icebreaker_answers_answered_user_id_fkey",
		},
		{
			name: "plain error",
			err:  errors.New("connection refused"),
		},
		{
			name: "nil",
			err:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantUnique, IsUniqueViolation(tt.err))
			assert.Equal(t, tt.wantFK, IsForeignKeyViolation(tt.err))
			assert.Equal(t, tt.wantConstraint, ConstraintName(tt.err))
		})
	}
}
