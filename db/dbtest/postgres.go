//go:build integration

// Package dbtest starts a migrated PostgreSQL container for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	userdb "github.com/Black-And-White-Club/party-companion/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/Black-And-White-Club/party-companion/db/migrations"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
)

// NewPostgres runs a throwaway postgres container with every module migrated.
// River tables are skipped.
func NewPostgres(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("party"),
		postgres.WithUsername("party"),
		postgres.WithPassword("party"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := bundb.Open(ctx, dsn, bundb.Options{MaxOpenConns: 20})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Up(ctx, db, "", observability.NewNoopObservability().Logger))
	return db
}

// CreateUser inserts a player account and returns its id.
func CreateUser(t *testing.T, db *bun.DB, username string) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	u := &userdb.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "x",
		DisplayName:  username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, userdb.NewRepository(db).Create(context.Background(), nil, u))
	return u.ID
}
