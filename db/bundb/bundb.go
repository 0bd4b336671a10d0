// Package bundb opens the PostgreSQL handle shared by every repository and
// classifies driver errors into constraint violations.
package bundb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to PostgreSQL through pgdriver and verifies the connection.
func Open(ctx context.Context, dsn string, opts Options) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if opts.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqldb.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique violation.
func IsUniqueViolation(err error) bool {
	return sqlState(err) == sqlStateUniqueViolation
}

// IsForeignKeyViolation reports whether err is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == sqlStateForeignKeyViolation
}

// ConstraintName returns the name of the violated constraint, if any.
func ConstraintName(err error) string {
	var pgdErr pgdriver.Error
	if errors.As(err, &pgdErr) {
		return pgdErr.Field('n')
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.ConstraintName
	}
	return ""
}

// sqlState supports both pgdriver (the bun connector) and pgx (used by the
// integration tests through database/sql).
func sqlState(err error) string {
	if err == nil {
		return ""
	}
	var pgdErr pgdriver.Error
	if errors.As(err, &pgdErr) {
		return pgdErr.Field('C')
	}
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code
	}
	return ""
}
