package molkkyqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const queueName = "molkky"

// Config controls the periodic sweep.
type Config struct {
	StaleLobbyTTL time.Duration
	SweepInterval time.Duration
}

// Service runs the Mölkky background jobs on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.ServiceMetrics
}

// NewService connects a dedicated pgx pool (River does not run on database/sql)
// and registers the periodic stale lobby sweep.
func NewService(
	ctx context.Context,
	dsn string,
	cfg Config,
	sweeper Sweeper,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
) (*Service, error) {
	ctxLogger := logger.With(attr.String("component", "river_queue"))
	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewStaleLobbyWorker(sweeper, ctxLogger))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: ctxLogger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
			queueName:          {MaxWorkers: 1},
		},
		Workers:      workers,
		PeriodicJobs: []*river.PeriodicJob{periodicSweep(cfg)},
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))
	ctxLogger.InfoContext(ctx, "Molkky queue service initialized",
		attr.String("stale_lobby_ttl", cfg.StaleLobbyTTL.String()),
		attr.String("sweep_interval", cfg.SweepInterval.String()),
	)

	return &Service{client: client, pool: pool, logger: ctxLogger, metrics: metrics}, nil
}

func periodicSweep(cfg Config) *river.PeriodicJob {
	return river.NewPeriodicJob(
		river.PeriodicInterval(cfg.SweepInterval),
		func() (river.JobArgs, *river.InsertOpts) {
			return StaleLobbySweepArgs{OlderThanSeconds: int64(cfg.StaleLobbyTTL / time.Second)}, &river.InsertOpts{Queue: queueName}
		},
		&river.PeriodicJobOpts{RunOnStart: true},
	)
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.logger.InfoContext(ctx, "Molkky queue service started")
	return nil
}

// Stop waits for running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.logger.InfoContext(ctx, "Molkky queue service stopped")
	return nil
}

// HealthCheck verifies the queue's database connection.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("river pool unhealthy: %w", err)
	}
	return nil
}
