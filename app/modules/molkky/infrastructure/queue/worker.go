package molkkyqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/google/uuid"
	"github.com/riverqueue/river"
)

// Sweeper is the part of the Mölkky service the worker drives.
type Sweeper interface {
	SweepStaleLobbies(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
}

// StaleLobbyWorker runs one sweep per job.
type StaleLobbyWorker struct {
	river.WorkerDefaults[StaleLobbySweepArgs]
	sweeper Sweeper
	logger  *slog.Logger
}

// NewStaleLobbyWorker creates a new StaleLobbyWorker.
func NewStaleLobbyWorker(sweeper Sweeper, logger *slog.Logger) *StaleLobbyWorker {
	return &StaleLobbyWorker{sweeper: sweeper, logger: logger}
}

func (w *StaleLobbyWorker) Work(ctx context.Context, job *river.Job[StaleLobbySweepArgs]) error {
	olderThan := time.Duration(job.Args.OlderThanSeconds) * time.Second
	if olderThan <= 0 {
		return fmt.Errorf("invalid stale lobby ttl %v", olderThan)
	}

	ids, err := w.sweeper.SweepStaleLobbies(ctx, olderThan)
	if err != nil {
		w.logger.ErrorContext(ctx, "Stale lobby sweep failed", attr.Error(err))
		return fmt.Errorf("failed to sweep stale lobbies: %w", err)
	}

	w.logger.InfoContext(ctx, "Stale lobby sweep finished",
		attr.Int("cancelled", len(ids)),
		attr.String("older_than", olderThan.String()),
	)
	return nil
}
