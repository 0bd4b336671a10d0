package molkkyservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/party-companion/app/eventbus"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	molkkydb "github.com/Black-And-White-Club/party-companion/app/modules/molkky/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

const (
	// maxThrowAttempts bounds retries after a throw sequence collision.
	maxThrowAttempts = 3
	defaultListLimit = 50
)

// MolkkyService implements the Service interface.
type MolkkyService struct {
	repo      molkkydb.Repository
	users     UserDirectory
	eventBus  eventbus.EventBus
	throws    observability.ThrowMetrics
	logger    *slog.Logger
	telemetry operation.Telemetry
	db        *bun.DB
	now       func() time.Time
}

// NewMolkkyService creates a new MolkkyService. users and eventBus may be nil.
func NewMolkkyService(
	repo molkkydb.Repository,
	users UserDirectory,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	throwMetrics observability.ThrowMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *MolkkyService {
	if throwMetrics == nil {
		throwMetrics = observability.NewNoopThrowMetrics()
	}
	return &MolkkyService{
		repo:     repo,
		users:    users,
		eventBus: eventBus,
		throws:   throwMetrics,
		logger:   logger,
		telemetry: operation.Telemetry{
			Service: "MolkkyService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type snapshotResult = results.OperationResult[*molkkydomain.GameSnapshot, error]

func (s *MolkkyService) CreateGame(ctx context.Context, actor authdomain.Actor) (*molkkydomain.GameSnapshot, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "CreateGame", actor.UserID.String(), func(ctx context.Context) (snapshotResult, error) {
		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (snapshotResult, error) {
			now := s.now()
			game := &molkkydb.Game{
				ID:        uuid.New(),
				Status:    molkkydomain.GameStatusWaiting,
				CreatorID: actor.UserID,
				CreatedAt: now,
			}
			if err := s.repo.CreateGame(ctx, tx, game); err != nil {
				return snapshotResult{}, err
			}
			creator := &molkkydb.Player{
				ID:       uuid.New(),
				GameID:   game.ID,
				UserID:   actor.UserID,
				JoinedAt: now,
			}
			if err := s.repo.AddPlayer(ctx, tx, creator); err != nil {
				return snapshotResult{}, err
			}

			snap, err := s.loadSnapshot(ctx, tx, game)
			if err != nil {
				return snapshotResult{}, err
			}
			return results.SuccessResult[*molkkydomain.GameSnapshot, error](snap), nil
		})
	}))
}

func (s *MolkkyService) JoinGame(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "JoinGame", gameID.String(), func(ctx context.Context) (snapshotResult, error) {
		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (snapshotResult, error) {
			game, err := s.repo.GetGameForUpdate(ctx, tx, gameID)
			if err != nil {
				if errors.Is(err, molkkydb.ErrNotFound) {
					return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameNotFound), nil
				}
				return snapshotResult{}, err
			}
			if game.Status != molkkydomain.GameStatusWaiting {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameNotWaiting), nil
			}

			player := &molkkydb.Player{
				ID:       uuid.New(),
				GameID:   game.ID,
				UserID:   actor.UserID,
				JoinedAt: s.now(),
			}
			if err := s.repo.AddPlayer(ctx, tx, player); err != nil {
				if errors.Is(err, molkkydb.ErrDuplicatePlayer) {
					return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrAlreadyJoined), nil
				}
				return snapshotResult{}, err
			}

			snap, err := s.loadSnapshot(ctx, tx, game)
			if err != nil {
				return snapshotResult{}, err
			}
			return results.SuccessResult[*molkkydomain.GameSnapshot, error](snap), nil
		})
	}))
}

func (s *MolkkyService) StartGame(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "StartGame", gameID.String(), func(ctx context.Context) (snapshotResult, error) {
		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (snapshotResult, error) {
			game, err := s.repo.GetGameForUpdate(ctx, tx, gameID)
			if err != nil {
				if errors.Is(err, molkkydb.ErrNotFound) {
					return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameNotFound), nil
				}
				return snapshotResult{}, err
			}
			if game.CreatorID != actor.UserID {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrNotCreator), nil
			}
			if game.Status != molkkydomain.GameStatusWaiting {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameNotWaiting), nil
			}

			players, err := s.repo.ListPlayers(ctx, tx, game.ID)
			if err != nil {
				return snapshotResult{}, err
			}
			if len(players) < 2 {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrNotEnoughPlayers), nil
			}

			now := s.now()
			game.Status = molkkydomain.GameStatusOngoing
			game.StartedAt = &now
			if err := s.repo.UpdateGame(ctx, tx, game); err != nil {
				return snapshotResult{}, err
			}

			snap, err := s.loadSnapshot(ctx, tx, game)
			if err != nil {
				return snapshotResult{}, err
			}
			return results.SuccessResult[*molkkydomain.GameSnapshot, error](snap), nil
		})
	}))
}

func (s *MolkkyService) CancelGame(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "CancelGame", gameID.String(), func(ctx context.Context) (snapshotResult, error) {
		return operation.InTx(ctx, s.db, func(ctx context.Context, tx bun.IDB) (snapshotResult, error) {
			game, err := s.repo.GetGameForUpdate(ctx, tx, gameID)
			if err != nil {
				if errors.Is(err, molkkydb.ErrNotFound) {
					return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameNotFound), nil
				}
				return snapshotResult{}, err
			}
			if game.CreatorID != actor.UserID && !actor.IsAdmin() {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrNotCreator), nil
			}
			if game.Status.IsTerminal() {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameFinished), nil
			}

			now := s.now()
			game.Status = molkkydomain.GameStatusCancelled
			game.EndedAt = &now
			if err := s.repo.UpdateGame(ctx, tx, game); err != nil {
				return snapshotResult{}, err
			}

			snap, err := s.loadSnapshot(ctx, tx, game)
			if err != nil {
				return snapshotResult{}, err
			}
			return results.SuccessResult[*molkkydomain.GameSnapshot, error](snap), nil
		})
	}))
}

func (s *MolkkyService) GetGame(ctx context.Context, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "GetGame", gameID.String(), func(ctx context.Context) (snapshotResult, error) {
		game, err := s.repo.GetGame(ctx, nil, gameID)
		if err != nil {
			if errors.Is(err, molkkydb.ErrNotFound) {
				return results.FailureResult[*molkkydomain.GameSnapshot](molkkydomain.ErrGameNotFound), nil
			}
			return snapshotResult{}, err
		}
		snap, err := s.loadSnapshot(ctx, nil, game)
		if err != nil {
			return snapshotResult{}, err
		}
		return results.SuccessResult[*molkkydomain.GameSnapshot, error](snap), nil
	}))
}

func (s *MolkkyService) ListGames(ctx context.Context, status *molkkydomain.GameStatus, limit int) ([]molkkydomain.Game, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ListGames", "", func(ctx context.Context) (results.OperationResult[[]molkkydomain.Game, error], error) {
		if status != nil && !status.IsValid() {
			return results.FailureResult[[]molkkydomain.Game](fmt.Errorf("%w: %q", molkkydomain.ErrInvalidStatus, *status)), nil
		}
		rows, err := s.repo.ListGames(ctx, nil, status, limit)
		if err != nil {
			return results.OperationResult[[]molkkydomain.Game, error]{}, err
		}
		games := make([]molkkydomain.Game, 0, len(rows))
		for i := range rows {
			games = append(games, rows[i].ToDomain())
		}
		return results.SuccessResult[[]molkkydomain.Game, error](games), nil
	}))
}

func (s *MolkkyService) ListThrows(ctx context.Context, gameID uuid.UUID) ([]molkkydomain.Throw, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "ListThrows", gameID.String(), func(ctx context.Context) (results.OperationResult[[]molkkydomain.Throw, error], error) {
		if _, err := s.repo.GetGame(ctx, nil, gameID); err != nil {
			if errors.Is(err, molkkydb.ErrNotFound) {
				return results.FailureResult[[]molkkydomain.Throw](molkkydomain.ErrGameNotFound), nil
			}
			return results.OperationResult[[]molkkydomain.Throw, error]{}, err
		}
		rows, err := s.repo.ListThrows(ctx, nil, gameID)
		if err != nil {
			return results.OperationResult[[]molkkydomain.Throw, error]{}, err
		}
		throws := make([]molkkydomain.Throw, 0, len(rows))
		for i := range rows {
			throws = append(throws, rows[i].ToDomain())
		}
		return results.SuccessResult[[]molkkydomain.Throw, error](throws), nil
	}))
}

func (s *MolkkyService) SweepStaleLobbies(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	cutoff := s.now().Add(-olderThan)
	return results.Unwrap(operation.Run(s.telemetry, ctx, "SweepStaleLobbies", "", func(ctx context.Context) (results.OperationResult[[]uuid.UUID, error], error) {
		ids, err := s.repo.CancelStaleLobbies(ctx, nil, cutoff)
		if err != nil {
			return results.OperationResult[[]uuid.UUID, error]{}, err
		}
		if len(ids) > 0 {
			s.logger.InfoContext(ctx, "Cancelled stale lobbies", attr.Int("count", len(ids)))
		}
		return results.SuccessResult[[]uuid.UUID, error](ids), nil
	}))
}

func (s *MolkkyService) CountGamesByStatus(ctx context.Context) (map[molkkydomain.GameStatus]int, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "CountGamesByStatus", "", func(ctx context.Context) (results.OperationResult[map[molkkydomain.GameStatus]int, error], error) {
		counts, err := s.repo.CountGamesByStatus(ctx, nil)
		if err != nil {
			return results.OperationResult[map[molkkydomain.GameStatus]int, error]{}, err
		}
		return results.SuccessResult[map[molkkydomain.GameStatus]int, error](counts), nil
	}))
}

func (s *MolkkyService) loadSnapshot(ctx context.Context, db bun.IDB, game *molkkydb.Game) (*molkkydomain.GameSnapshot, error) {
	rows, err := s.repo.ListPlayers(ctx, db, game.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountThrows(ctx, db, game.ID)
	if err != nil {
		return nil, err
	}
	return buildSnapshot(game, rows, count), nil
}

func buildSnapshot(game *molkkydb.Game, rows []molkkydb.Player, throwCount int) *molkkydomain.GameSnapshot {
	players := make([]molkkydomain.Player, 0, len(rows))
	for i := range rows {
		players = append(players, rows[i].ToDomain())
	}
	snap := &molkkydomain.GameSnapshot{
		Game:       game.ToDomain(),
		Players:    players,
		ThrowCount: throwCount,
	}
	if game.Status == molkkydomain.GameStatusOngoing {
		if idx := molkkydomain.NextThrowerIndex(players, throwCount); idx >= 0 {
			next := players[idx].ID
			snap.NextPlayerID = &next
		}
	}
	return snap
}
