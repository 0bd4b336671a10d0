package scoreservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	scorecache "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/cache"
	scoredb "github.com/Black-And-White-Club/party-companion/app/modules/score/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/operation"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	// cacheDepth is how many entries of each board are cached.
	cacheDepth = 200
)

// ScoreService implements the Service interface.
type ScoreService struct {
	repo      scoredb.Repository
	cache     scorecache.Cache
	catalogue *scoredomain.Catalogue
	users     UserDirectory
	logger    *slog.Logger
	telemetry operation.Telemetry
	now       func() time.Time
}

// NewScoreService creates a new ScoreService. A nil cache disables caching.
func NewScoreService(
	repo scoredb.Repository,
	cache scorecache.Cache,
	catalogue *scoredomain.Catalogue,
	users UserDirectory,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
) *ScoreService {
	if cache == nil {
		cache = scorecache.NoopCache{}
	}
	return &ScoreService{
		repo:      repo,
		cache:     cache,
		catalogue: catalogue,
		users:     users,
		logger:    logger,
		telemetry: operation.Telemetry{
			Service: "ScoreService",
			Logger:  logger,
			Metrics: metrics,
			Tracer:  tracer,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

type scoreResult = results.OperationResult[*scoredomain.Score, error]

func (s *ScoreService) ListGames(context.Context) []scoredomain.MiniGame {
	return s.catalogue.All()
}

func (s *ScoreService) SubmitScore(ctx context.Context, actor authdomain.Actor, gameSlug string, value int64) (*scoredomain.Score, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "SubmitScore", gameSlug, func(ctx context.Context) (scoreResult, error) {
		return s.submit(ctx, actor.UserID, gameSlug, value)
	}))
}

func (s *ScoreService) RecordMolkkyWin(ctx context.Context, userID uuid.UUID) error {
	if _, ok := s.catalogue.Get(scoredomain.MolkkyWinsSlug); !ok {
		s.logger.DebugContext(ctx, "No Mölkky entry in the catalogue, win not recorded", attr.UUID("user_id", userID))
		return nil
	}
	_, err := results.Unwrap(operation.Run(s.telemetry, ctx, "RecordMolkkyWin", userID.String(), func(ctx context.Context) (scoreResult, error) {
		return s.submit(ctx, userID, scoredomain.MolkkyWinsSlug, 1)
	}))
	return err
}

func (s *ScoreService) submit(ctx context.Context, userID uuid.UUID, gameSlug string, value int64) (scoreResult, error) {
	game, ok := s.catalogue.Get(gameSlug)
	if !ok {
		return results.FailureResult[*scoredomain.Score](fmt.Errorf("%w: %q", scoredomain.ErrUnknownGame, gameSlug)), nil
	}
	if err := game.Validate(value); err != nil {
		return results.FailureResult[*scoredomain.Score](err), nil
	}

	row := &scoredb.Score{
		ID:        uuid.New(),
		GameSlug:  game.Slug,
		UserID:    userID,
		Value:     value,
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertScore(ctx, nil, row); err != nil {
		if errors.Is(err, scoredb.ErrUnknownUser) {
			return results.FailureResult[*scoredomain.Score](scoredomain.ErrUnknownUser), nil
		}
		return scoreResult{}, err
	}
	s.refreshCache(ctx, game)

	score := row.ToDomain()
	return results.SuccessResult[*scoredomain.Score, error](&score), nil
}

func (s *ScoreService) Leaderboard(ctx context.Context, gameSlug string, limit int) (*scoredomain.Leaderboard, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, cacheDepth)

	type boardResult = results.OperationResult[*scoredomain.Leaderboard, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, "Leaderboard", gameSlug, func(ctx context.Context) (boardResult, error) {
		game, ok := s.catalogue.Get(gameSlug)
		if !ok {
			return results.FailureResult[*scoredomain.Leaderboard](fmt.Errorf("%w: %q", scoredomain.ErrUnknownGame, gameSlug)), nil
		}

		entries, hit, err := s.cache.Leaderboard(ctx, game.Slug, limit)
		if err != nil {
			s.logger.WarnContext(ctx, "Leaderboard cache read failed, falling back to the database",
				attr.String("game", game.Slug),
				attr.Error(err),
			)
			hit = false
		}
		if !hit {
			all, err := s.aggregate(ctx, game)
			if err != nil {
				return boardResult{}, err
			}
			if err := s.cache.Store(ctx, game.Slug, all); err != nil {
				s.logger.WarnContext(ctx, "Failed to cache leaderboard", attr.String("game", game.Slug), attr.Error(err))
			}
			entries = all[:min(limit, len(all))]
		}

		s.attachNames(ctx, entries)
		return results.SuccessResult[*scoredomain.Leaderboard, error](&scoredomain.Leaderboard{
			Game:    game,
			Entries: entries,
		}), nil
	}))
}

func (s *ScoreService) MyScores(ctx context.Context, actor authdomain.Actor, gameSlug string, limit int) ([]scoredomain.Score, error) {
	return s.list(ctx, "MyScores", scoredb.ScoreFilter{GameSlug: gameSlug, UserID: actor.UserID, Limit: limit})
}

func (s *ScoreService) ListScores(ctx context.Context, gameSlug string, limit int) ([]scoredomain.Score, error) {
	return s.list(ctx, "ListScores", scoredb.ScoreFilter{GameSlug: gameSlug, Limit: limit})
}

func (s *ScoreService) list(ctx context.Context, opName string, filter scoredb.ScoreFilter) ([]scoredomain.Score, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	type listResult = results.OperationResult[[]scoredomain.Score, error]
	return results.Unwrap(operation.Run(s.telemetry, ctx, opName, filter.GameSlug, func(ctx context.Context) (listResult, error) {
		if filter.GameSlug != "" {
			if _, ok := s.catalogue.Get(filter.GameSlug); !ok {
				return results.FailureResult[[]scoredomain.Score](fmt.Errorf("%w: %q", scoredomain.ErrUnknownGame, filter.GameSlug)), nil
			}
		}
		rows, err := s.repo.ListScores(ctx, nil, filter)
		if err != nil {
			return listResult{}, err
		}
		scores := make([]scoredomain.Score, 0, len(rows))
		for i := range rows {
			scores = append(scores, rows[i].ToDomain())
		}
		return results.SuccessResult[[]scoredomain.Score, error](scores), nil
	}))
}

func (s *ScoreService) DeleteScore(ctx context.Context, id uuid.UUID) error {
	type deleteResult = results.OperationResult[struct{}, error]
	_, err := results.Unwrap(operation.Run(s.telemetry, ctx, "DeleteScore", id.String(), func(ctx context.Context) (deleteResult, error) {
		row, err := s.repo.GetScore(ctx, nil, id)
		if err != nil {
			if errors.Is(err, scoredb.ErrNotFound) {
				return results.FailureResult[struct{}](scoredomain.ErrScoreNotFound), nil
			}
			return deleteResult{}, err
		}
		if err := s.repo.DeleteScore(ctx, nil, id); err != nil {
			if errors.Is(err, scoredb.ErrNotFound) {
				return results.FailureResult[struct{}](scoredomain.ErrScoreNotFound), nil
			}
			return deleteResult{}, err
		}
		if game, ok := s.catalogue.Get(row.GameSlug); ok {
			s.refreshCache(ctx, game)
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

// RebuildLeaderboards refreshes every cached board, e.g. after a user's scores
// were removed by a cascade.
func (s *ScoreService) RebuildLeaderboards(ctx context.Context) error {
	type rebuildResult = results.OperationResult[struct{}, error]
	_, err := results.Unwrap(operation.Run(s.telemetry, ctx, "RebuildLeaderboards", "", func(ctx context.Context) (rebuildResult, error) {
		for _, game := range s.catalogue.All() {
			s.refreshCache(ctx, game)
		}
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	}))
	return err
}

func (s *ScoreService) CountScores(ctx context.Context) (int, error) {
	return results.Unwrap(operation.Run(s.telemetry, ctx, "CountScores", "", func(ctx context.Context) (results.OperationResult[int, error], error) {
		n, err := s.repo.CountScores(ctx, nil)
		if err != nil {
			return results.OperationResult[int, error]{}, err
		}
		return results.SuccessResult[int, error](n), nil
	}))
}

func (s *ScoreService) aggregate(ctx context.Context, game scoredomain.MiniGame) ([]scoredomain.LeaderboardEntry, error) {
	rows, err := s.repo.Leaderboard(ctx, nil, game.Slug, game.RankingMode, cacheDepth)
	if err != nil {
		return nil, err
	}
	entries := make([]scoredomain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.ToDomain())
	}
	scoredomain.AssignRanks(entries)
	return entries, nil
}

// refreshCache rebuilds a game's cached board after a write. On failure the
// entry is dropped so readers fall back to the database.
func (s *ScoreService) refreshCache(ctx context.Context, game scoredomain.MiniGame) {
	entries, err := s.aggregate(ctx, game)
	if err == nil {
		err = s.cache.Store(ctx, game.Slug, entries)
	}
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "Failed to refresh leaderboard cache", attr.String("game", game.Slug), attr.Error(err))
	if err := s.cache.Invalidate(ctx, game.Slug); err != nil {
		s.logger.ErrorContext(ctx, "Failed to invalidate leaderboard cache", attr.String("game", game.Slug), attr.Error(err))
	}
}

func (s *ScoreService) attachNames(ctx context.Context, entries []scoredomain.LeaderboardEntry) {
	if s.users == nil || len(entries) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	names, err := s.users.DisplayNames(ctx, ids)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to resolve display names", attr.Error(err))
		return
	}
	for i := range entries {
		entries[i].DisplayName = names[entries[i].UserID]
	}
}
