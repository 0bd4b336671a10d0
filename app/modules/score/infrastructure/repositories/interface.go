package scoredb

import (
	"context"

	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for score persistence.
type Repository interface {
	InsertScore(ctx context.Context, db bun.IDB, score *Score) error
	GetScore(ctx context.Context, db bun.IDB, id uuid.UUID) (*Score, error)
	DeleteScore(ctx context.Context, db bun.IDB, id uuid.UUID) error
	// ListScores returns scores newest first.
	ListScores(ctx context.Context, db bun.IDB, filter ScoreFilter) ([]Score, error)
	CountScores(ctx context.Context, db bun.IDB) (int, error)
	// Leaderboard aggregates one game by mode. Ties go to the earliest
	// achievement, then the lower user id.
	Leaderboard(ctx context.Context, db bun.IDB, gameSlug string, mode scoredomain.RankingMode, limit int) ([]LeaderboardRow, error)
}
