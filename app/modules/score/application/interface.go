package scoreservice

import (
	"context"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/google/uuid"
)

// Service records mini-game scores and serves ranked leaderboards.
type Service interface {
	ListGames(ctx context.Context) []scoredomain.MiniGame
	SubmitScore(ctx context.Context, actor authdomain.Actor, gameSlug string, value int64) (*scoredomain.Score, error)
	// RecordMolkkyWin credits one win to the user. It is a no-op when the
	// catalogue has no Mölkky entry.
	RecordMolkkyWin(ctx context.Context, userID uuid.UUID) error
	// RebuildLeaderboards refreshes the cache for every catalogue game.
	RebuildLeaderboards(ctx context.Context) error
	Leaderboard(ctx context.Context, gameSlug string, limit int) (*scoredomain.Leaderboard, error)
	MyScores(ctx context.Context, actor authdomain.Actor, gameSlug string, limit int) ([]scoredomain.Score, error)

	ListScores(ctx context.Context, gameSlug string, limit int) ([]scoredomain.Score, error)
	DeleteScore(ctx context.Context, id uuid.UUID) error
	CountScores(ctx context.Context) (int, error)
}

// UserDirectory resolves user ids to display names. Unknown ids are omitted.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
