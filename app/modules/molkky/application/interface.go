package molkkyservice

import (
	"context"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	"github.com/google/uuid"
)

// Service defines the Mölkky game operations.
type Service interface {
	CreateGame(ctx context.Context, actor authdomain.Actor) (*molkkydomain.GameSnapshot, error)
	JoinGame(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error)
	StartGame(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error)
	CancelGame(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error)

	GetGame(ctx context.Context, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error)
	ListGames(ctx context.Context, status *molkkydomain.GameStatus, limit int) ([]molkkydomain.Game, error)
	ListThrows(ctx context.Context, gameID uuid.UUID) ([]molkkydomain.Throw, error)

	// SubmitThrow resolves and records one throw atomically.
	SubmitThrow(ctx context.Context, actor authdomain.Actor, req SubmitThrowRequest) (*molkkydomain.ThrowResult, error)

	// ScoreChart renders score-after per throw as a PNG, one line per player.
	ScoreChart(ctx context.Context, gameID uuid.UUID) ([]byte, error)

	// SweepStaleLobbies cancels waiting games created more than olderThan ago.
	SweepStaleLobbies(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
	CountGamesByStatus(ctx context.Context) (map[molkkydomain.GameStatus]int, error)
}

// SubmitThrowRequest is a proposed throw for a player of a game.
type SubmitThrowRequest struct {
	GameID    uuid.UUID `json:"gameId"`
	PlayerID  uuid.UUID `json:"playerId"`
	PinsHit   int       `json:"pinsHit"`
	PinNumber *int      `json:"pinNumber,omitempty"`
}

// UserDirectory resolves user ids to display names for chart legends.
type UserDirectory interface {
	DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
