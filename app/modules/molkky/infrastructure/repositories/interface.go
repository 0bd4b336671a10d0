package molkkydb

import (
	"context"
	"time"

	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for Mölkky persistence. Every method takes an
// optional bun.IDB so callers can run it inside their transaction.
type Repository interface {
	CreateGame(ctx context.Context, db bun.IDB, game *Game) error
	GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error)
	// GetGameForUpdate locks the game row until the surrounding transaction ends.
	GetGameForUpdate(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error)
	ListGames(ctx context.Context, db bun.IDB, status *molkkydomain.GameStatus, limit int) ([]Game, error)
	UpdateGame(ctx context.Context, db bun.IDB, game *Game) error
	CountGamesByStatus(ctx context.Context, db bun.IDB) (map[molkkydomain.GameStatus]int, error)
	// CancelStaleLobbies cancels waiting games created before cutoff.
	CancelStaleLobbies(ctx context.Context, db bun.IDB, cutoff time.Time) ([]uuid.UUID, error)

	AddPlayer(ctx context.Context, db bun.IDB, player *Player) error
	GetPlayer(ctx context.Context, db bun.IDB, gameID, playerID uuid.UUID) (*Player, error)
	// ListPlayers returns players in join order.
	ListPlayers(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Player, error)
	UpdatePlayerState(ctx context.Context, db bun.IDB, player *Player) error

	CountThrows(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int, error)
	// ClaimThrowSequence bumps the game's sequence counter and returns the new
	// value. Callers hold the game row lock.
	ClaimThrowSequence(ctx context.Context, db bun.IDB, gameID uuid.UUID) (int, error)
	InsertThrow(ctx context.Context, db bun.IDB, throw *Throw) error
	ListThrows(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Throw, error)
}
