package molkkydb

import (
	"time"

	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Game is the molkky_games row. LastSequence is the highest throw sequence
// ever handed out for the game and only grows.
type Game struct {
	bun.BaseModel `bun:"table:molkky_games,alias:g"`

	ID           uuid.UUID               `bun:"id,pk,type:uuid"`
	Status       molkkydomain.GameStatus `bun:"status,notnull"`
	CreatorID    uuid.UUID               `bun:"creator_id,type:uuid,notnull"`
	WinnerID     *uuid.UUID              `bun:"winner_id,type:uuid"`
	LastSequence int                     `bun:"last_sequence,notnull"`
	CreatedAt    time.Time               `bun:"created_at,notnull"`
	StartedAt    *time.Time              `bun:"started_at"`
	EndedAt      *time.Time              `bun:"ended_at"`
}

// Player is the molkky_players row. Seat is the 1-based join order.
type Player struct {
	bun.BaseModel `bun:"table:molkky_players,alias:p"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	GameID     uuid.UUID `bun:"game_id,type:uuid,notnull"`
	UserID     uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Seat       int       `bun:"seat,notnull"`
	Score      int       `bun:"score,notnull"`
	MissCount  int       `bun:"miss_count,notnull"`
	Eliminated bool      `bun:"eliminated,notnull"`
	JoinedAt   time.Time `bun:"joined_at,notnull"`
}

// Throw is the molkky_throws row. Rows are never updated.
type Throw struct {
	bun.BaseModel `bun:"table:molkky_throws,alias:t"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	GameID      uuid.UUID `bun:"game_id,type:uuid,notnull"`
	PlayerID    uuid.UUID `bun:"player_id,type:uuid,notnull"`
	Sequence    int       `bun:"sequence,notnull"`
	PinsHit     int       `bun:"pins_hit,notnull"`
	PinNumber   *int      `bun:"pin_number"`
	Points      int       `bun:"points,notnull"`
	ScoreBefore int       `bun:"score_before,notnull"`
	ScoreAfter  int       `bun:"score_after,notnull"`
	IsMiss      bool      `bun:"is_miss,notnull"`
	IsPenalty   bool      `bun:"is_penalty,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

func (g *Game) ToDomain() molkkydomain.Game {
	return molkkydomain.Game{
		ID:        g.ID,
		Status:    g.Status,
		CreatorID: g.CreatorID,
		WinnerID:  g.WinnerID,
		CreatedAt: g.CreatedAt,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
}

func (p *Player) ToDomain() molkkydomain.Player {
	return molkkydomain.Player{
		ID:         p.ID,
		GameID:     p.GameID,
		UserID:     p.UserID,
		Score:      p.Score,
		MissCount:  p.MissCount,
		Eliminated: p.Eliminated,
		JoinedAt:   p.JoinedAt,
	}
}

func (t *Throw) ToDomain() molkkydomain.Throw {
	return molkkydomain.Throw{
		ID:          t.ID,
		GameID:      t.GameID,
		PlayerID:    t.PlayerID,
		Sequence:    t.Sequence,
		PinsHit:     t.PinsHit,
		PinNumber:   t.PinNumber,
		Points:      t.Points,
		ScoreBefore: t.ScoreBefore,
		ScoreAfter:  t.ScoreAfter,
		IsMiss:      t.IsMiss,
		IsPenalty:   t.IsPenalty,
		CreatedAt:   t.CreatedAt,
	}
}
