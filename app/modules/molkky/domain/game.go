package molkkydomain

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "waiting"
	GameStatusOngoing   GameStatus = "ongoing"
	GameStatusCompleted GameStatus = "completed"
	GameStatusCancelled GameStatus = "cancelled"
)

// IsValid checks if the status is a known value.
func (s GameStatus) IsValid() bool {
	switch s {
	case GameStatusWaiting, GameStatusOngoing, GameStatusCompleted, GameStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the game can no longer change.
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusCompleted || s == GameStatusCancelled
}

// Game is the API view of a game.
type Game struct {
	ID        uuid.UUID  `json:"id"`
	Status    GameStatus `json:"status"`
	CreatorID uuid.UUID  `json:"creatorId"`
	WinnerID  *uuid.UUID `json:"winnerId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

// Player is the API view of a participant.
type Player struct {
	ID         uuid.UUID `json:"id"`
	GameID     uuid.UUID `json:"gameId"`
	UserID     uuid.UUID `json:"userId"`
	Score      int       `json:"score"`
	MissCount  int       `json:"missCount"`
	Eliminated bool      `json:"eliminated"`
	JoinedAt   time.Time `json:"joinedAt"`
}

// State returns the engine view of the player.
func (p Player) State() PlayerState {
	return PlayerState{Score: p.Score, MissCount: p.MissCount, Eliminated: p.Eliminated}
}

// Throw is one immutable scoring record.
type Throw struct {
	ID          uuid.UUID `json:"id"`
	GameID      uuid.UUID `json:"gameId"`
	PlayerID    uuid.UUID `json:"playerId"`
	Sequence    int       `json:"sequence"`
	PinsHit     int       `json:"pinsHit"`
	PinNumber   *int      `json:"pinNumber,omitempty"`
	Points      int       `json:"points"`
	ScoreBefore int       `json:"scoreBefore"`
	ScoreAfter  int       `json:"scoreAfter"`
	IsMiss      bool      `json:"isMiss"`
	IsPenalty   bool      `json:"isPenalty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GameSnapshot is a game with its players in join order and the derived turn.
type GameSnapshot struct {
	Game         Game       `json:"game"`
	Players      []Player   `json:"players"`
	ThrowCount   int        `json:"throwCount"`
	NextPlayerID *uuid.UUID `json:"nextPlayerId,omitempty"`
}

// ThrowResult is returned by a successful throw submission.
type ThrowResult struct {
	Throw              Throw        `json:"throw"`
	Game               GameSnapshot `json:"game"`
	IsGameWon          bool         `json:"isGameWon"`
	IsPlayerEliminated bool         `json:"isPlayerEliminated"`
}

// GameCompletedPayloadV1 is published once a throw wins a game.
type GameCompletedPayloadV1 struct {
	GameID       uuid.UUID `json:"game_id"`
	WinnerUserID uuid.UUID `json:"winner_user_id"`
	WinnerPlayer uuid.UUID `json:"winner_player_id"`
	EndedAt      time.Time `json:"ended_at"`
}

// GameCompletedV1 is the topic for GameCompletedPayloadV1.
const GameCompletedV1 = "molkky.game.completed.v1"
