package scoredomain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownGame   = errors.New("unknown mini-game")
	ErrInvalidValue  = errors.New("invalid score value")
	ErrScoreNotFound = errors.New("score not found")
	ErrUnknownUser   = errors.New("user does not exist")
)

// MolkkyWinsSlug is the catalogue entry credited when a Mölkky game is won.
const MolkkyWinsSlug = "molkky"

// Score is one submitted result.
type Score struct {
	ID        uuid.UUID `json:"id"`
	GameSlug  string    `json:"gameSlug"`
	UserID    uuid.UUID `json:"userId"`
	Value     int64     `json:"value"`
	CreatedAt time.Time `json:"createdAt"`
}

// LeaderboardEntry is one user's aggregated standing in a game.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"userId"`
	DisplayName string    `json:"displayName"`
	Value       int64     `json:"value"`
	AchievedAt  time.Time `json:"achievedAt"`
}

// Leaderboard is the ranked view of one game.
type Leaderboard struct {
	Game    MiniGame           `json:"game"`
	Entries []LeaderboardEntry `json:"entries"`
}

// AssignRanks numbers entries 1..n in their current order.
func AssignRanks(entries []LeaderboardEntry) {
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
