package scoredb

import (
	"time"

	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Score is one row of the scores table.
type Score struct {
	bun.BaseModel `bun:"table:scores,alias:sc"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	GameSlug  string    `bun:"game_slug,notnull"`
	UserID    uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Value     int64     `bun:"value,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// LeaderboardRow is one aggregated standing.
type LeaderboardRow struct {
	UserID     uuid.UUID `bun:"user_id"`
	Value      int64     `bun:"value"`
	AchievedAt time.Time `bun:"achieved_at"`
}

// ScoreFilter narrows ListScores. Zero fields match everything.
type ScoreFilter struct {
	GameSlug string
	UserID   uuid.UUID
	Limit    int
}

func (s *Score) ToDomain() scoredomain.Score {
	return scoredomain.Score{
		ID:        s.ID,
		GameSlug:  s.GameSlug,
		UserID:    s.UserID,
		Value:     s.Value,
		CreatedAt: s.CreatedAt,
	}
}

func (r LeaderboardRow) ToDomain() scoredomain.LeaderboardEntry {
	return scoredomain.LeaderboardEntry{
		UserID:     r.UserID,
		Value:      r.Value,
		AchievedAt: r.AchievedAt,
	}
}
