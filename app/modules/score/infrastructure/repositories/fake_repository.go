package scoredb

import (
	"context"
	"fmt"
	"sort"
	"sync"

	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// FakeRepository is an in-memory Repository that aggregates leaderboards the
// same way the SQL does.
type FakeRepository struct {
	mu     sync.Mutex
	scores []Score

	InsertScoreFunc  func(ctx context.Context, db bun.IDB, score *Score) error
	LeaderboardFunc  func(ctx context.Context, db bun.IDB, gameSlug string, mode scoredomain.RankingMode, limit int) ([]LeaderboardRow, error)
	leaderboardCalls int
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{}
}

var _ Repository = (*FakeRepository)(nil)

// LeaderboardCalls returns how many times Leaderboard hit the store.
func (f *FakeRepository) LeaderboardCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaderboardCalls
}

func (f *FakeRepository) InsertScore(ctx context.Context, db bun.IDB, score *Score) error {
	if f.InsertScoreFunc != nil {
		return f.InsertScoreFunc(ctx, db, score)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, *score)
	return nil
}

func (f *FakeRepository) GetScore(ctx context.Context, db bun.IDB, id uuid.UUID) (*Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.scores {
		if f.scores[i].ID == id {
			s := f.scores[i]
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (f *FakeRepository) DeleteScore(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.scores {
		if f.scores[i].ID == id {
			f.scores = append(f.scores[:i], f.scores[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *FakeRepository) ListScores(ctx context.Context, db bun.IDB, filter ScoreFilter) ([]Score, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Score
	for _, s := range f.scores {
		if filter.GameSlug != "" && s.GameSlug != filter.GameSlug {
			continue
		}
		if filter.UserID != uuid.Nil && s.UserID != filter.UserID {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *FakeRepository) CountScores(ctx context.Context, db bun.IDB) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scores), nil
}

func (f *FakeRepository) Leaderboard(ctx context.Context, db bun.IDB, gameSlug string, mode scoredomain.RankingMode, limit int) ([]LeaderboardRow, error) {
	f.mu.Lock()
	f.leaderboardCalls++
	f.mu.Unlock()
	if f.LeaderboardFunc != nil {
		return f.LeaderboardFunc(ctx, db, gameSlug, mode, limit)
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("unsupported ranking mode %q", mode)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	byUser := map[uuid.UUID]*LeaderboardRow{}
	for _, s := range f.scores {
		if s.GameSlug != gameSlug {
			continue
		}
		row, ok := byUser[s.UserID]
		if !ok {
			byUser[s.UserID] = &LeaderboardRow{UserID: s.UserID, Value: s.Value, AchievedAt: s.CreatedAt}
			continue
		}
		switch mode {
		case scoredomain.RankingSum:
			row.Value += s.Value
			if s.CreatedAt.After(row.AchievedAt) {
				row.AchievedAt = s.CreatedAt
			}
		default:
			better := s.Value > row.Value
			if mode.Ascending() {
				better = s.Value < row.Value
			}
			if better || (s.Value == row.Value && s.CreatedAt.Before(row.AchievedAt)) {
				row.Value, row.AchievedAt = s.Value, s.CreatedAt
			}
		}
	}

	rows := make([]LeaderboardRow, 0, len(byUser))
	for _, row := range byUser {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			if mode.Ascending() {
				return rows[i].Value < rows[j].Value
			}
			return rows[i].Value > rows[j].Value
		}
		if !rows[i].AchievedAt.Equal(rows[j].AchievedAt) {
			return rows[i].AchievedAt.Before(rows[j].AchievedAt)
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
