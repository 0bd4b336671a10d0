package scoredb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/Black-And-White-Club/party-companion/db/bundb"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// best picks each user's best row; ties inside a user go to the earliest.
const bestQuery = `
WITH ranked AS (
	SELECT user_id, value, created_at,
		ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY value %[1]s, created_at ASC) AS rn
	FROM scores
	WHERE game_slug = ?
)
SELECT user_id, value, created_at AS achieved_at
FROM ranked
WHERE rn = 1
ORDER BY value %[1]s, achieved_at ASC, user_id ASC
LIMIT ?`

// sum totals each user; the total was reached at the user's latest score.
const sumQuery = `
SELECT user_id, SUM(value)::bigint AS value, MAX(created_at) AS achieved_at
FROM scores
WHERE game_slug = ?
GROUP BY user_id
ORDER BY value DESC, achieved_at ASC, user_id ASC
LIMIT ?`

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new score repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) InsertScore(ctx context.Context, db bun.IDB, score *Score) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(score).Exec(ctx); err != nil {
		if bundb.IsForeignKeyViolation(err) {
			return ErrUnknownUser
		}
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

func (r *Impl) GetScore(ctx context.Context, db bun.IDB, id uuid.UUID) (*Score, error) {
	db = r.resolveDB(db)
	s := new(Score)
	if err := db.NewSelect().Model(s).Where("sc.id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return s, nil
}

func (r *Impl) DeleteScore(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewDelete().Model((*Score)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete score: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) ListScores(ctx context.Context, db bun.IDB, filter ScoreFilter) ([]Score, error) {
	db = r.resolveDB(db)
	var scores []Score
	q := db.NewSelect().Model(&scores).Order("sc.created_at DESC", "sc.id ASC")
	if filter.GameSlug != "" {
		q = q.Where("sc.game_slug = ?", filter.GameSlug)
	}
	if filter.UserID != uuid.Nil {
		q = q.Where("sc.user_id = ?", filter.UserID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}

func (r *Impl) CountScores(ctx context.Context, db bun.IDB) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().Model((*Score)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count scores: %w", err)
	}
	return n, nil
}

func (r *Impl) Leaderboard(ctx context.Context, db bun.IDB, gameSlug string, mode scoredomain.RankingMode, limit int) ([]LeaderboardRow, error) {
	db = r.resolveDB(db)

	var query string
	switch mode {
	case scoredomain.RankingMax:
		query = fmt.Sprintf(bestQuery, "DESC")
	case scoredomain.RankingMin:
		query = fmt.Sprintf(bestQuery, "ASC")
	case scoredomain.RankingSum:
		query = sumQuery
	default:
		return nil, fmt.Errorf("unsupported ranking mode %q", mode)
	}

	var rows []LeaderboardRow
	if err := db.NewRaw(query, gameSlug, limit).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard for %s: %w", gameSlug, err)
	}
	return rows, nil
}
