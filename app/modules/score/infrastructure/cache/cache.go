package scorecache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "party:leaderboard:"

// Cache stores ranked leaderboards per game.
type Cache interface {
	// Leaderboard returns the top limit entries and whether the game was cached.
	Leaderboard(ctx context.Context, gameSlug string, limit int) ([]scoredomain.LeaderboardEntry, bool, error)
	// Store replaces the cached board for a game with entries in rank order.
	Store(ctx context.Context, gameSlug string, entries []scoredomain.LeaderboardEntry) error
	Invalidate(ctx context.Context, gameSlug string) error
}

// RedisCache keeps each board as a sorted set of user ids scored by rank,
// with the entry details in a companion hash.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func keyRanks(slug string) string   { return keyPrefix + slug }
func keyEntries(slug string) string { return keyPrefix + slug + ":entries" }

type cachedEntry struct {
	Value      int64     `json:"v"`
	AchievedAt time.Time `json:"t"`
}

func (c *RedisCache) Leaderboard(ctx context.Context, gameSlug string, limit int) ([]scoredomain.LeaderboardEntry, bool, error) {
	var ranks *redis.StringSliceCmd
	var details *redis.MapStringStringCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ranks = pipe.ZRange(ctx, keyRanks(gameSlug), 0, int64(limit)-1)
		details = pipe.HGetAll(ctx, keyEntries(gameSlug))
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached leaderboard %s: %w", gameSlug, err)
	}

	ids := ranks.Val()
	if len(ids) == 0 {
		return nil, false, nil
	}
	byUser := details.Val()

	entries := make([]scoredomain.LeaderboardEntry, 0, len(ids))
	for _, raw := range ids {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, false, fmt.Errorf("corrupt leaderboard member %q: %w", raw, err)
		}
		var ce cachedEntry
		if err := json.Unmarshal([]byte(byUser[raw]), &ce); err != nil {
			return nil, false, fmt.Errorf("corrupt leaderboard entry for %s: %w", raw, err)
		}
		entries = append(entries, scoredomain.LeaderboardEntry{
			UserID:     userID,
			Value:      ce.Value,
			AchievedAt: ce.AchievedAt,
		})
	}
	scoredomain.AssignRanks(entries)
	return entries, true, nil
}

func (c *RedisCache) Store(ctx context.Context, gameSlug string, entries []scoredomain.LeaderboardEntry) error {
	members := make([]redis.Z, 0, len(entries))
	fields := make(map[string]any, len(entries))
	for i, e := range entries {
		raw, err := json.Marshal(cachedEntry{Value: e.Value, AchievedAt: e.AchievedAt})
		if err != nil {
			return fmt.Errorf("failed to encode leaderboard entry: %w", err)
		}
		members = append(members, redis.Z{Score: float64(i + 1), Member: e.UserID.String()})
		fields[e.UserID.String()] = raw
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keyRanks(gameSlug), keyEntries(gameSlug))
		if len(members) == 0 {
			return nil
		}
		pipe.ZAdd(ctx, keyRanks(gameSlug), members...)
		pipe.HSet(ctx, keyEntries(gameSlug), fields)
		if c.ttl > 0 {
			pipe.Expire(ctx, keyRanks(gameSlug), c.ttl)
			pipe.Expire(ctx, keyEntries(gameSlug), c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store leaderboard %s: %w", gameSlug, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, gameSlug string) error {
	if err := c.rdb.Del(ctx, keyRanks(gameSlug), keyEntries(gameSlug)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate leaderboard %s: %w", gameSlug, err)
	}
	return nil
}

// NoopCache always misses. It is used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) Leaderboard(context.Context, string, int) ([]scoredomain.LeaderboardEntry, bool, error) {
	return nil, false, nil
}

func (NoopCache) Store(context.Context, string, []scoredomain.LeaderboardEntry) error { return nil }

func (NoopCache) Invalidate(context.Context, string) error { return nil }
