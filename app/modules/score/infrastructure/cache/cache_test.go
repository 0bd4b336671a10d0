package scorecache

import (
	"context"
	"testing"
	"time"

	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, time.Minute), mr
}

func sampleEntries() []scoredomain.LeaderboardEntry {
	base := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	return []scoredomain.LeaderboardEntry{
		{Rank: 1, UserID: uuid.New(), Value: 900, AchievedAt: base},
		{Rank: 2, UserID: uuid.New(), Value: 900, AchievedAt: base.Add(time.Minute)},
		{Rank: 3, UserID: uuid.New(), Value: 120, AchievedAt: base.Add(2 * time.Minute)},
	}
}

func TestRedisCache_StoreAndRead(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	entries := sampleEntries()

	_, hit, err := c.Leaderboard(ctx, "memory", 10)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Store(ctx, "memory", entries))

	got, hit, err := c.Leaderboard(ctx, "memory", 10)
	require.NoError(t, err)
	require.True(t, hit)
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("cached leaderboard mismatch (-want +got):\n%s", diff)
	}

	top, _, err := c.Leaderboard(ctx, "memory", 2)
	require.NoError(t, err)
	assert.Len(t, top, 2)

	assert.Equal(t, time.Minute, mr.TTL(keyRanks("memory")))
	assert.Equal(t, time.Minute, mr.TTL(keyEntries("memory")))
}

func TestRedisCache_StoreReplaces(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	entries := sampleEntries()

	require.NoError(t, c.Store(ctx, "quiz", entries))
	require.NoError(t, c.Store(ctx, "quiz", entries[2:]))

	got, hit, err := c.Leaderboard(ctx, "quiz", 10)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, got, 1)
	assert.Equal(t, entries[2].UserID, got[0].UserID)
	assert.Equal(t, 1, got[0].Rank)

	require.NoError(t, c.Store(ctx, "quiz", nil))
	_, hit, err = c.Leaderboard(ctx, "quiz", 10)
	require.NoError(t, err)
	assert.False(t, hit, "an empty board is not cached")
}

func TestRedisCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Store(ctx, "reaction", sampleEntries()))
	require.NoError(t, c.Invalidate(ctx, "reaction"))
	assert.False(t, mr.Exists(keyRanks("reaction")))

	_, hit, err := c.Leaderboard(ctx, "reaction", 10)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_ConnectionError(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	mr.Close()

	_, _, err := c.Leaderboard(ctx, "memory", 10)
	assert.Error(t, err)
}

func TestNoopCache(t *testing.T) {
	var c Cache = NoopCache{}
	require.NoError(t, c.Store(context.Background(), "x", sampleEntries()))
	_, hit, err := c.Leaderboard(context.Background(), "x", 10)
	require.NoError(t, err)
	assert.False(t, hit)
}
