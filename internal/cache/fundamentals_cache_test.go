package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/redis"
)

func pe(v string) contracts.Fundamentals {
	return contracts.Fundamentals{PERatio: contracts.Available(decimal.RequireFromString(v))}
}

func newTestCache(ttl time.Duration, size int, now *time.Time) *FundamentalsCache {
	c := NewFundamentalsCache(ttl, size, logger.Nop())
	c.clock = func() time.Time { return *now }
	return c
}

func TestFundamentalsCache_GetSet(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	c := newTestCache(time.Hour, 10, &now)
	ctx := context.Background()

	_, ok := c.Get(ctx, "AAPL")
	assert.False(t, ok)

	c.Set(ctx, "AAPL", pe("28.5"))
	got, ok := c.Get(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, "28.5", got.PERatio.Decimal.String())

	now = now.Add(61 * time.Minute)
	_, ok = c.Get(ctx, "AAPL")
	assert.False(t, ok, "entries past TTL are misses")
}

func TestFundamentalsCache_EvictsOldestWhenFull(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	c := newTestCache(time.Hour, 3, &now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.Set(ctx, fmt.Sprintf("S%d", i), pe("10"))
		now = now.Add(time.Second)
	}
	c.Set(ctx, "S3", pe("11"))

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(ctx, "S0")
	assert.False(t, ok, "oldest entry is evicted")
	_, ok = c.Get(ctx, "S3")
	assert.True(t, ok)

	// overwriting an existing key never evicts
	c.Set(ctx, "S3", pe("12"))
	assert.Equal(t, 3, c.Len())
}

func TestFundamentalsCache_CleanStaleAndStats(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	c := newTestCache(time.Minute, 10, &now)
	ctx := context.Background()

	c.Set(ctx, "OLD", pe("10"))
	now = now.Add(2 * time.Minute)
	c.Set(ctx, "NEW", pe("10"))

	stats := c.Stats()
	assert.Equal(t, 2, stats.TotalCount)
	assert.Equal(t, 1, stats.StaleCount)

	assert.Equal(t, 1, c.CleanStale())
	assert.Equal(t, 1, c.Len())

	c.Delete("NEW")
	assert.Equal(t, 0, c.Len())
}

func TestFundamentalsCache_SharedTier(t *testing.T) {
	db, mock := redismock.NewClientMock()
	shared := redis.NewCache(redis.Wrap(db), "movers")

	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	c := newTestCache(time.Hour, 10, &now).WithShared(shared)
	ctx := context.Background()

	key := "movers:cache:fundamentals:MSFT"
	mock.ExpectGet(key).SetVal(`{"fundamentals":{"eps":"11.8","pe_ratio":"33.1"},"stored_at":"2026-03-04T08:30:00Z"}`)

	got, ok := c.Get(ctx, "MSFT")
	require.True(t, ok)
	assert.True(t, got.EPS.Valid)
	assert.Equal(t, "33.1", got.PERatio.Decimal.String())

	// promoted locally: no second redis round trip
	_, ok = c.Get(ctx, "MSFT")
	assert.True(t, ok)

	// the promoted copy keeps the shared store time and expires with it
	now = now.Add(31 * time.Minute)
	mock.ExpectGet(key).RedisNil()
	_, ok = c.Get(ctx, "MSFT")
	assert.False(t, ok, "promoted entry must not outlive the shared entry")

	mock.ExpectGet("movers:cache:fundamentals:AMZN").
		SetVal(`{"fundamentals":{"eps":"2.9"},"stored_at":"2026-03-04T07:00:00Z"}`)
	_, ok = c.Get(ctx, "AMZN")
	assert.False(t, ok, "stale shared entries are misses")

	mock.ExpectGet("movers:cache:fundamentals:NFLX").RedisNil()
	_, ok = c.Get(ctx, "NFLX")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}
