package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	limiter := NewRateLimiter(client, "test")

	cfg := FinnhubRateLimit(60)
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 60, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), cfg))
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), &config.Config{})
	cache := NewCache(client, "test")
	ctx := context.Background()

	var out string
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, cache.Delete(ctx, "k"))
}

type fundamentals struct {
	PE  string `json:"pe"`
	EPS string `json:"eps"`
}

func TestCache_GetSetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(Wrap(db), "movers")
	ctx := context.Background()
	key := "movers:cache:" + FundamentalsKey("AAPL")

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte(`{"pe":"28.1","eps":"6.1"}`), time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal(`{"pe":"28.1","eps":"6.1"}`)
	mock.ExpectDel(key).SetVal(1)

	var got fundamentals
	found, err := cache.Get(ctx, FundamentalsKey("AAPL"), &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, FundamentalsKey("AAPL"), fundamentals{PE: "28.1", EPS: "6.1"}, time.Hour))

	found, err = cache.Get(ctx, FundamentalsKey("AAPL"), &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "28.1", got.PE)

	require.NoError(t, cache.Delete(ctx, FundamentalsKey("AAPL")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(Wrap(db), "movers")

	mock.ExpectGet("movers:cache:x").SetErr(errors.New("connection reset"))

	var out string
	found, err := cache.Get(context.Background(), "x", &out)
	assert.Error(t, err)
	assert.False(t, found)
}
