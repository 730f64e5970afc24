package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/pkg/redis"
)

// RedisBackend stores each leaderboard as one msgpack value whose TTL ends at
// the board's rollover, so Redis purges expired boards on its own.
type RedisBackend struct {
	client *redis.Client
	prefix string
	clock  func() time.Time
}

// NewRedisBackend creates a Redis-backed leaderboard backend
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	return &RedisBackend{client: client, prefix: prefix, clock: time.Now}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) key(kind contracts.Kind) string {
	return fmt.Sprintf("%s:leaderboard:%s", b.prefix, kind)
}

func (b *RedisBackend) Get(ctx context.Context, kind contracts.Kind) (*leaderboard.Record, error) {
	data, err := b.client.Redis().Get(ctx, b.key(kind)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return fromDocument(doc)
}

func (b *RedisBackend) Put(ctx context.Context, rec *leaderboard.Record) error {
	data, err := msgpack.Marshal(toDocument(rec))
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}

	ttl := rec.ValidUntil.Sub(b.clock())
	if ttl < time.Second {
		ttl = time.Second
	}

	if err := b.client.Redis().Set(ctx, b.key(rec.Kind), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, kind contracts.Kind) error {
	if err := b.client.Redis().Del(ctx, b.key(kind)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
