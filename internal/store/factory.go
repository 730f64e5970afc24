package store

import (
	"context"
	"fmt"

	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/pkg/config"
	"github.com/wonny/movers/pkg/database"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/mongodb"
	"github.com/wonny/movers/pkg/redis"
)

// Open builds the backend selected by STORE_BACKEND.
// The returned close func releases whatever connection the backend opened.
func Open(ctx context.Context, cfg *config.Config, redisClient *redis.Client, log *logger.Logger) (leaderboard.Backend, func(), error) {
	noop := func() {}

	switch cfg.Store.Backend {
	case "memory", "":
		return leaderboard.NewMemoryBackend(), noop, nil

	case "redis":
		if redisClient == nil || !redisClient.Enabled() {
			return nil, noop, fmt.Errorf("redis store requires an enabled redis client")
		}
		return NewRedisBackend(redisClient, cfg.Store.KeyPrefix), noop, nil

	case "postgres":
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		backend, err := NewPostgresBackend(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return backend, db.Close, nil

	case "mongo":
		client, err := mongodb.New(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := client.Close(context.Background()); err != nil {
				log.WithError(err).Warn("Failed to close MongoDB client")
			}
		}
		return NewMongoBackend(client), closeFn, nil

	case "sqlite":
		backend, err := NewSQLiteBackend(cfg.Store.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		closeFn := func() {
			if err := backend.Close(); err != nil {
				log.WithError(err).Warn("Failed to close SQLite database")
			}
		}
		return backend, closeFn, nil
	}

	return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
