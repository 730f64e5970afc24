package jobs

import (
	"context"

	"github.com/wonny/movers/internal/cache"
	"github.com/wonny/movers/pkg/logger"
)

// CacheCleanupJob cleans stale fundamentals from cache
type CacheCleanupJob struct {
	cache  *cache.FundamentalsCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(fundamentals *cache.FundamentalsCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  fundamentals,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *CacheCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	count := j.cache.CleanStale()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
