package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wonny/movers/internal/cache"
	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/internal/external/finnhub"
	"github.com/wonny/movers/internal/external/webtable"
	"github.com/wonny/movers/internal/leaderboard"
	"github.com/wonny/movers/internal/scheduler"
	"github.com/wonny/movers/internal/scheduler/jobs"
	"github.com/wonny/movers/internal/screenconfig"
	"github.com/wonny/movers/internal/screening"
	"github.com/wonny/movers/internal/selection"
	"github.com/wonny/movers/internal/store"
	"github.com/wonny/movers/pkg/config"
	"github.com/wonny/movers/pkg/database"
	"github.com/wonny/movers/pkg/httputil"
	"github.com/wonny/movers/pkg/logger"
	"github.com/wonny/movers/pkg/metrics"
	"github.com/wonny/movers/pkg/redis"
)

const (
	upstreamTimeout = 15 * time.Second
	breakerCooldown = 30 * time.Second
)

// app holds every long-lived dependency a command may need
type app struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	redis   *redis.Client

	backend leaderboard.Backend
	store   *leaderboard.Store

	rules    *screenconfig.Config
	rule     *selection.Rule
	rankKey  selection.RankKey
	ruleHash string

	fundamentals *cache.FundamentalsCache
	httpClient   *httputil.Client
	universe     contracts.UniverseProvider
	snapshots    contracts.SnapshotProvider

	closers []func()
}

// newApp loads config and opens every connection. logOut receives the
// structured log; one-shot commands pass stderr so stdout stays a table.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if ruleFile != "" {
		cfg.Screening.RuleFile = ruleFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Logger & metrics
	a := &app{cfg: cfg, logger: logger.NewWithWriter(cfg, logOut)}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 3. Screening rule
	if err := a.loadRule(); err != nil {
		return nil, err
	}

	// 4. Redis (disabled config yields a no-op client)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close Redis client")
		}
	})

	// 5. Leaderboard store
	backend, closeBackend, err := store.Open(ctx, cfg, a.redis, a.logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	a.closers = append(a.closers, closeBackend)
	a.backend = backend

	calendar, err := a.rules.NewCalendar()
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = leaderboard.NewStore(backend, calendar, a.rankKey, a.logger, leaderboard.WithMetrics(a.metrics))

	// 6. Market data
	a.wireProviders()

	a.logger.WithFields(map[string]interface{}{
		"store":     backend.Name(),
		"universe":  cfg.Screening.UniverseSource,
		"rule_hash": a.ruleHash,
		"redis":     a.redis.Enabled(),
	}).Info("Dependencies initialized")

	return a, nil
}

func (a *app) loadRule() error {
	rules, err := screenconfig.Resolve(a.cfg)
	if err != nil {
		return fmt.Errorf("resolve rule: %w", err)
	}
	rule, err := selection.NewRule(rules.RuleConfig())
	if err != nil {
		return fmt.Errorf("build rule: %w", err)
	}
	rankKey, err := rules.RankKey()
	if err != nil {
		return err
	}
	hash, err := screenconfig.Hash(rules)
	if err != nil {
		return err
	}

	a.rules, a.rule, a.rankKey, a.ruleHash = rules, rule, rankKey, hash
	return nil
}

func (a *app) wireProviders() {
	cfg := a.cfg

	a.fundamentals = cache.NewFundamentalsCache(cfg.FundamentalsCache.TTL, cfg.FundamentalsCache.MaxSize, a.logger)
	if a.redis.Enabled() {
		a.fundamentals.WithShared(redis.NewCache(a.redis, cfg.Store.KeyPrefix))
	}

	a.httpClient = httputil.New(a.logger.WithComponent("finnhub_http"), upstreamTimeout).
		WithHeader(finnhub.TokenHeader, cfg.Finnhub.APIKey).
		WithLocalLimit(cfg.Finnhub.RatePerMinute).
		WithCircuitBreaker("finnhub", breakerCooldown)
	if a.redis.Enabled() {
		a.httpClient.WithRateLimiter(
			redis.NewRateLimiter(a.redis, cfg.Store.KeyPrefix),
			redis.FinnhubRateLimit(cfg.Finnhub.RatePerMinute),
		)
	}

	client := finnhub.NewClient(a.httpClient, cfg.Finnhub.BaseURL, a.logger)
	provider := finnhub.NewProvider(client, a.fundamentals, a.logger)
	a.snapshots = provider
	a.universe = provider

	if cfg.Screening.UniverseSource == "html" {
		// the token header stays on the finnhub client only
		htmlClient := httputil.New(a.logger.WithComponent("universe_http"), upstreamTimeout).
			WithCircuitBreaker("universe_html", breakerCooldown)
		a.universe = webtable.NewSource(htmlClient, cfg.Screening.HTMLURL, cfg.Screening.HTMLSelector, a.logger)
	}
}

// engine builds a screening engine that hands each cycle to presenter
func (a *app) engine(presenter contracts.Presenter) *screening.Engine {
	s := a.cfg.Screening
	screener := selection.NewScreener(a.rule, a.logger)

	return screening.NewEngine(
		a.universe,
		a.snapshots,
		screener,
		a.store,
		a.rankKey,
		presenter,
		screening.Options{
			Market:           s.Market,
			UniverseSize:     s.UniverseSize,
			Workers:          s.Workers,
			SymbolTimeout:    s.SymbolTimeout,
			DailyAdmitLimit:  a.rules.Limits.Daily,
			WeeklyAdmitLimit: a.rules.Limits.Weekly,
			RuleHash:         a.ruleHash,
		},
		a.metrics,
		a.logger,
	)
}

// scheduler registers the cycle, rollover and cache jobs
func (a *app) scheduler(engine *screening.Engine) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.logger,
		scheduler.WithMetrics(a.metrics),
		scheduler.WithLocation(a.store.Calendar().Location()),
	)

	for _, job := range []scheduler.Job{
		jobs.NewScreeningJob(engine, a.cfg.Screening.CycleInterval, a.logger),
		jobs.NewRolloverJob(a.store, a.logger),
		jobs.NewCacheCleanupJob(a.fundamentals, a.logger),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	return sched, nil
}

// database returns the Postgres pool when that backend is active
func (a *app) database() *database.DB {
	if pg, ok := a.backend.(*store.PostgresBackend); ok {
		return pg.DB()
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
