package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wonny/betascope/internal/analysis"
	"github.com/wonny/betascope/internal/beta"
	"github.com/wonny/betascope/internal/contracts"
	"github.com/wonny/betascope/internal/external/yahoo"
	"github.com/wonny/betascope/internal/portfolio"
	"github.com/wonny/betascope/internal/pricecache"
	"github.com/wonny/betascope/internal/session"
	"github.com/wonny/betascope/internal/store"
	"github.com/wonny/betascope/internal/watchlist"
	"github.com/wonny/betascope/pkg/config"
	"github.com/wonny/betascope/pkg/database"
	"github.com/wonny/betascope/pkg/httputil"
	"github.com/wonny/betascope/pkg/logger"
	"github.com/wonny/betascope/pkg/redis"
)

const cachePrefix = "betascope"

// app holds every dependency a command needs
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	cache    *redis.Cache
	source   *pricecache.Source
	analyzer *analysis.Analyzer
	store    contracts.HoldingStore
	policy   portfolio.DuplicatePolicy
	session  *session.Session
}

// newApp wires config → logger → infra → domain in one place
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.LoadFrom(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger (stderr keeps stdout for reports)
	log := logger.NewWithWriter(cfg, os.Stderr)

	a := &app{cfg: cfg, log: log}

	// 3. Infra: database only for the postgres store, redis only when enabled
	if cfg.Store.Backend == config.BackendPostgres {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		log.Debug("Connected to database")
	}

	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.Disabled()
	}
	a.cache = redis.NewCache(a.redis, cachePrefix)

	// 4. Price source: HTTP client → Yahoo → cache
	httpClient := httputil.New(log, cfg.Yahoo.Timeout).WithRate(cfg.Yahoo.RatePerSecond)
	if a.redis.Enabled() {
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(a.redis, cachePrefix), redis.YahooRateLimit)
	}
	yahooClient := yahoo.NewClient(httpClient, log, cfg.Yahoo.BaseURL)
	a.source = pricecache.New(yahooClient, a.cache, log, cfg.Redis.SeriesTTL, cfg.Redis.QuoteTTL)

	// 5. Analysis
	estimator, err := beta.NewEstimator(contracts.BetaMethod(cfg.Analysis.BetaMethod), cfg.Analysis.MinSamples)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create estimator: %w", err)
	}
	a.analyzer = analysis.New(a.source, estimator, log, analysis.Config{
		Benchmark:   cfg.Analysis.BenchmarkTicker,
		Period:      cfg.Analysis.Period,
		Concurrency: cfg.Analysis.FetchConcurrency,
	})

	a.policy, err = portfolio.ParseDuplicatePolicy(cfg.Analysis.DuplicatePolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	// 6. Storage
	a.store, err = store.Open(ctx, cfg, a.db)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	// 7. Session
	optimizer := watchlist.NewOptimizer(
		watchlist.NewList(cfg.Store.WatchlistFile),
		a.analyzer,
		a.source,
		log,
		cfg.Analysis.FetchConcurrency,
	)
	a.session = session.New(
		portfolio.New(cfg.Analysis.BenchmarkTicker, a.policy),
		a.store,
		a.analyzer,
		a.source,
		optimizer,
		log,
	)

	return a, nil
}

// loadSaved restores the saved holdings; nothing saved yet is an empty portfolio
func (a *app) loadSaved(ctx context.Context) error {
	if _, err := a.session.Load(ctx); err != nil && !errors.Is(err, store.ErrNoSavedPortfolio) {
		return err
	}
	return nil
}

// Close releases infra connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
