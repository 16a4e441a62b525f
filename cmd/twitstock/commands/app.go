package commands

import (
	"context"
	"fmt"

	"github.com/wonny/twitstock/internal/brain"
	"github.com/wonny/twitstock/internal/external/yahoo"
	"github.com/wonny/twitstock/internal/features"
	"github.com/wonny/twitstock/internal/pipeline"
	"github.com/wonny/twitstock/internal/pipelineconfig"
	"github.com/wonny/twitstock/internal/universe"
	"github.com/wonny/twitstock/pkg/config"
	"github.com/wonny/twitstock/pkg/database"
	"github.com/wonny/twitstock/pkg/httputil"
	"github.com/wonny/twitstock/pkg/logger"
	"github.com/wonny/twitstock/pkg/objstore"
	"github.com/wonny/twitstock/pkg/redis"
)

// app holds everything a command needs to run the pipeline
type app struct {
	cfg          *config.Config
	pipeline     *pipelineconfig.Config
	log          *logger.Logger
	db           database.Store
	redis        *redis.Client
	orchestrator *brain.Orchestrator
}

// newApp wires config, storage, market data and the executor
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if pipelineFile != "" {
		cfg.PipelineConfigFile = pipelineFile
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	pcfg, err := pipelineconfig.LoadOrDefault(cfg.PipelineConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	// 3. Connect to feature store
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Redis (rate limit, cache, optional object store)
	rc, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	a := &app{cfg: cfg, pipeline: pcfg, log: log, db: db, redis: rc}

	// 5. Object stores
	data, err := objstore.Open(ctx, cfg.Storage.URL, cfg, rc)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open data store: %w", err)
	}
	artifacts, err := objstore.Open(ctx, cfg.Storage.ArtifactURL, cfg, rc)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open artifact store: %w", err)
	}

	// 6. Market data client
	httpClient := httputil.New(cfg, log).
		WithRateLimiter(redis.NewRateLimiter(rc, "ratelimit"), redis.MarketDataRateLimit(cfg.MarketData.RateLimit))
	prices := yahoo.NewClient(httpClient, redis.NewCache(rc, "marketdata"), cfg.MarketData, log)

	// 7. Orchestrator
	deps := brain.Dependencies{
		DB:         db,
		Data:       data,
		Artifacts:  artifacts,
		Prices:     prices,
		Scorer:     features.NewVaderScorer(),
		Universe:   universe.NewLoader(cfg.Paths.CashtagsFile),
		Pipeline:   pcfg,
		TwitterDir: cfg.Paths.TwitterDir,
		Logger:     log,
	}
	a.orchestrator = brain.NewOrchestrator(deps, pipeline.NewExecutor(cfg.Workers, log))

	log.WithFields(map[string]interface{}{
		"db":        db.Driver(),
		"data":      data.URI(""),
		"artifacts": artifacts.URI(""),
		"workers":   cfg.Workers,
	}).Debug("Pipeline wired")

	return a, nil
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
