package main

import (
	"context"
	"fmt"
	"time"

	"catalog-assistant/internal/catalog"
	"catalog-assistant/internal/clarification"
	"catalog-assistant/internal/classifier"
	"catalog-assistant/internal/common/config"
	"catalog-assistant/internal/common/database"
	"catalog-assistant/internal/common/logger"
	"catalog-assistant/internal/common/observability"
	"catalog-assistant/internal/composer"
	"catalog-assistant/internal/oracle"
	"catalog-assistant/internal/router"
	"catalog-assistant/internal/server"
	"catalog-assistant/internal/session"
	"catalog-assistant/pkg/registry"

	"go.uber.org/zap"
)

// app holds the wired assistant and everything that must be closed with it.
type app struct {
	service *router.Service
	obs     *observability.Observability
	checks  map[string]server.HealthCheck
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.obs.Shutdown()
}

// retryWithBackoff runs operation until it succeeds or maxRetries is spent,
// doubling the delay after each failure.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
			zap.Error(err),
			zap.Int("attempt", i+1),
			zap.Int("maxRetries", maxRetries),
			zap.Duration("nextRetryIn", delay),
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func newApp(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*app, error) {
	log := logger.NewZapAdapter(zapLog)
	a := &app{
		obs:    observability.New(cfg.App.Name),
		checks: make(map[string]server.HealthCheck),
	}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	// --- Catalog database ---
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		if pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, pg.Close)
	a.checks["postgres"] = pg.Ping
	zapLog.Info("PostgreSQL connected successfully")

	catalogOpts := catalog.Options{
		MinFuzzyTokenLength: cfg.Catalog.MinFuzzyTokenLength,
		MaxSearchResults:    cfg.Catalog.MaxSearchResults,
	}
	catalogLog := logger.ForComponent(log, "catalog")
	var gw catalog.Gateway = catalog.NewPostgresGateway(pg.DB, catalogOpts, catalogLog)

	if cfg.Catalog.SearchBackend == "elasticsearch" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return fail(err)
		}
		if err := es.Ping(ctx); err != nil {
			return fail(err)
		}
		a.checks["elasticsearch"] = es.Ping
		gw = catalog.WithTextSearch(gw, catalog.NewSearchIndex(es.Client, es.Index, catalogOpts, catalogLog))
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", es.Index))
	}

	// --- Redis (session store and catalog cache) ---
	var rdb *database.RedisClient
	if cfg.Session.Backend == "redis" || cfg.Catalog.CacheTTL > 0 {
		rdb = database.NewRedis(cfg.Database.Redis)
		if err := retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 5, time.Second, zapLog, "Redis connection"); err != nil {
			_ = rdb.Close()
			return fail(err)
		}
		a.closers = append(a.closers, rdb.Close)
		a.checks["redis"] = rdb.Ping
		zapLog.Info("Redis connected successfully")
	}

	if cfg.Catalog.CacheTTL > 0 {
		gw = catalog.NewCachedGateway(gw, rdb.Client, config.GetSeconds(cfg.Catalog.CacheTTL), catalogLog)
	}
	gw = catalog.InstrumentWithTimeout(gw, config.GetDuration(cfg.Catalog.Timeout), catalogLog)

	// --- NLU oracle ---
	oracleLog := logger.ForComponent(log, "oracle")
	var backend oracle.Oracle
	switch cfg.Oracle.Provider {
	case "gemini":
		gc, err := oracle.NewGeminiClient(ctx, cfg.Oracle.APIKey, cfg.Oracle.Model, config.GetDuration(cfg.Oracle.Timeout), oracleLog)
		if err != nil {
			return fail(err)
		}
		backend = gc
	default:
		backend = oracle.NewHTTPClient(&oracle.HTTPConfig{
			BaseURL:    cfg.Oracle.BaseURL,
			APIKey:     cfg.Oracle.APIKey,
			Timeout:    config.GetDuration(cfg.Oracle.Timeout),
			MaxRetries: cfg.Oracle.MaxRetries,
		}, oracleLog)
	}
	ext := oracle.NewExtractor(backend, oracleLog)

	// --- Conversation pipeline ---
	replies := registry.Default()
	if cfg.Chitchat.RegistryPath != "" {
		if replies, err = registry.LoadRegistry(cfg.Chitchat.RegistryPath); err != nil {
			return fail(fmt.Errorf("load reply registry: %w", err))
		}
	}

	cls := classifier.New(ext, replies, classifier.Options{Categories: cfg.Chitchat.Categories}, logger.ForComponent(log, "classifier"))
	res := clarification.NewResolver(ext, gw, logger.ForComponent(log, "clarification"))
	comp := composer.New(composer.Options{
		CurrencySymbol:   cfg.Composer.CurrencySymbol,
		DimensionUnit:    cfg.Composer.DimensionUnit,
		ListingCap:       cfg.Composer.ListingCap,
		PhraseWithOracle: cfg.Composer.PhraseWithOracle,
	}, ext, logger.ForComponent(log, "composer"))

	rt := router.New(cls, res, gw, comp, logger.ForComponent(log, "router")).WithObservability(a.obs)

	var store session.Store
	ttl := config.GetSeconds(cfg.Session.TTL)
	if cfg.Session.Backend == "redis" {
		store = session.NewRedisStore(rdb.Client, cfg.Session.KeyPrefix, ttl)
	} else {
		store = session.NewMemoryStore(ttl)
	}

	a.service = router.NewService(rt, store, logger.ForComponent(log, "session"))
	return a, nil
}
