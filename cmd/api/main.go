package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/omadigital/engage-core/internal/api/router"
	"github.com/omadigital/engage-core/internal/chat"
	appconfig "github.com/omadigital/engage-core/internal/config"
	"github.com/omadigital/engage-core/internal/cta"
	"github.com/omadigital/engage-core/internal/experiments"
	"github.com/omadigital/engage-core/internal/http/handlers"
	"github.com/omadigital/engage-core/internal/language"
	"github.com/omadigital/engage-core/internal/monitoring"
	"github.com/omadigital/engage-core/internal/webchat"
	"github.com/omadigital/engage-core/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting engage-core API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis holds session transcripts.
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	// Postgres holds CTA definitions and experiment data.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = sqlDB.Close() }()

	geminiClient, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to create inference client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = geminiClient.Close() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := monitoring.NewChatMetrics(registry)
	snapshot := monitoring.NewSnapshot()

	ctaRepo := cta.NewRepository(pool, logger.WithComponent("cta"))
	catalog := cta.NewCatalog(ctaRepo, cfg.CatalogRefreshEvery, logger.WithComponent("cta_catalog"))
	go catalog.Start(ctx)

	resolver := language.NewResolver(
		chat.DetectWith(geminiClient),
		cfg.DetectTimeout,
		cfg.DetectRetryBackoff,
		logger.WithComponent("language"),
	)

	sessionStore := chat.NewSessionStore(redisClient, cfg.SessionTTL, int64(cfg.SessionMaxMessages))
	limiter := chat.NewSessionLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	defer limiter.Close()
	sanitizer := chat.NewSanitizer(chat.SanitizerConfig{MaxLength: cfg.MaxMessageLength})

	chatSvc := chat.NewService(chat.ServiceConfig{
		Sanitizer:        sanitizer,
		Limiter:          limiter,
		Store:            sessionStore,
		Resolver:         resolver,
		Catalog:          catalog,
		Inference:        geminiClient,
		Metrics:          chatMetrics,
		Snapshot:         snapshot,
		Logger:           logger.WithComponent("chat"),
		InferenceTimeout: cfg.InferenceTimeout,
	})

	expStore := experiments.NewStore(sqlDB)
	expSvc := experiments.NewService(expStore, experiments.Defaults(), logger.WithComponent("experiments"))

	routerCfg := &router.Config{
		Logger:             logger,
		Webchat:            webchat.NewHandler(chatSvc, logger.WithComponent("webchat")),
		Experiments:        handlers.NewExperimentsHandler(expSvc, chatMetrics, logger),
		CTA:                handlers.NewCTAHandler(ctaRepo, catalog, logger),
		AdminMetrics:       handlers.NewAdminMetricsHandler(snapshot),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AdminToken:         cfg.AdminToken,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
