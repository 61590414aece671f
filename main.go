package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/collegematch/collegematch-engine/pkg/audit"
	"github.com/collegematch/collegematch-engine/pkg/auth"
	"github.com/collegematch/collegematch-engine/pkg/catalog"
	"github.com/collegematch/collegematch-engine/pkg/config"
	"github.com/collegematch/collegematch-engine/pkg/database"
	"github.com/collegematch/collegematch-engine/pkg/handlers"
	"github.com/collegematch/collegematch-engine/pkg/llm"
	"github.com/collegematch/collegematch-engine/pkg/logging"
	"github.com/collegematch/collegematch-engine/pkg/middleware"
	"github.com/collegematch/collegematch-engine/pkg/ranking"
	"github.com/collegematch/collegematch-engine/pkg/repositories"
	"github.com/collegematch/collegematch-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.String("error", logging.SanitizeError(err)))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.Bool("cache", cfg.Redis.Host != ""),
		zap.Bool("ranking", cfg.Ranking.IsAvailable()),
		zap.String("ranking_failure_policy", cfg.Search.RankingFailurePolicy))

	// Storage
	if err := migrate(cfg.Database, logger); err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	var cache catalog.Cache
	rdb, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Catalog cache disabled", zap.Error(err))
	} else if rdb != nil {
		defer func() { _ = rdb.Close() }()
		cache = catalog.NewRedisCache(rdb)
	}

	// Pipeline
	fetcher := catalog.NewScorecardClient(cfg.Catalog, cache, logger)

	gen, err := llm.NewGenerator(cfg.Ranking, logger)
	if err != nil {
		return fmt.Errorf("create ranking provider: %w", err)
	}
	var ranker ranking.Ranker
	if gen != nil {
		ranker = ranking.NewLLMRanker(gen, logger)
	}

	profileRepo := repositories.NewProfileRepository(db)
	resultRepo := repositories.NewSearchResultRepository(db)
	savedRepo := repositories.NewSavedCollegeRepository(db)

	auditor := audit.NewSecurityAuditor(logger)
	profileService := services.NewProfileService(profileRepo, auditor, logger)
	searchService := services.NewSearchService(cfg.Search, profileRepo, resultRepo, fetcher, ranker, logger)
	savedService := services.NewSavedCollegeService(savedRepo, logger)

	// Auth
	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("initialize JWKS client: %w", err)
	}
	defer jwksClient.Close()
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(jwksClient, logger), logger)

	// HTTP
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db.Pool, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	limiter := middleware.NewUserRateLimiter(cfg.Search.RateLimitPerMinute, cfg.Search.RateLimitBurst, auditor, logger)
	handlers.NewProfileHandler(profileService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSearchHandler(searchService, limiter, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewSavedCollegeHandler(savedService, logger).RegisterRoutes(mux, authMiddleware)

	handler := middleware.CORS(cfg.CORS)(middleware.RequestLogger(logger)(mux))

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Searches may run for the full pipeline timeout.
		WriteTimeout: cfg.Search.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting collegematch-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Stopped")
	return nil
}

// migrate applies pending schema migrations over a short-lived database/sql
// connection; golang-migrate does not accept a pgxpool.
func migrate(cfg config.DatabaseConfig, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.URL())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
