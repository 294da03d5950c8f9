// Package main is the entry point for the adaptive learning analytics engine.
//
// The engine sits behind the LMS backend and owns the learner-analytics
// slice of the platform: the enrollment/progress ledger, the engagement
// accumulator with periodic learning-style classification, achievement
// evaluation, certificate issuance, and best-effort style reporting to the
// analytics sink.
//
// The layout follows Clean Architecture / DDD:
//   - Domain: pure business logic, no external dependencies
//   - Application: use-case orchestration (Commands/Queries/Sagas)
//   - Infrastructure: repositories, caches, external service clients
//   - Interface: HTTP API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/arlearn/arlearn-engine/config"

	// Application layer
	"github.com/arlearn/arlearn-engine/internal/application/command"
	"github.com/arlearn/arlearn-engine/internal/application/eventhandler"
	"github.com/arlearn/arlearn-engine/internal/application/query"
	"github.com/arlearn/arlearn-engine/internal/application/saga"

	// Domain layer
	"github.com/arlearn/arlearn-engine/internal/domain/learner"
	"github.com/arlearn/arlearn-engine/internal/domain/shared"

	// Infrastructure layer
	"github.com/arlearn/arlearn-engine/internal/infrastructure/external/renderer"
	"github.com/arlearn/arlearn-engine/internal/infrastructure/external/reporter"
	"github.com/arlearn/arlearn-engine/internal/infrastructure/messaging"
	"github.com/arlearn/arlearn-engine/internal/infrastructure/persistence/postgres"
	"github.com/arlearn/arlearn-engine/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/arlearn/arlearn-engine/internal/interface/http"

	// Packages
	"github.com/arlearn/arlearn-engine/pkg/circuitbreaker"
	"github.com/arlearn/arlearn-engine/pkg/logger"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application together and blocks until shutdown.
func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		AddSource: cfg.App.Debug,
	})
	slog.SetDefault(log)

	log.Info("starting",
		"app", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. POSTGRESQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to PostgreSQL...")

	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		dbConn, err = postgres.NewConnection(ctx, postgres.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			SSLMode:         cfg.Database.SSLMode,
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MinIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		})
	}
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = dbConn.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("PostgreSQL connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.RunMigrations {
		log.Info("running migrations...")
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// The snapshot query degrades to straight repository reads without it.
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var snapshotCache query.SnapshotCache
	var snapshotInvalidator command.SnapshotInvalidator

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			log.Warn("failed to connect to Redis, snapshot caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			snapshots := redis.NewSnapshotCache(redisCache)
			snapshotCache = snapshots
			snapshotInvalidator = snapshots
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	courseRepo := postgres.NewCourseRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBus := messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      cfg.EventBus.AsyncMode,
		WorkerPoolSize: cfg.EventBus.WorkerPoolSize,
		Logger:         log,
		EnableMetrics:  true,
	})
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	rendererCfg := renderer.DefaultClientConfig(cfg.Renderer.BaseURL)
	rendererCfg.APIKey = cfg.Renderer.APIKey
	rendererCfg.Logger = log
	if cfg.Renderer.RequestTimeout > 0 {
		rendererCfg.Timeout = cfg.Renderer.RequestTimeout
	}
	rendererClient := renderer.NewClient(rendererCfg)

	var reporterClient *reporter.Client
	if !cfg.Reporter.Disabled {
		reporterCfg := reporter.DefaultClientConfig(cfg.Reporter.BaseURL)
		reporterCfg.APIKey = cfg.Reporter.APIKey
		reporterCfg.Logger = log
		if cfg.Reporter.RequestTimeout > 0 {
			reporterCfg.Timeout = cfg.Reporter.RequestTimeout
		}
		reporterClient = reporter.NewClient(reporterCfg)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	achievements := learner.NewEvaluator(learner.DefaultRules()...)

	certificateFlow := saga.NewCertificateFlow(
		progressRepo, learnerRepo, courseRepo,
		rendererClient, eventBus, log,
		saga.CertificateFlowConfig{},
	)

	registerLearnerCmd := command.NewRegisterLearnerHandler(learnerRepo, eventBus, log)
	enrollCmd := command.NewEnrollHandler(learnerRepo, progressRepo, courseRepo, achievements, eventBus, log)
	updateProgressCmd := command.NewUpdateProgressHandler(learnerRepo, progressRepo, certificateFlow, achievements, eventBus, log)
	recordActivityCmd := command.NewRecordActivityHandler(learnerRepo, achievements, eventBus, snapshotInvalidator, log)
	issueCertificateCmd := command.NewIssueCertificateHandler(certificateFlow)

	getProgressQuery := query.NewGetProgressHandler(progressRepo)
	listProgressQuery := query.NewListProgressHandler(progressRepo, courseRepo, log)
	progressHistoryQuery := query.NewGetProgressHistoryHandler(progressRepo)
	analyticsQuery := query.NewGetAnalyticsSnapshotHandler(learnerRepo, snapshotCache, log)
	achievementsQuery := query.NewListAchievementsHandler(learnerRepo, learner.DefaultRules())
	recommendationsQuery := query.NewGetRecommendationsHandler(learnerRepo, progressRepo, courseRepo, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if reporterClient != nil {
		log.Info("registering event handlers...")
		dispatcher := eventhandler.NewStyleReportDispatcher(learnerRepo, reporterClient, log)
		if err := eventBus.Subscribe(shared.EventStyleReclassified, dispatcher); err != nil {
			return fmt.Errorf("subscribe style report dispatcher: %w", err)
		}
	} else {
		log.Info("analytics reporter disabled, style reports will not be dispatched")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.APIKeyHashes = cfg.HTTP.APIKeyHashes

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		RegisterLearner:  registerLearnerCmd,
		Enroll:           enrollCmd,
		UpdateProgress:   updateProgressCmd,
		RecordActivity:   recordActivityCmd,
		IssueCertificate: issueCertificateCmd,

		GetProgress:          getProgressQuery,
		ListProgress:         listProgressQuery,
		GetProgressHistory:   progressHistoryQuery,
		GetAnalyticsSnapshot: analyticsQuery,
		ListAchievements:     achievementsQuery,
		GetRecommendations:   recommendationsQuery,

		Health: &healthChecker{
			db:       dbConn,
			cache:    redisCache,
			renderer: rendererClient.Breaker(),
		},
		Logger: log,
	})

	errCh := server.StartAsync()
	log.Info("HTTP server started", "addr", serverCfg.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 12. WAIT FOR SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown complete")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker aggregates per-component health for the /health endpoint.
// Redis is optional; a nil cache is simply omitted. The renderer is judged
// by its circuit breaker rather than probed, so health checks stay cheap.
type healthChecker struct {
	db       *postgres.Connection
	cache    *redis.Cache
	renderer *circuitbreaker.CircuitBreaker
}

// Health implements httpserver.HealthChecker.
func (h *healthChecker) Health(ctx context.Context) map[string]error {
	checks := map[string]error{
		"postgres": h.db.Ping(ctx),
	}
	if h.cache != nil {
		checks["redis"] = h.cache.Ping(ctx)
	}
	if h.renderer != nil && h.renderer.State() == circuitbreaker.StateOpen {
		checks["renderer"] = fmt.Errorf("circuit breaker open")
	} else {
		checks["renderer"] = nil
	}
	return checks
}
