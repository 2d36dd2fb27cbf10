// Command nutriscand is the NutriScan platform service.
// It serves the scoring and nutrition API, the signed intake webhook
// endpoint, and a health check.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/api"
	"github.com/nutriscan/nutriscan/internal/blobstore"
	"github.com/nutriscan/nutriscan/internal/cache"
	"github.com/nutriscan/nutriscan/internal/insights"
	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/platform"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/internal/webhook"
	"github.com/nutriscan/nutriscan/pkg/config"
	"github.com/nutriscan/nutriscan/pkg/engagement"
)

// memoryDatabaseURL selects the in-process store instead of PostgreSQL.
const memoryDatabaseURL = "memory"

type repository interface {
	insights.Repository
	Ping(ctx context.Context) error
}

func loadConfig() (*config.Config, error) {
	path := os.Getenv("NUTRISCAN_CONFIG")
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.FindConfigFile(wd)
		}
	}
	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "nutriscand")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	blobs, err := blobstore.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init report storage: %w", err)
	}

	latest, closeCache, err := newLatestCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	agg, err := cfg.Aggregator()
	if err != nil {
		return err
	}
	scorer, err := cfg.EngagementScorer()
	if err != nil {
		return err
	}

	svc := insights.NewService(repo, blobs, latest, engine, agg, logger).
		WithLocation(cfg.ReportLocation())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(cfg, svc, scorer, repo.Ping, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting nutriscand",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Backend),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}

// openRepository connects to PostgreSQL and applies migrations, or returns
// the in-process store when the database URL is "memory".
func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository, func(), error) {
	if cfg.Server.DatabaseURL == memoryDatabaseURL {
		logger.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	db, err := platform.OpenDB(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Server.AutoMigrate {
		if err := platform.AutoMigrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		if v, _, err := platform.MigrationVersion(db); err == nil {
			logger.Info("database migrated", zap.Uint("version", v))
		}
	}
	return store.New(db, logger), func() { _ = db.Close() }, nil
}

// newLatestCache returns a Redis-backed cache when an address is configured,
// otherwise an in-process LRU.
func newLatestCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*cache.AssessmentCache, func(), error) {
	ttl := cfg.Cache.TTLDuration()
	if cfg.Cache.RedisAddr == "" {
		return cache.NewAssessmentCache(cache.NewLRUStore(cfg.Cache.LRUSize), ttl, logger), func() {}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using redis cache", zap.String("addr", cfg.Cache.RedisAddr))
	return cache.NewAssessmentCache(cache.NewRedisKVStore(client), ttl, logger), func() { _ = client.Close() }, nil
}

// newRouter mounts the API behind the API key, the intake webhook behind its
// signature, and an unauthenticated health check.
func newRouter(cfg *config.Config, svc *insights.Service, scorer *engagement.Scorer, health api.HealthFunc, logger *zap.Logger) http.Handler {
	h := api.NewHandler(svc, scorer, health, logger)

	apiMux := http.NewServeMux()
	h.RegisterRoutes(apiMux)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.APIKeyAuth(cfg.Server.APIKey)(apiMux))
	mux.HandleFunc("GET /healthz", h.Healthz)
	if cfg.Server.WebhookSecret != "" {
		mux.Handle("POST /v1/webhooks/intake", webhook.NewHandler([]byte(cfg.Server.WebhookSecret), svc, logger))
	} else {
		logger.Warn("WEBHOOK_SECRET not set; intake webhook disabled")
	}

	return api.RequestLogger(logger)(api.CORS(cfg.Server.CORSOrigin)(mux))
}
