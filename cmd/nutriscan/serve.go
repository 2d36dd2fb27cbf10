package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/api"
	"github.com/nutriscan/nutriscan/internal/blobstore"
	"github.com/nutriscan/nutriscan/internal/cache"
	"github.com/nutriscan/nutriscan/internal/insights"
	"github.com/nutriscan/nutriscan/internal/logging"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/pkg/config"
)

func newServeCmd() *cobra.Command {
	var (
		port    string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local API server backed by an in-memory store",
		Long: `Starts the NutriScan HTTP API on localhost without PostgreSQL or Redis.
Assessments and nutrition entries live in memory and are lost on exit;
generated reports are archived under --data-dir.

Usage:
  nutriscan serve --port 7700
  curl -X POST localhost:7700/api/v1/score -d @readings.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, port, dataDir)
		},
	}

	cmd.Flags().StringVar(&port, "port", "7700", "Port to serve on")
	cmd.Flags().StringVar(&dataDir, "data-dir", filepath.Join(os.TempDir(), "nutriscan-local"), "Directory for archived reports")

	return cmd
}

// newLocalHandler wires the API over in-process backends.
func newLocalHandler(cfg *config.Config, dataDir string, logger *zap.Logger) (http.Handler, error) {
	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	agg, err := cfg.Aggregator()
	if err != nil {
		return nil, err
	}
	scorer, err := cfg.EngagementScorer()
	if err != nil {
		return nil, err
	}

	repo := store.NewMemory()
	latest := cache.NewAssessmentCache(cache.NewLRUStore(cfg.Cache.LRUSize), cfg.Cache.TTLDuration(), logger)
	svc := insights.NewService(repo, blobstore.NewLocalStorage(dataDir), latest, engine, agg, logger).
		WithLocation(cfg.ReportLocation())

	h := api.NewHandler(svc, scorer, repo.Ping, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", h.Healthz)

	// CORS middleware for browser clients on another port
	return api.CORS("*")(api.RequestLogger(logger)(mux)), nil
}

func runServe(ctx context.Context, cfg *config.Config, port, dataDir string) error {
	logger, err := logging.New(cfg.Log.Level, "console", "nutriscan")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	handler, err := newLocalHandler(cfg, dataDir, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "NutriScan local API server\n")
	fmt.Fprintf(os.Stderr, "  Reports:    %s\n", dataDir)
	fmt.Fprintf(os.Stderr, "  Listening:  http://localhost:%s\n", port)

	srv := &http.Server{Addr: ":" + port, Handler: handler}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
