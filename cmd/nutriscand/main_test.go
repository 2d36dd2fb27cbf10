package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/blobstore"
	"github.com/nutriscan/nutriscan/internal/cache"
	"github.com/nutriscan/nutriscan/internal/insights"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/internal/webhook"
	"github.com/nutriscan/nutriscan/pkg/config"
	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("NUTRISCAN_CONFIG", "/does/not/exist.yaml")
	t.Setenv("PORT", "9191")
	t.Setenv("DATABASE_URL", memoryDatabaseURL)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, memoryDatabaseURL, cfg.Server.DatabaseURL)
}

func TestOpenRepository_Memory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.DatabaseURL = memoryDatabaseURL

	repo, closeRepo, err := openRepository(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeRepo()

	assert.IsType(t, &store.Memory{}, repo)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestNewLatestCache(t *testing.T) {
	ctx := context.Background()
	rec := &store.AssessmentRecord{ID: "a-1", SubjectID: "subject-1"}

	t.Run("lru", func(t *testing.T) {
		c, closeCache, err := newLatestCache(ctx, config.DefaultConfig(), zap.NewNop())
		require.NoError(t, err)
		defer closeCache()

		require.NoError(t, c.SetLatest(ctx, rec))
		got, err := c.Latest(ctx, "subject-1")
		require.NoError(t, err)
		assert.Equal(t, "a-1", got.ID)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.DefaultConfig()
		cfg.Cache.RedisAddr = mr.Addr()

		c, closeCache, err := newLatestCache(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer closeCache()

		require.NoError(t, c.SetLatest(ctx, rec))
		assert.True(t, mr.Exists(cache.LatestKey("subject-1")))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Cache.RedisAddr = "127.0.0.1:1"
		_, _, err := newLatestCache(ctx, cfg, zap.NewNop())
		assert.Error(t, err)
	})
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	repo := store.NewMemory()
	svc := insights.NewService(repo, blobstore.NewLocalStorage(t.TempDir()), nil,
		scoring.NewDefaultEngine(), nutrition.NewDefaultAggregator(), zap.NewNop())
	return newRouter(cfg, svc, engagement.NewDefaultScorer(), repo.Ping, zap.NewNop())
}

func TestRouter_APIKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.APIKey = "secret"
	router := newTestRouter(t, cfg)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "health check is public")

	body := `{"readings":[{"kind":"BMI","value":22}]}`
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/score", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/score", strings.NewReader(body))
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRouter_Webhook(t *testing.T) {
	body := []byte(`{"subject_id":"subject-1","readings":[{"kind":"BMI","value":22}]}`)
	deliver := func(router http.Handler) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/intake", strings.NewReader(string(body)))
		req.Header.Set(webhook.SignatureHeader, webhook.Sign(body, []byte("hook")))
		req.Header.Set(webhook.EventHeader, webhook.EventReadingsRecorded)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNotFound, deliver(newTestRouter(t, config.DefaultConfig())), "webhook disabled without a secret")

	cfg := config.DefaultConfig()
	cfg.Server.WebhookSecret = "hook"
	cfg.Server.APIKey = "secret"
	assert.Equal(t, http.StatusAccepted, deliver(newTestRouter(t, cfg)), "webhook is not behind the API key")
}
