// Package api implements the hosted NutriScan REST API.
// It exposes scoring, assessment history, trajectories, nutrition insights
// and engagement scoring over JSON.
package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/insights"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// maxBodyBytes bounds decoded request bodies.
const maxBodyBytes = 4 << 20

// HealthFunc reports whether backing services are reachable.
type HealthFunc func(ctx context.Context) error

// Handler is the top-level API handler for the hosted NutriScan service.
type Handler struct {
	svc        *insights.Service
	engagement *engagement.Scorer
	health     HealthFunc
	logger     *zap.Logger
}

// NewHandler creates a new API handler. health may be nil.
func NewHandler(svc *insights.Service, scorer *engagement.Scorer, health HealthFunc, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:        svc,
		engagement: scorer,
		health:     health,
		logger:     logger,
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Stateless scoring
	mux.HandleFunc("POST /api/v1/score", h.handleScore)
	mux.HandleFunc("POST /api/v1/engagement/score", h.handleEngagementScore)

	// Subject assessments
	mux.HandleFunc("POST /api/v1/subjects/{subjectID}/assessments", h.handleCreateAssessment)
	mux.HandleFunc("GET /api/v1/subjects/{subjectID}/assessments", h.handleListAssessments)
	mux.HandleFunc("GET /api/v1/subjects/{subjectID}/assessments/latest", h.handleLatestAssessment)
	mux.HandleFunc("GET /api/v1/subjects/{subjectID}/trajectory", h.handleTrajectory)
	mux.HandleFunc("GET /api/v1/subjects/{subjectID}/recommendations", h.handleRecommendations)

	// Nutrition
	mux.HandleFunc("POST /api/v1/subjects/{subjectID}/nutrition/entries", h.handleLogNutrition)
	mux.HandleFunc("PUT /api/v1/subjects/{subjectID}/goals", h.handleSetGoals)
	mux.HandleFunc("GET /api/v1/subjects/{subjectID}/nutrition/insights", h.handleNutritionInsights)
	mux.HandleFunc("GET /api/v1/subjects/{subjectID}/nutrition/report", h.handleNutritionReport)
}

// Healthz serves GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a JSON request body, accepting gzip when the client says so.
func decodeBody(r *http.Request, dst any) error {
	var body io.Reader = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return err
		}
		defer gz.Close()
		body = io.LimitReader(gz, maxBodyBytes)
	}
	return json.NewDecoder(body).Decode(dst)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, insights.ErrInvalidInput),
		errors.Is(err, scoring.ErrInvalidIndicatorShape),
		errors.Is(err, scoring.ErrUnknownIndicatorKind),
		errors.Is(err, nutrition.ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, nutrition.ErrEmptyEntrySet):
		return http.StatusNotFound
	case errors.Is(err, scoring.ErrInsufficientHistory),
		errors.Is(err, scoring.ErrInconsistentCategorySet):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server errors are logged and
// their detail withheld from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
