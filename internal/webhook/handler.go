package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/insights"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// Intake is the part of the insights service that webhook events drive.
type Intake interface {
	Assess(ctx context.Context, subjectID string, readings []scoring.IndicatorReading, metadata map[string]string) (*store.AssessmentRecord, error)
	LogNutrition(ctx context.Context, subjectID string, entries []nutrition.Entry) (int, error)
	SetGoals(ctx context.Context, subjectID string, goals []nutrition.GoalType) error
}

// Handler processes incoming intake webhook events.
type Handler struct {
	webhookSecret []byte
	intake        Intake
	logger        *zap.Logger
}

// NewHandler creates a new webhook Handler.
func NewHandler(webhookSecret []byte, intake Intake, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		webhookSecret: webhookSecret,
		intake:        intake,
		logger:        logger,
	}
}

// ServeHTTP handles incoming webhook requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20)) // 10 MB limit
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	delivery := r.Header.Get(DeliveryHeader)
	log := h.logger.With(zap.String("delivery", delivery))

	if err := VerifySignature(body, r.Header.Get(SignatureHeader), h.webhookSecret); err != nil {
		log.Warn("webhook signature verification failed", zap.Error(err))
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get(EventHeader)
	if eventType == "" {
		http.Error(w, "missing "+EventHeader+" header", http.StatusBadRequest)
		return
	}
	log = log.With(zap.String("event", eventType))

	event, err := ParseEvent(eventType, body)
	if err != nil {
		log.Warn("webhook parse error", zap.Error(err))
		http.Error(w, "unsupported event", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	switch e := event.(type) {
	case *ReadingsRecordedEvent:
		err = h.handleReadings(ctx, log, e)
	case *NutritionLoggedEvent:
		err = h.handleNutrition(ctx, log, e)
	case *GoalsUpdatedEvent:
		err = h.handleGoals(ctx, log, e)
	}
	if err != nil {
		// Rejected payloads get a 4xx so the sender does not retry them.
		if errors.Is(err, insights.ErrInvalidInput) {
			log.Warn("webhook event rejected", zap.Error(err))
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		log.Error("handle webhook event", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
}

func (h *Handler) handleReadings(ctx context.Context, log *zap.Logger, e *ReadingsRecordedEvent) error {
	metadata := e.Metadata
	if e.Source != "" {
		metadata = make(map[string]string, len(e.Metadata)+1)
		for k, v := range e.Metadata {
			metadata[k] = v
		}
		metadata["source"] = e.Source
	}

	rec, err := h.intake.Assess(ctx, e.SubjectID, e.Readings, metadata)
	if err != nil {
		return fmt.Errorf("assess subject %q: %w", e.SubjectID, err)
	}
	log.Info("recorded readings",
		zap.String("subject_id", e.SubjectID),
		zap.String("assessment_id", rec.ID),
		zap.Float64("score", rec.Assessment.Score.Value),
	)
	return nil
}

func (h *Handler) handleNutrition(ctx context.Context, log *zap.Logger, e *NutritionLoggedEvent) error {
	n, err := h.intake.LogNutrition(ctx, e.SubjectID, e.Entries)
	if err != nil {
		return fmt.Errorf("log nutrition for subject %q: %w", e.SubjectID, err)
	}
	log.Info("logged nutrition entries", zap.String("subject_id", e.SubjectID), zap.Int("count", n))
	return nil
}

func (h *Handler) handleGoals(ctx context.Context, log *zap.Logger, e *GoalsUpdatedEvent) error {
	if err := h.intake.SetGoals(ctx, e.SubjectID, e.Goals); err != nil {
		return fmt.Errorf("set goals for subject %q: %w", e.SubjectID, err)
	}
	log.Info("updated goals", zap.String("subject_id", e.SubjectID), zap.Int("count", len(e.Goals)))
	return nil
}
