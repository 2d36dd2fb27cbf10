// Package insights orchestrates the hosted pipeline: scoring readings,
// persisting assessments and intake, archiving reports and serving
// trajectories and nutrition insights.
package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/blobstore"
	"github.com/nutriscan/nutriscan/internal/cache"
	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// ErrInvalidInput marks requests rejected before any work is done.
var ErrInvalidInput = errors.New("invalid input")

// DefaultNutritionWindowDays is the look-back used when a caller passes no window.
const DefaultNutritionWindowDays = 30

// Report kinds recorded in the reports table.
const (
	ReportKindAssessment = "assessment"
	ReportKindNutrition  = "nutrition"
)

// Repository is the persistence the service needs. *store.Store implements it.
type Repository interface {
	EnsureSubject(ctx context.Context, subjectID string) error
	InsertAssessment(ctx context.Context, subjectID string, a *scoring.Assessment, metadata map[string]string, reportRef string) (*store.AssessmentRecord, error)
	LatestAssessment(ctx context.Context, subjectID string) (*store.AssessmentRecord, error)
	ListAssessments(ctx context.Context, subjectID string, q store.HistoryQuery) (*store.AssessmentPage, error)
	ScoreHistory(ctx context.Context, subjectID string) ([]scoring.TrajectoryPoint, error)
	InsertNutritionEntries(ctx context.Context, subjectID string, entries []nutrition.Entry) error
	ListNutritionEntries(ctx context.Context, subjectID string, since time.Time) ([]nutrition.Entry, error)
	SetGoals(ctx context.Context, subjectID string, goals []nutrition.GoalType) error
	Goals(ctx context.Context, subjectID string) ([]nutrition.GoalType, error)
	InsertReport(ctx context.Context, r store.ReportRecord) (*store.ReportRecord, error)
}

// LatestCache holds each subject's latest assessment. *cache.AssessmentCache implements it.
type LatestCache interface {
	Latest(ctx context.Context, subjectID string) (*store.AssessmentRecord, error)
	SetLatest(ctx context.Context, rec *store.AssessmentRecord) error
	Invalidate(ctx context.Context, subjectID string) error
}

// Service wires the scoring engine and nutrition aggregator to storage.
type Service struct {
	repo       Repository
	blobs      blobstore.Store
	cache      LatestCache
	engine     *scoring.Engine
	aggregator *nutrition.Aggregator
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// NewService creates a Service. blobs and latest may be nil to disable
// report archiving and caching.
func NewService(repo Repository, blobs blobstore.Store, latest LatestCache, engine *scoring.Engine, aggregator *nutrition.Aggregator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		blobs:      blobs,
		cache:      latest,
		engine:     engine,
		aggregator: aggregator,
		logger:     logger,
		loc:        time.UTC,
		now:        time.Now,
	}
}

// WithLocation sets the timezone used for weekday breakdowns.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithClock replaces the clock used for nutrition windows and report stamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Engine returns the scoring engine.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// checkSubject rejects empty IDs and IDs that are not a single key segment,
// since subject IDs name archive paths.
func checkSubject(subjectID string) error {
	if subjectID == "" {
		return fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if !blobstore.ValidSegment(subjectID) {
		return fmt.Errorf("%w: subject id %q may contain only letters, digits, '-' and '_'", ErrInvalidInput, subjectID)
	}
	return nil
}

// Assess scores readings for a subject, stores the assessment, archives the
// report document and refreshes the latest-assessment cache.
func (s *Service) Assess(ctx context.Context, subjectID string, readings []scoring.IndicatorReading, metadata map[string]string) (*store.AssessmentRecord, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	a, err := s.engine.Assess(readings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.repo.EnsureSubject(ctx, subjectID); err != nil {
		return nil, err
	}

	ref := s.archive(ctx, subjectID, ReportKindAssessment, store.NewReportID(), a)

	rec, err := s.repo.InsertAssessment(ctx, subjectID, a, metadata, ref)
	if err != nil {
		return nil, fmt.Errorf("store assessment: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, rec); err != nil {
			s.logger.Warn("failed to cache latest assessment",
				zap.String("subject_id", subjectID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("assessment recorded",
		zap.String("subject_id", subjectID),
		zap.String("assessment_id", rec.ID),
		zap.Float64("score", a.Score.Value),
		zap.String("level", string(a.Score.Level)),
		zap.Int("insights", len(a.Insights)),
	)
	return rec, nil
}

// archive writes a report document to blob storage and records it. Failures
// are logged and yield an empty reference; the report is not essential.
func (s *Service) archive(ctx context.Context, subjectID, kind, id string, doc any) string {
	if s.blobs == nil {
		return ""
	}
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Warn("failed to encode report", zap.String("kind", kind), zap.Error(err))
		return ""
	}
	key := blobstore.ReportKey(subjectID, kind, id)
	if err := s.blobs.Put(ctx, key, data); err != nil {
		s.logger.Warn("failed to archive report",
			zap.String("subject_id", subjectID),
			zap.String("key", key),
			zap.Error(err),
		)
		return ""
	}
	if _, err := s.repo.InsertReport(ctx, store.ReportRecord{
		ID: id, SubjectID: subjectID, Kind: kind, StorageRef: key,
	}); err != nil {
		s.logger.Warn("failed to record report", zap.String("key", key), zap.Error(err))
	}
	return key
}

// History returns one page of assessments, newest first.
func (s *Service) History(ctx context.Context, subjectID string, q store.HistoryQuery) (*store.AssessmentPage, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return nil, fmt.Errorf("%w: end precedes start", ErrInvalidInput)
	}
	return s.repo.ListAssessments(ctx, subjectID, q)
}

// Latest returns the most recent assessment, from cache when possible.
func (s *Service) Latest(ctx context.Context, subjectID string) (*store.AssessmentRecord, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		rec, err := s.cache.Latest(ctx, subjectID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}

	rec, err := s.repo.LatestAssessment(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, rec); err != nil {
			s.logger.Warn("failed to cache latest assessment", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}
	return rec, nil
}

// Trajectory fits overall and per-category trends over the full history.
func (s *Service) Trajectory(ctx context.Context, subjectID string) (*scoring.Trajectory, error) {
	if err := checkSubject(subjectID); err != nil {
		return nil, err
	}
	points, err := s.repo.ScoreHistory(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.engine.Trajectory(points)
}

// Recommendations maps the latest assessment's categories to improvement advice.
func (s *Service) Recommendations(ctx context.Context, subjectID string) ([]scoring.CategoryRecommendation, error) {
	rec, err := s.Latest(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	out := s.engine.Recommend(rec.Assessment.Categories)
	if out == nil {
		out = []scoring.CategoryRecommendation{}
	}
	return out, nil
}

// LogNutrition validates and stores food entries. Entries without a
// consumption time are stamped with the current time.
func (s *Service) LogNutrition(ctx context.Context, subjectID string, entries []nutrition.Entry) (int, error) {
	if err := checkSubject(subjectID); err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: no entries", ErrInvalidInput)
	}
	stamped := make([]nutrition.Entry, len(entries))
	for i, e := range entries {
		if err := e.Validate(); err != nil {
			return 0, fmt.Errorf("%w: entry %d: %w", ErrInvalidInput, i, err)
		}
		if e.ConsumedAt.IsZero() {
			e.ConsumedAt = s.now().UTC()
		}
		stamped[i] = e
	}

	if err := s.repo.EnsureSubject(ctx, subjectID); err != nil {
		return 0, err
	}
	if err := s.repo.InsertNutritionEntries(ctx, subjectID, stamped); err != nil {
		return 0, fmt.Errorf("store nutrition entries: %w", err)
	}
	s.logger.Info("nutrition logged",
		zap.String("subject_id", subjectID),
		zap.Int("entries", len(stamped)),
	)
	return len(stamped), nil
}

// SetGoals replaces a subject's health goals.
func (s *Service) SetGoals(ctx context.Context, subjectID string, goals []nutrition.GoalType) error {
	if err := checkSubject(subjectID); err != nil {
		return err
	}
	for _, g := range goals {
		if !g.Valid() {
			return fmt.Errorf("%w: unknown goal %q", ErrInvalidInput, g)
		}
	}
	if err := s.repo.EnsureSubject(ctx, subjectID); err != nil {
		return err
	}
	return s.repo.SetGoals(ctx, subjectID, goals)
}

// NutritionInsights is the aggregated view of a subject's recent intake.
type NutritionInsights struct {
	SubjectID      string                    `json:"subject_id"`
	PeriodDays     int                       `json:"period_days"`
	Since          time.Time                 `json:"since"`
	Profile        *nutrition.Profile        `json:"profile"`
	GoalAlignments []nutrition.GoalAlignment `json:"goal_alignments"`
	Trends         *nutrition.Trends         `json:"trends,omitempty"`
}

// NutritionReport extends insights with the detailed breakdown and the
// reference of the archived document.
type NutritionReport struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Insights    *NutritionInsights  `json:"insights"`
	Breakdown   nutrition.Breakdown `json:"breakdown"`
	ReportRef   string              `json:"report_ref,omitempty"`
}

func (s *Service) window(ctx context.Context, subjectID string, days int) (time.Time, []nutrition.Entry, int, error) {
	if err := checkSubject(subjectID); err != nil {
		return time.Time{}, nil, 0, err
	}
	if days < 0 {
		return time.Time{}, nil, 0, fmt.Errorf("%w: days must not be negative", ErrInvalidInput)
	}
	if days == 0 {
		days = DefaultNutritionWindowDays
	}
	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	entries, err := s.repo.ListNutritionEntries(ctx, subjectID, since)
	if err != nil {
		return time.Time{}, nil, 0, err
	}
	return since, entries, days, nil
}

// NutritionInsights aggregates the last days of intake (DefaultNutritionWindowDays
// when zero) and aligns it with the subject's goals. Trends are omitted when
// fewer entries than the aggregator's minimum were logged.
func (s *Service) NutritionInsights(ctx context.Context, subjectID string, days int) (*NutritionInsights, error) {
	since, entries, days, err := s.window(ctx, subjectID, days)
	if err != nil {
		return nil, err
	}
	return s.insights(ctx, subjectID, since, days, entries)
}

func (s *Service) insights(ctx context.Context, subjectID string, since time.Time, days int, entries []nutrition.Entry) (*NutritionInsights, error) {
	profile, err := s.aggregator.Aggregate(entries)
	if err != nil {
		return nil, err
	}
	goals, err := s.repo.Goals(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	out := &NutritionInsights{
		SubjectID:      subjectID,
		PeriodDays:     days,
		Since:          since,
		Profile:        profile,
		GoalAlignments: s.aggregator.AlignGoals(profile, goals),
	}
	if len(entries) >= s.aggregator.MinTrendEntries() {
		trends, err := s.aggregator.Trends(entries)
		if err != nil {
			return nil, err
		}
		out.Trends = trends
	}
	return out, nil
}

// NutritionReport builds and archives a full intake report.
func (s *Service) NutritionReport(ctx context.Context, subjectID string, days int) (*NutritionReport, error) {
	since, entries, days, err := s.window(ctx, subjectID, days)
	if err != nil {
		return nil, err
	}
	ins, err := s.insights(ctx, subjectID, since, days, entries)
	if err != nil {
		return nil, err
	}

	report := &NutritionReport{
		ID:          store.NewReportID(),
		GeneratedAt: s.now().UTC(),
		Insights:    ins,
		Breakdown:   s.aggregator.Breakdown(entries, s.loc),
	}
	report.ReportRef = s.archive(ctx, subjectID, ReportKindNutrition, report.ID, report)

	s.logger.Info("nutrition report generated",
		zap.String("subject_id", subjectID),
		zap.Int("entries", len(entries)),
		zap.String("report_ref", report.ReportRef),
	)
	return report, nil
}
