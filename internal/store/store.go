// Package store persists subjects, assessments, nutrition entries, goals and
// report references in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Store provides persistence backed by Postgres.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a Store. A nil logger is replaced by a no-op logger.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// AssessmentRecord is a stored assessment.
type AssessmentRecord struct {
	ID         string             `json:"id"`
	SubjectID  string             `json:"subject_id"`
	Assessment scoring.Assessment `json:"assessment"`
	Metadata   map[string]string  `json:"metadata,omitempty"`
	ReportRef  string             `json:"report_ref,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// HistoryQuery selects a page of assessments. Zero Start or End leaves that
// side of the window open.
type HistoryQuery struct {
	Start time.Time
	End   time.Time
	Page  int
	Limit int
}

// Normalize clamps Page to at least 1 and Limit to [1, MaxPageLimit].
func (q HistoryQuery) Normalize() HistoryQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return q
}

// AssessmentPage is one page of a subject's assessment history, newest first.
type AssessmentPage struct {
	Items      []AssessmentRecord `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// EnsureSubject creates the subject row if it does not exist.
func (s *Store) EnsureSubject(ctx context.Context, subjectID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subjects (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		subjectID,
	)
	if err != nil {
		return fmt.Errorf("ensure subject %s: %w", subjectID, err)
	}
	return nil
}

// InsertAssessment stores an assessment for a subject.
func (s *Store) InsertAssessment(ctx context.Context, subjectID string, a *scoring.Assessment, metadata map[string]string, reportRef string) (*AssessmentRecord, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	cols, err := marshalAll(a.Categories, a.Indicators, a.Insights, a.Readings, metadata)
	if err != nil {
		return nil, fmt.Errorf("encode assessment: %w", err)
	}

	rec := &AssessmentRecord{
		SubjectID:  subjectID,
		Assessment: *a,
		Metadata:   metadata,
		ReportRef:  reportRef,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO assessments (subject_id, score, level, categories, indicators, insights, readings, metadata, report_ref, assessed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		subjectID, a.Score.Value, string(a.Score.Level), cols[0], cols[1], cols[2], cols[3], cols[4], nullString(reportRef), a.AssessedAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}

	s.logger.Debug("stored assessment",
		zap.String("subject_id", subjectID),
		zap.String("assessment_id", rec.ID),
		zap.Float64("score", a.Score.Value),
	)
	return rec, nil
}

const assessmentColumns = `id, subject_id, score, level, categories, indicators, insights, readings, metadata, report_ref, assessed_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*AssessmentRecord, error) {
	var (
		rec                                              AssessmentRecord
		level                                            string
		categories, indicators, insights, readings, meta []byte
		reportRef                                        sql.NullString
	)
	if err := row.Scan(
		&rec.ID, &rec.SubjectID, &rec.Assessment.Score.Value, &level,
		&categories, &indicators, &insights, &readings, &meta,
		&reportRef, &rec.Assessment.AssessedAt, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Assessment.Score.Level = scoring.RiskLevel(level)
	rec.ReportRef = reportRef.String
	for _, col := range []struct {
		data []byte
		dst  any
	}{
		{categories, &rec.Assessment.Categories},
		{indicators, &rec.Assessment.Indicators},
		{insights, &rec.Assessment.Insights},
		{readings, &rec.Assessment.Readings},
		{meta, &rec.Metadata},
	} {
		if len(col.data) == 0 {
			continue
		}
		if err := json.Unmarshal(col.data, col.dst); err != nil {
			return nil, fmt.Errorf("decode assessment %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

// LatestAssessment returns the most recent assessment of a subject.
func (s *Store) LatestAssessment(ctx context.Context, subjectID string) (*AssessmentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments WHERE subject_id = $1
		 ORDER BY assessed_at DESC LIMIT 1`,
		subjectID,
	)
	rec, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest assessment for %s: %w", subjectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest assessment for %s: %w", subjectID, err)
	}
	return rec, nil
}

// ListAssessments returns one page of a subject's assessments, newest first.
func (s *Store) ListAssessments(ctx context.Context, subjectID string, q HistoryQuery) (*AssessmentPage, error) {
	q = q.Normalize()
	start, end := nullTime(q.Start), nullTime(q.End)

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assessments
		 WHERE subject_id = $1
		   AND ($2::timestamptz IS NULL OR assessed_at >= $2)
		   AND ($3::timestamptz IS NULL OR assessed_at <= $3)`,
		subjectID, start, end,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count assessments: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assessmentColumns+`
		 FROM assessments
		 WHERE subject_id = $1
		   AND ($2::timestamptz IS NULL OR assessed_at >= $2)
		   AND ($3::timestamptz IS NULL OR assessed_at <= $3)
		 ORDER BY assessed_at DESC
		 LIMIT $4 OFFSET $5`,
		subjectID, start, end, q.Limit, (q.Page-1)*q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	page := &AssessmentPage{
		Items:      []AssessmentRecord{},
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
	for rows.Next() {
		rec, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		page.Items = append(page.Items, *rec)
	}
	return page, rows.Err()
}

// ScoreHistory returns every assessment of a subject reduced to trajectory
// points, oldest first.
func (s *Store) ScoreHistory(ctx context.Context, subjectID string) ([]scoring.TrajectoryPoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT assessed_at, score, level, categories
		 FROM assessments WHERE subject_id = $1
		 ORDER BY assessed_at ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("score history: %w", err)
	}
	defer rows.Close()

	var points []scoring.TrajectoryPoint
	for rows.Next() {
		var (
			p          scoring.TrajectoryPoint
			level      string
			categories []byte
		)
		if err := rows.Scan(&p.AssessedAt, &p.Score, &level, &categories); err != nil {
			return nil, fmt.Errorf("scan score history: %w", err)
		}
		p.Level = scoring.RiskLevel(level)
		if len(categories) > 0 {
			if err := json.Unmarshal(categories, &p.Categories); err != nil {
				return nil, fmt.Errorf("decode categories: %w", err)
			}
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// InsertNutritionEntries stores entries for a subject in one transaction.
func (s *Store) InsertNutritionEntries(ctx context.Context, subjectID string, entries []nutrition.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nutrition_entries (subject_id, food_name, meal_type, consumed_at, serving_size, nutrients, micronutrients, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare nutrition insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		micros := e.Micronutrients
		if micros == nil {
			micros = map[string]float64{}
		}
		cols, err := marshalAll(e.ServingSize, e.Nutrients, micros)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			subjectID, e.FoodName, string(e.MealType), e.ConsumedAt, cols[0], cols[1], cols[2], nullString(e.Notes),
		); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("stored nutrition entries",
		zap.String("subject_id", subjectID),
		zap.Int("count", len(entries)),
	)
	return nil
}

// ListNutritionEntries returns a subject's entries consumed at or after
// since, oldest first. A zero since returns every entry.
func (s *Store) ListNutritionEntries(ctx context.Context, subjectID string, since time.Time) ([]nutrition.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT food_name, meal_type, consumed_at, serving_size, nutrients, micronutrients, notes
		 FROM nutrition_entries
		 WHERE subject_id = $1 AND ($2::timestamptz IS NULL OR consumed_at >= $2)
		 ORDER BY consumed_at ASC`,
		subjectID, nullTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list nutrition entries: %w", err)
	}
	defer rows.Close()

	var entries []nutrition.Entry
	for rows.Next() {
		var (
			e                      nutrition.Entry
			mealType               string
			serving, facts, micros []byte
			notes                  sql.NullString
		)
		if err := rows.Scan(&e.FoodName, &mealType, &e.ConsumedAt, &serving, &facts, &micros, &notes); err != nil {
			return nil, fmt.Errorf("scan nutrition entry: %w", err)
		}
		e.MealType = nutrition.MealType(mealType)
		e.Notes = notes.String
		if err := json.Unmarshal(serving, &e.ServingSize); err != nil {
			return nil, fmt.Errorf("decode serving size: %w", err)
		}
		if err := json.Unmarshal(facts, &e.Nutrients); err != nil {
			return nil, fmt.Errorf("decode nutrients: %w", err)
		}
		if len(micros) > 0 {
			if err := json.Unmarshal(micros, &e.Micronutrients); err != nil {
				return nil, fmt.Errorf("decode micronutrients: %w", err)
			}
			if len(e.Micronutrients) == 0 {
				e.Micronutrients = nil
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetGoals replaces a subject's health goals.
func (s *Store) SetGoals(ctx context.Context, subjectID string, goals []nutrition.GoalType) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM health_goals WHERE subject_id = $1`, subjectID); err != nil {
		return fmt.Errorf("clear goals: %w", err)
	}
	for _, g := range goals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO health_goals (subject_id, goal_type) VALUES ($1, $2)
			 ON CONFLICT (subject_id, goal_type) DO NOTHING`,
			subjectID, string(g),
		); err != nil {
			return fmt.Errorf("insert goal %s: %w", g, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Goals returns a subject's health goals in insertion order.
func (s *Store) Goals(ctx context.Context, subjectID string) ([]nutrition.GoalType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT goal_type FROM health_goals WHERE subject_id = $1 ORDER BY created_at, goal_type`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []nutrition.GoalType
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, nutrition.GoalType(g))
	}
	return goals, rows.Err()
}

// ReportRecord is the reference to an archived report document.
type ReportRecord struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"subject_id"`
	Kind       string    `json:"kind"`
	StorageRef string    `json:"storage_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewReportID returns a fresh report identifier.
func NewReportID() string {
	return uuid.NewString()
}

// InsertReport records where a report document was archived.
func (s *Store) InsertReport(ctx context.Context, r ReportRecord) (*ReportRecord, error) {
	if r.ID == "" {
		r.ID = NewReportID()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO reports (id, subject_id, kind, storage_ref)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		r.ID, r.SubjectID, r.Kind, r.StorageRef,
	).Scan(&r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return &r, nil
}

func marshalAll(values ...any) ([][]byte, error) {
	out := make([][]byte, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
