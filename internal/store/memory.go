package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// Memory is an in-process store with the same behaviour as Store, for
// development runs without Postgres and for tests.
type Memory struct {
	mu          sync.RWMutex
	seq         int
	subjects    map[string]bool
	assessments map[string][]AssessmentRecord // assessed_at ascending
	entries     map[string][]nutrition.Entry
	goals       map[string][]nutrition.GoalType
	reports     []ReportRecord
	now         func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		subjects:    make(map[string]bool),
		assessments: make(map[string][]AssessmentRecord),
		entries:     make(map[string][]nutrition.Entry),
		goals:       make(map[string][]nutrition.GoalType),
		now:         time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) EnsureSubject(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects[subjectID] = true
	return nil
}

func (m *Memory) InsertAssessment(_ context.Context, subjectID string, a *scoring.Assessment, metadata map[string]string, reportRef string) (*AssessmentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.subjects[subjectID] {
		return nil, fmt.Errorf("insert assessment: unknown subject %s", subjectID)
	}
	m.seq++
	rec := AssessmentRecord{
		ID:         fmt.Sprintf("%08d", m.seq),
		SubjectID:  subjectID,
		Assessment: *a,
		Metadata:   metadata,
		ReportRef:  reportRef,
		CreatedAt:  m.now().UTC(),
	}
	recs := append(m.assessments[subjectID], rec)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Assessment.AssessedAt.Before(recs[j].Assessment.AssessedAt)
	})
	m.assessments[subjectID] = recs
	return &rec, nil
}

func (m *Memory) LatestAssessment(_ context.Context, subjectID string) (*AssessmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.assessments[subjectID]
	if len(recs) == 0 {
		return nil, fmt.Errorf("latest assessment for %s: %w", subjectID, ErrNotFound)
	}
	rec := recs[len(recs)-1]
	return &rec, nil
}

func inWindow(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}

func (m *Memory) ListAssessments(_ context.Context, subjectID string, q HistoryQuery) (*AssessmentPage, error) {
	q = q.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []AssessmentRecord
	recs := m.assessments[subjectID]
	for i := len(recs) - 1; i >= 0; i-- {
		if inWindow(recs[i].Assessment.AssessedAt, q.Start, q.End) {
			matched = append(matched, recs[i])
		}
	}

	page := &AssessmentPage{
		Items:      []AssessmentRecord{},
		Total:      len(matched),
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (len(matched) + q.Limit - 1) / q.Limit,
	}
	from := (q.Page - 1) * q.Limit
	if from < len(matched) {
		to := min(from+q.Limit, len(matched))
		page.Items = append(page.Items, matched[from:to]...)
	}
	return page, nil
}

func (m *Memory) ScoreHistory(_ context.Context, subjectID string) ([]scoring.TrajectoryPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var points []scoring.TrajectoryPoint
	for _, r := range m.assessments[subjectID] {
		points = append(points, scoring.TrajectoryPoint{
			AssessedAt: r.Assessment.AssessedAt,
			Score:      r.Assessment.Score.Value,
			Level:      r.Assessment.Score.Level,
			Categories: r.Assessment.Categories,
		})
	}
	return points, nil
}

func (m *Memory) InsertNutritionEntries(_ context.Context, subjectID string, entries []nutrition.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.subjects[subjectID] {
		return fmt.Errorf("insert nutrition entries: unknown subject %s", subjectID)
	}
	m.entries[subjectID] = append(m.entries[subjectID], entries...)
	return nil
}

func (m *Memory) ListNutritionEntries(_ context.Context, subjectID string, since time.Time) ([]nutrition.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []nutrition.Entry
	for _, e := range m.entries[subjectID] {
		if inWindow(e.ConsumedAt, since, time.Time{}) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ConsumedAt.Before(out[j].ConsumedAt) })
	return out, nil
}

func (m *Memory) SetGoals(_ context.Context, subjectID string, goals []nutrition.GoalType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[nutrition.GoalType]bool, len(goals))
	var out []nutrition.GoalType
	for _, g := range goals {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	m.goals[subjectID] = out
	return nil
}

func (m *Memory) Goals(_ context.Context, subjectID string) ([]nutrition.GoalType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]nutrition.GoalType(nil), m.goals[subjectID]...), nil
}

func (m *Memory) InsertReport(_ context.Context, r ReportRecord) (*ReportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = NewReportID()
	}
	r.CreatedAt = m.now().UTC()
	m.reports = append(m.reports, r)
	return &r, nil
}

// Reports returns the recorded report references of a subject.
func (m *Memory) Reports(subjectID string) []ReportRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ReportRecord
	for _, r := range m.reports {
		if r.SubjectID == subjectID {
			out = append(out, r)
		}
	}
	return out
}
