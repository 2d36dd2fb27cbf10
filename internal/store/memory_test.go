package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

func assessmentAt(t time.Time, score float64) *scoring.Assessment {
	return &scoring.Assessment{
		Score:      scoring.CompositeScore{Value: score, Level: scoring.Classify(score)},
		AssessedAt: t,
	}
}

func TestMemory_Assessments(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.InsertAssessment(ctx, "subject-1", assessmentAt(assessedAt, 10), nil, "")
	require.Error(t, err, "unknown subject should be rejected")

	require.NoError(t, m.EnsureSubject(ctx, "subject-1"))
	for i, score := range []float64{10, 30, 60} {
		_, err := m.InsertAssessment(ctx, "subject-1", assessmentAt(assessedAt.Add(time.Duration(i)*time.Hour), score), nil, "")
		require.NoError(t, err)
	}
	// Out-of-order insert is placed by assessed_at.
	_, err = m.InsertAssessment(ctx, "subject-1", assessmentAt(assessedAt.Add(-time.Hour), 5), nil, "")
	require.NoError(t, err)

	latest, err := m.LatestAssessment(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, 60.0, latest.Assessment.Score.Value)

	points, err := m.ScoreHistory(ctx, "subject-1")
	require.NoError(t, err)
	require.Len(t, points, 4)
	assert.Equal(t, []float64{5, 10, 30, 60}, []float64{points[0].Score, points[1].Score, points[2].Score, points[3].Score})

	page, err := m.ListAssessments(ctx, "subject-1", HistoryQuery{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 5.0, page.Items[0].Assessment.Score.Value)

	page, err = m.ListAssessments(ctx, "subject-1", HistoryQuery{Start: assessedAt, End: assessedAt.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 30.0, page.Items[0].Assessment.Score.Value)

	_, err = m.LatestAssessment(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemory_NutritionAndGoals(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.EnsureSubject(ctx, "subject-1"))

	require.NoError(t, m.InsertNutritionEntries(ctx, "subject-1", []nutrition.Entry{
		{FoodName: "Late", MealType: nutrition.MealDinner, ConsumedAt: assessedAt.Add(2 * time.Hour)},
		{FoodName: "Early", MealType: nutrition.MealBreakfast, ConsumedAt: assessedAt},
		{FoodName: "Old", MealType: nutrition.MealSnack, ConsumedAt: assessedAt.Add(-48 * time.Hour)},
	}))

	entries, err := m.ListNutritionEntries(ctx, "subject-1", assessedAt.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Early", entries[0].FoodName)

	require.NoError(t, m.SetGoals(ctx, "subject-1", []nutrition.GoalType{nutrition.GoalFitness, nutrition.GoalFitness, nutrition.GoalWellness}))
	goals, err := m.Goals(ctx, "subject-1")
	require.NoError(t, err)
	assert.Equal(t, []nutrition.GoalType{nutrition.GoalFitness, nutrition.GoalWellness}, goals)

	r, err := m.InsertReport(ctx, ReportRecord{SubjectID: "subject-1", Kind: "nutrition", StorageRef: "k"})
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Len(t, m.Reports("subject-1"), 1)
}
