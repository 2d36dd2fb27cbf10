package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *Store) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, New(db, zap.NewNop())
}

var assessedAt = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func sampleAssessment() *scoring.Assessment {
	return &scoring.Assessment{
		Score: scoring.CompositeScore{Value: 46, Level: scoring.RiskModerate},
		Categories: scoring.RiskCategoryBreakdown{
			{Category: scoring.CategoryCardiovascular, Level: scoring.RiskLow, Score: 14},
		},
		Indicators: []scoring.IndicatorEvaluation{
			{Kind: scoring.KindBloodPressure, Value: scoring.Pair(150, 95), RawRisk: 80, Weight: 0.25, RiskContribution: 20, Status: scoring.StatusAbnormal},
		},
		Insights: []scoring.PredictiveInsight{},
		Readings: []scoring.IndicatorReading{
			{Kind: scoring.KindBloodPressure, Value: scoring.Pair(150, 95)},
		},
		AssessedAt: assessedAt,
	}
}

var assessmentCols = []string{
	"id", "subject_id", "score", "level", "categories", "indicators", "insights",
	"readings", "metadata", "report_ref", "assessed_at", "created_at",
}

func TestEnsureSubject(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO subjects`).
		WithArgs("subject-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.EnsureSubject(context.Background(), "subject-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAssessment(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	created := assessedAt.Add(time.Second)
	mock.ExpectQuery(`INSERT INTO assessments`).
		WithArgs("subject-1", 46.0, "Moderate",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"subject-1/assessment/r1.json", assessedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-1", created))

	rec, err := s.InsertAssessment(context.Background(), "subject-1", sampleAssessment(),
		map[string]string{"source": "clinic"}, "subject-1/assessment/r1.json")
	require.NoError(t, err)
	assert.Equal(t, "a-1", rec.ID)
	assert.Equal(t, created, rec.CreatedAt)
	assert.Equal(t, "clinic", rec.Metadata["source"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAssessment(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows(assessmentCols).AddRow(
		"a-1", "subject-1", 46.0, "Moderate",
		`[{"category":"Cardiovascular","level":"Low","score":14}]`,
		`[{"kind":"BloodPressure","value":[150,95],"raw_risk":80,"weight":0.25,"risk_contribution":20,"status":"Abnormal"}]`,
		`[]`,
		`[{"kind":"BloodPressure","value":[150,95]}]`,
		`{"source":"clinic"}`,
		nil, assessedAt, assessedAt,
	)
	mock.ExpectQuery(`SELECT (.+) FROM assessments WHERE subject_id = \$1`).
		WithArgs("subject-1").
		WillReturnRows(rows)

	rec, err := s.LatestAssessment(context.Background(), "subject-1")
	require.NoError(t, err)
	assert.Equal(t, scoring.RiskModerate, rec.Assessment.Score.Level)
	assert.Equal(t, 46.0, rec.Assessment.Score.Value)
	require.Len(t, rec.Assessment.Categories, 1)
	assert.Equal(t, scoring.CategoryCardiovascular, rec.Assessment.Categories[0].Category)
	require.Len(t, rec.Assessment.Readings, 1)
	assert.True(t, rec.Assessment.Readings[0].Value.IsPair())
	assert.Equal(t, "clinic", rec.Metadata["source"])
	assert.Empty(t, rec.ReportRef)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestAssessment_NotFound(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM assessments`).
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	rec, err := s.LatestAssessment(context.Background(), "nobody")
	assert.Nil(t, rec)
	assert.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAssessments_Paginates(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	start := assessedAt.Add(-30 * 24 * time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM assessments`).
		WithArgs("subject-1", start, nil).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery(`SELECT (.+) FROM assessments`).
		WithArgs("subject-1", start, nil, 2, 2).
		WillReturnRows(sqlmock.NewRows(assessmentCols).
			AddRow("a-3", "subject-1", 30.0, "Moderate", `[]`, `[]`, `[]`, `[]`, `{}`, "ref-3", assessedAt, assessedAt).
			AddRow("a-2", "subject-1", 20.0, "Low", `[]`, `[]`, `[]`, `[]`, `{}`, nil, assessedAt, assessedAt))

	page, err := s.ListAssessments(context.Background(), "subject-1", HistoryQuery{Start: start, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a-3", page.Items[0].ID)
	assert.Equal(t, "ref-3", page.Items[0].ReportRef)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryQueryNormalize(t *testing.T) {
	q := HistoryQuery{}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageLimit, q.Limit)

	q = HistoryQuery{Page: 3, Limit: 1000}.Normalize()
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, MaxPageLimit, q.Limit)
}

func TestScoreHistory(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	day := 24 * time.Hour
	mock.ExpectQuery(`SELECT assessed_at, score, level, categories`).
		WithArgs("subject-1").
		WillReturnRows(sqlmock.NewRows([]string{"assessed_at", "score", "level", "categories"}).
			AddRow(assessedAt, 40.0, "Moderate", `[{"category":"Metabolic","level":"Low","score":10}]`).
			AddRow(assessedAt.Add(day), 50.0, "High", `[{"category":"Metabolic","level":"Low","score":12.5}]`))

	points, err := s.ScoreHistory(context.Background(), "subject-1")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 40.0, points[0].Score)
	assert.Equal(t, scoring.RiskHigh, points[1].Level)
	assert.Equal(t, 12.5, points[1].Categories[0].Score)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNutritionEntries(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	entries := []nutrition.Entry{
		{FoodName: "Oatmeal", MealType: nutrition.MealBreakfast, ConsumedAt: assessedAt,
			ServingSize: nutrition.ServingSize{Amount: 1, Unit: "cup"},
			Nutrients:   nutrition.Facts{Calories: 150, Protein: 5, Carbohydrates: 27, Fat: 3}},
		{FoodName: "Salmon", MealType: nutrition.MealDinner, ConsumedAt: assessedAt.Add(10 * time.Hour),
			Nutrients: nutrition.Facts{Calories: 400, Protein: 40, Fat: 22}, Notes: "grilled"},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO nutrition_entries`)
	prep.ExpectExec().
		WithArgs("subject-1", "Oatmeal", "Breakfast", assessedAt, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("subject-1", "Salmon", "Dinner", entries[1].ConsumedAt, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "grilled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.InsertNutritionEntries(context.Background(), "subject-1", entries))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNutritionEntries_RollsBackOnError(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO nutrition_entries`)
	prep.ExpectExec().WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := s.InsertNutritionEntries(context.Background(), "subject-1", []nutrition.Entry{
		{FoodName: "Apple", MealType: nutrition.MealSnack, ConsumedAt: assessedAt},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert entry 0")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNutritionEntries(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT food_name, meal_type, consumed_at`).
		WithArgs("subject-1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"food_name", "meal_type", "consumed_at", "serving_size", "nutrients", "micronutrients", "notes"}).
			AddRow("Spinach", "Lunch", assessedAt, `{"amount":100,"unit":"g"}`,
				`{"calories":23,"protein":2.9,"carbohydrates":3.6,"fat":0.4,"sugar":0.4,"fiber":2.2}`,
				`{"Iron":2.7}`, nil).
			AddRow("Toast", "Breakfast", assessedAt.Add(time.Hour), `{"amount":1,"unit":"piece"}`,
				`{"calories":80}`, `{}`, "rye"))

	entries, err := s.ListNutritionEntries(context.Background(), "subject-1", time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, nutrition.MealLunch, entries[0].MealType)
	assert.Equal(t, 2.7, entries[0].Micronutrients["Iron"])
	assert.Equal(t, "g", entries[0].ServingSize.Unit)
	assert.Nil(t, entries[1].Micronutrients)
	assert.Equal(t, "rye", entries[1].Notes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetGoals(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM health_goals`).WithArgs("subject-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO health_goals`).WithArgs("subject-1", "Weight Loss").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO health_goals`).WithArgs("subject-1", "Muscle Gain").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.SetGoals(context.Background(), "subject-1", []nutrition.GoalType{nutrition.GoalWeightLoss, nutrition.GoalMuscleGain})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGoals(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT goal_type FROM health_goals`).
		WithArgs("subject-1").
		WillReturnRows(sqlmock.NewRows([]string{"goal_type"}).AddRow("Weight Loss"))

	goals, err := s.Goals(context.Background(), "subject-1")
	require.NoError(t, err)
	assert.Equal(t, []nutrition.GoalType{nutrition.GoalWeightLoss}, goals)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReport(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO reports`).
		WithArgs("r-1", "subject-1", "nutrition", "subject-1/nutrition/r-1.json").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(assessedAt))

	rec, err := s.InsertReport(context.Background(), ReportRecord{
		ID: "r-1", SubjectID: "subject-1", Kind: "nutrition", StorageRef: "subject-1/nutrition/r-1.json",
	})
	require.NoError(t, err)
	assert.Equal(t, assessedAt, rec.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReport_GeneratesID(t *testing.T) {
	db, mock, s := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO reports`).
		WithArgs(sqlmock.AnyArg(), "subject-1", "assessment", "ref").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(assessedAt))

	rec, err := s.InsertReport(context.Background(), ReportRecord{SubjectID: "subject-1", Kind: "assessment", StorageRef: "ref"})
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)
	require.NoError(t, mock.ExpectationsWereMet())
}
