package surface_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
	"github.com/nutriscan/nutriscan/pkg/surface"
)

func sampleAssessment(t *testing.T) *surface.AssessmentReport {
	t.Helper()
	engine := scoring.NewDefaultEngine().WithClock(func() time.Time {
		return time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	})
	a, err := engine.Assess([]scoring.IndicatorReading{
		{Kind: scoring.KindBloodPressure, Value: scoring.Pair(145, 80)},
		{Kind: scoring.KindCholesterol, Value: scoring.Scalar(250)},
		{Kind: scoring.KindBloodSugar, Value: scoring.Scalar(150)},
		{Kind: scoring.KindBMI, Value: scoring.Scalar(17)},
	})
	if err != nil {
		t.Fatalf("Assess() error: %v", err)
	}
	return &surface.AssessmentReport{Assessment: a, Recommendations: engine.Recommend(a.Categories)}
}

func sampleTrajectory(t *testing.T) *scoring.Trajectory {
	t.Helper()
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	traj, err := scoring.NewDefaultEngine().Trajectory([]scoring.TrajectoryPoint{
		{AssessedAt: day, Score: 60},
		{AssessedAt: day.AddDate(0, 0, 7), Score: 50},
		{AssessedAt: day.AddDate(0, 0, 14), Score: 40},
	})
	if err != nil {
		t.Fatalf("Trajectory() error: %v", err)
	}
	return traj
}

func sampleNutrition(t *testing.T) *surface.NutritionReport {
	t.Helper()
	agg := nutrition.NewDefaultAggregator()
	entries := []nutrition.Entry{
		{FoodName: "Oatmeal", MealType: nutrition.MealBreakfast, Nutrients: nutrition.Facts{Calories: 300, Protein: 10, Carbohydrates: 54, Fat: 5, Fiber: 8}},
		{FoodName: "Pizza", MealType: nutrition.MealDinner, Nutrients: nutrition.Facts{Calories: 2800, Protein: 90, Carbohydrates: 300, Fat: 130, Sugar: 40}},
	}
	p, err := agg.Aggregate(entries)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	bd := agg.Breakdown(entries, time.UTC)
	return &surface.NutritionReport{
		Profile:        p,
		GoalAlignments: agg.AlignGoals(p, []nutrition.GoalType{nutrition.GoalWeightLoss}),
		Breakdown:      &bd,
	}
}

func TestTerminalRenderer_Assessment(t *testing.T) {
	// Set NO_COLOR to avoid ANSI codes in test comparison
	t.Setenv("NO_COLOR", "1")

	r := &surface.TerminalRenderer{}
	var buf bytes.Buffer
	if err := r.RenderAssessment(&buf, sampleAssessment(t)); err != nil {
		t.Fatalf("RenderAssessment() error: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Moderate risk, score 46.0",
		"BloodPressure",
		"145/80",
		"Abnormal",
		"Cardiovascular",
		"Predictive insights:",
		"Type 2 Diabetes",
		"Recommendations:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\033[") {
		t.Error("expected no ANSI escape codes with NO_COLOR set")
	}
}

func TestTerminalRenderer_NoInsights(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	a, err := scoring.NewDefaultEngine().Assess([]scoring.IndicatorReading{
		{Kind: scoring.KindBMI, Value: scoring.Scalar(22)},
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderAssessment(&buf, &surface.AssessmentReport{Assessment: a}); err != nil {
		t.Fatalf("RenderAssessment() error: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Low risk, score 0.0") {
		t.Errorf("expected low risk header, got:\n%s", output)
	}
	if !strings.Contains(output, "No predictive insights") {
		t.Error("expected 'No predictive insights' message")
	}
}

func TestTerminalRenderer_Trajectory(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderTrajectory(&buf, sampleTrajectory(t)); err != nil {
		t.Fatalf("RenderTrajectory() error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"trajectory over 3 assessments", "2025-03-15", "Overall", "Decreasing", "rate 10.00"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestTerminalRenderer_Nutrition(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderNutrition(&buf, sampleNutrition(t)); err != nil {
		t.Fatalf("RenderNutrition() error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"profile over 2 entries", "calories 1550.0", "Goals:", "Weight Loss", "Top foods:", "Oatmeal"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Trends (next entry)") {
		t.Error("trends section should be omitted without trends")
	}
}

func TestTerminalRenderer_Engagement(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	s := engagement.NewDefaultScorer()
	patterns := []engagement.Pattern{
		{Category: engagement.CategoryNutrition, TotalInteractions: 3},
		{Category: engagement.CategoryFitness, TotalInteractions: 20},
	}
	rep := &surface.EngagementReport{Score: s.Score(patterns), Patterns: patterns, Recommendations: s.Recommend(patterns)}

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderEngagement(&buf, rep); err != nil {
		t.Fatalf("RenderEngagement() error: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"engagement score 100", "Low engagement:", "Meal Plan Generator"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestTerminalRenderer_ColorRespected(t *testing.T) {
	// Without NO_COLOR, output should have ANSI codes
	os.Unsetenv("NO_COLOR")

	var buf bytes.Buffer
	if err := (&surface.TerminalRenderer{}).RenderAssessment(&buf, sampleAssessment(t)); err != nil {
		t.Fatalf("RenderAssessment() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\033[") {
		t.Error("expected ANSI escape codes when NO_COLOR is not set")
	}
}

func TestJSONRenderer_Assessment(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.JSONRenderer{}).RenderAssessment(&buf, sampleAssessment(t)); err != nil {
		t.Fatalf("RenderAssessment() error: %v", err)
	}

	var got struct {
		Assessment struct {
			Score scoring.CompositeScore `json:"score"`
		} `json:"assessment"`
		Recommendations []scoring.CategoryRecommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Assessment.Score.Value != 46 || got.Assessment.Score.Level != scoring.RiskModerate {
		t.Errorf("score = %+v", got.Assessment.Score)
	}
	if len(got.Recommendations) != 5 {
		t.Errorf("recommendations = %d, want 5", len(got.Recommendations))
	}
}

func TestMarkdownRenderer(t *testing.T) {
	md := surface.BuildAssessmentMarkdown(sampleAssessment(t))
	for _, want := range []string{"## 🟡 Health risk: Moderate (46.0)", "| BloodPressure | 145/80 | Abnormal |", "**Type 2 Diabetes**", "<details>"} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	}

	var buf bytes.Buffer
	if err := (&surface.MarkdownRenderer{}).RenderTrajectory(&buf, sampleTrajectory(t)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "| Overall | ↓ Decreasing | 10.00 | 40.0 | 30.0 |") {
		t.Errorf("unexpected trajectory markdown:\n%s", buf.String())
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{"", &surface.TerminalRenderer{}, false},
		{"text", &surface.TerminalRenderer{}, false},
		{"json", &surface.JSONRenderer{}, false},
		{"markdown", &surface.MarkdownRenderer{}, false},
		{"xml", nil, true},
	}
	for _, tc := range tests {
		r, err := surface.New(tc.format)
		if tc.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected error", tc.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q): %v", tc.format, err)
		}
		if got, want := fmt.Sprintf("%T", r), fmt.Sprintf("%T", tc.want); got != want {
			t.Errorf("New(%q) = %s, want %s", tc.format, got, want)
		}
	}
}
