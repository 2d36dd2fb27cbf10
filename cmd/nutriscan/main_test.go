package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/pkg/config"
	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

const readingsJSON = `{"readings": [
	{"kind": "BloodPressure", "value": [145, 80]},
	{"kind": "Cholesterol", "value": 250},
	{"kind": "BloodSugar", "value": 150},
	{"kind": "BMI", "value": 17}
]}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCmdFlags(t *testing.T) {
	tests := []struct {
		name  string
		cmd   func() *cobra.Command
		flags []string
	}{
		{"score", newScoreCmd, []string{"input", "output", "subject", "archive"}},
		{"trend", newTrendCmd, []string{"input", "output"}},
		{"nutrition", newNutritionCmd, []string{"input", "output", "goal", "breakdown", "timezone"}},
		{"engagement", newEngagementCmd, []string{"input", "output"}},
		{"serve", newServeCmd, []string{"port", "data-dir"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.cmd().Flags()
			for _, flag := range tc.flags {
				if f.Lookup(flag) == nil {
					t.Errorf("missing flag: %s", flag)
				}
			}
			if f.Lookup("output") != nil {
				if out, _ := f.GetString("output"); out != "text" {
					t.Errorf("default output = %q, want text", out)
				}
			}
		})
	}
}

func TestMigrateCmd(t *testing.T) {
	cmd := newMigrateCmd()
	if cmd.PersistentFlags().Lookup("database-url") == nil {
		t.Error("missing flag: database-url")
	}
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "down,up,version" {
		t.Errorf("subcommands = %s, want down,up,version", got)
	}
}

func TestRunScore(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	input := writeFile(t, "readings.json", readingsJSON)

	var out bytes.Buffer
	err := runScore(context.Background(), scoring.NewDefaultEngine(), scoreOpts{
		inputPath: input,
		outputFmt: "text",
	}, nil, &out)
	if err != nil {
		t.Fatalf("runScore() error: %v", err)
	}
	if !strings.Contains(out.String(), "Moderate risk, score 46.0") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunScore_YAMLAndArchive(t *testing.T) {
	input := writeFile(t, "readings.yaml", `
readings:
  - kind: BloodPressure
    value: [145, 80]
  - kind: Cholesterol
    value: 250
  - kind: BloodSugar
    value: 150
  - kind: BMI
    value: 17
`)
	archive := t.TempDir()

	var out bytes.Buffer
	err := runScore(context.Background(), scoring.NewDefaultEngine(), scoreOpts{
		inputPath:  input,
		outputFmt:  "json",
		subjectID:  "subject-1",
		archiveDir: archive,
	}, nil, &out)
	if err != nil {
		t.Fatalf("runScore() error: %v", err)
	}

	var got struct {
		Assessment scoring.Assessment `json:"assessment"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Assessment.Score.Value != 46 {
		t.Errorf("score = %v, want 46", got.Assessment.Score.Value)
	}

	files, _ := filepath.Glob(filepath.Join(archive, "subject-1", "assessment", "*.json"))
	if len(files) != 1 {
		t.Errorf("archived reports = %v, want one", files)
	}
}

func TestRunScore_Errors(t *testing.T) {
	engine := scoring.NewDefaultEngine()

	bad := writeFile(t, "bad.json", `{"readings": [{"kind": "BloodPressure", "value": 120}]}`)
	if err := runScore(context.Background(), engine, scoreOpts{inputPath: bad, outputFmt: "text"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for scalar blood pressure")
	}
	good := writeFile(t, "good.json", readingsJSON)
	if err := runScore(context.Background(), engine, scoreOpts{inputPath: good, outputFmt: "xml"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown output format")
	}
	if err := runScore(context.Background(), engine, scoreOpts{inputPath: "/does/not/exist.json"}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for missing input")
	}
	archive := t.TempDir()
	if err := runScore(context.Background(), engine, scoreOpts{inputPath: good, subjectID: "../up", archiveDir: archive}, nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for a subject that is not a single path segment")
	}
}

func TestRunTrend_Stdin(t *testing.T) {
	stdin := strings.NewReader(`{"history": [
		{"assessed_at": "2025-03-15T00:00:00Z", "score": 40},
		{"assessed_at": "2025-03-01T00:00:00Z", "score": 60},
		{"assessed_at": "2025-03-08T00:00:00Z", "score": 50}
	]}`)

	var out bytes.Buffer
	if err := runTrend(scoring.NewDefaultEngine(), trendOpts{inputPath: "-", outputFmt: "json"}, stdin, &out); err != nil {
		t.Fatalf("runTrend() error: %v", err)
	}
	var traj scoring.Trajectory
	if err := json.Unmarshal(out.Bytes(), &traj); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if traj.Overall.Direction != scoring.TrendDecreasing || traj.Overall.CurrentScore != 40 || traj.Overall.ProjectedScore != 30 {
		t.Errorf("overall = %+v", traj.Overall)
	}
}

func TestRunTrend_InsufficientHistory(t *testing.T) {
	stdin := strings.NewReader(`{"history": [{"score": 40}]}`)
	if err := runTrend(scoring.NewDefaultEngine(), trendOpts{inputPath: "-"}, stdin, &bytes.Buffer{}); err == nil {
		t.Error("expected error for a single point")
	}
}

func TestRunNutrition(t *testing.T) {
	input := writeFile(t, "entries.json", `{
		"goals": ["Weight Loss"],
		"entries": [
			{"food_name": "Oatmeal", "meal_type": "Breakfast", "consumed_at": "2025-03-17T08:00:00Z",
			 "nutritional_info": {"calories": 300, "protein": 10, "carbohydrates": 54, "fat": 5, "fiber": 8}},
			{"food_name": "Pizza", "meal_type": "Dinner", "consumed_at": "2025-03-17T19:00:00Z",
			 "nutritional_info": {"calories": 4000, "protein": 90, "carbohydrates": 300, "fat": 180, "sugar": 40}}
		]
	}`)

	var out bytes.Buffer
	err := runNutrition(nutrition.NewDefaultAggregator(), nutritionOpts{
		inputPath: input,
		outputFmt: "json",
		goals:     []string{"Muscle Gain"},
		breakdown: true,
		timezone:  "UTC",
	}, nil, &out)
	if err != nil {
		t.Fatalf("runNutrition() error: %v", err)
	}

	var got struct {
		Profile        nutrition.Profile         `json:"profile"`
		GoalAlignments []nutrition.GoalAlignment `json:"goal_alignments"`
		Trends         *nutrition.Trends         `json:"trends"`
		Breakdown      *nutrition.Breakdown      `json:"breakdown"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Profile.EntryCount != 2 || got.Profile.AverageDailyIntake.Calories != 2150 {
		t.Errorf("profile = %+v", got.Profile)
	}
	if len(got.GoalAlignments) != 2 {
		t.Fatalf("goal alignments = %+v", got.GoalAlignments)
	}
	if got.GoalAlignments[0].Alignment != nutrition.AlignmentMisaligned {
		t.Errorf("weight loss alignment = %s, want Misaligned", got.GoalAlignments[0].Alignment)
	}
	if got.GoalAlignments[1].Alignment != nutrition.AlignmentPartiallyAligned {
		t.Errorf("muscle gain alignment = %s, want Partially Aligned", got.GoalAlignments[1].Alignment)
	}
	if got.Trends != nil {
		t.Error("trends need at least 10 entries")
	}
	if got.Breakdown == nil || len(got.Breakdown.TopFoods) != 2 {
		t.Errorf("breakdown = %+v", got.Breakdown)
	}
}

func TestRunNutrition_Rejects(t *testing.T) {
	agg := nutrition.NewDefaultAggregator()
	tests := []struct {
		name string
		body string
		opts nutritionOpts
	}{
		{"invalid entry", `{"entries": [{"food_name": "", "meal_type": "Lunch"}]}`, nutritionOpts{}},
		{"no entries", `{"entries": []}`, nutritionOpts{}},
		{"unknown goal", `{"entries": [{"food_name": "Rice", "meal_type": "Lunch"}]}`, nutritionOpts{goals: []string{"Flight"}}},
		{"bad timezone", `{"entries": [{"food_name": "Rice", "meal_type": "Lunch"}]}`, nutritionOpts{timezone: "Mars/Olympus"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.inputPath = "-"
			if err := runNutrition(agg, tc.opts, strings.NewReader(tc.body), &bytes.Buffer{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRunEngagement(t *testing.T) {
	stdin := strings.NewReader(`{"interactions": ["Profile", "Profile", "Authentication"]}`)

	var out bytes.Buffer
	if err := runEngagement(engagement.NewDefaultScorer(), engagementOpts{inputPath: "-", outputFmt: "json"}, stdin, &out); err != nil {
		t.Fatalf("runEngagement() error: %v", err)
	}
	var got struct {
		Score    int                  `json:"engagement_score"`
		Patterns []engagement.Pattern `json:"patterns"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Score != 83 || len(got.Patterns) != 2 {
		t.Errorf("got %+v", got)
	}

	neg := strings.NewReader(`{"patterns": [{"category": "Fitness", "total_interactions": -1}]}`)
	if err := runEngagement(engagement.NewDefaultScorer(), engagementOpts{inputPath: "-"}, neg, &bytes.Buffer{}); err == nil {
		t.Error("expected error for negative interactions")
	}
}

func TestRootCmd_Score(t *testing.T) {
	input := writeFile(t, "readings.json", readingsJSON)
	cfgPath := writeFile(t, "config.yaml", "scoring:\n  breakpoints:\n    moderate: 10\n    high: 40\n    critical: 90\n")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"score", "--config", cfgPath, "--input", input, "--output", "json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	var got struct {
		Assessment scoring.Assessment `json:"assessment"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Assessment.Score.Level != scoring.RiskHigh {
		t.Errorf("level = %s, want High under the configured breakpoints", got.Assessment.Score.Level)
	}
}

func TestNewLocalHandler(t *testing.T) {
	h, err := newLocalHandler(config.DefaultConfig(), t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("newLocalHandler() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects/subject-1/assessments", strings.NewReader(readingsJSON))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"a", "b", "c"}, "a"},
		{[]string{"", "b", "c"}, "b"},
		{[]string{"", "", "c"}, "c"},
		{[]string{"", "", ""}, ""},
	}

	for _, tt := range tests {
		got := firstNonEmpty(tt.args...)
		if got != tt.want {
			t.Errorf("firstNonEmpty(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
