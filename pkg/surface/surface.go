// Package surface defines output rendering for NutriScan results.
// Implementations handle different output targets: terminal, Markdown, JSON.
package surface

import (
	"fmt"
	"io"

	"github.com/nutriscan/nutriscan/pkg/engagement"
	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// AssessmentReport is a scored assessment with its category advice.
type AssessmentReport struct {
	Assessment      *scoring.Assessment              `json:"assessment"`
	Recommendations []scoring.CategoryRecommendation `json:"recommendations"`
}

// NutritionReport is an intake profile with the optional sections that
// depend on goals, history length and report detail.
type NutritionReport struct {
	Profile        *nutrition.Profile        `json:"profile"`
	GoalAlignments []nutrition.GoalAlignment `json:"goal_alignments,omitempty"`
	Trends         *nutrition.Trends         `json:"trends,omitempty"`
	Breakdown      *nutrition.Breakdown      `json:"breakdown,omitempty"`
}

// EngagementReport is an engagement score with its suggestions.
type EngagementReport struct {
	Score           int                        `json:"engagement_score"`
	Patterns        []engagement.Pattern       `json:"patterns"`
	Recommendations engagement.Recommendations `json:"recommendations"`
}

// Renderer produces formatted output from engine results.
type Renderer interface {
	RenderAssessment(w io.Writer, r *AssessmentReport) error
	RenderTrajectory(w io.Writer, t *scoring.Trajectory) error
	RenderNutrition(w io.Writer, r *NutritionReport) error
	RenderEngagement(w io.Writer, r *EngagementReport) error
}

// New returns the renderer for an output format: text, json or markdown.
func New(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or markdown)", format)
	}
}
