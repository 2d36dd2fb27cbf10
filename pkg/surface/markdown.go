package surface

import (
	"fmt"
	"io"
	"strings"

	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// MarkdownRenderer produces Markdown reports suitable for sharing with a
// care team or attaching to a ticket.
type MarkdownRenderer struct{}

func levelEmoji(level scoring.RiskLevel) string {
	switch level {
	case scoring.RiskLow:
		return "🟢"
	case scoring.RiskModerate:
		return "🟡"
	case scoring.RiskHigh:
		return "🟠"
	case scoring.RiskCritical:
		return "🔴"
	default:
		return "⚪"
	}
}

func (r *MarkdownRenderer) RenderAssessment(w io.Writer, rep *AssessmentReport) error {
	_, err := io.WriteString(w, BuildAssessmentMarkdown(rep))
	return err
}

// BuildAssessmentMarkdown formats an assessment as a Markdown document.
func BuildAssessmentMarkdown(rep *AssessmentReport) string {
	a := rep.Assessment
	var b strings.Builder

	fmt.Fprintf(&b, "## %s Health risk: %s (%.1f)\n\n", levelEmoji(a.Score.Level), a.Score.Level, a.Score.Value)
	if !a.AssessedAt.IsZero() {
		fmt.Fprintf(&b, "_Assessed %s_\n\n", a.AssessedAt.Format("2006-01-02 15:04 MST"))
	}

	b.WriteString("### Indicators\n\n")
	b.WriteString("| Indicator | Value | Status | Contribution |\n")
	b.WriteString("|-----------|-------|--------|-------------:|\n")
	for _, ev := range a.Indicators {
		fmt.Fprintf(&b, "| %s | %s | %s | %.1f |\n", ev.Kind, ev.Value, ev.Status, ev.RiskContribution)
	}
	b.WriteString("\n")

	b.WriteString("### Categories\n\n")
	b.WriteString("| Category | Score | Level |\n")
	b.WriteString("|----------|------:|-------|\n")
	for _, cs := range a.Categories {
		fmt.Fprintf(&b, "| %s | %.1f | %s %s |\n", cs.Category, cs.Score, levelEmoji(cs.Level), cs.Level)
	}
	b.WriteString("\n")

	if len(a.Insights) > 0 {
		b.WriteString("### Predictive insights\n\n")
		for _, in := range a.Insights {
			fmt.Fprintf(&b, "- **%s**: %.0f%% probability of development\n", in.Condition, in.ProbabilityOfDevelopment)
			for _, act := range in.RecommendedActions {
				fmt.Fprintf(&b, "  %d. %s (%s)\n", act.Priority, act.Description, act.Type)
			}
		}
		b.WriteString("\n")
	}

	if len(rep.Recommendations) > 0 {
		b.WriteString("<details>\n<summary>Recommendations</summary>\n\n")
		for _, cr := range rep.Recommendations {
			fmt.Fprintf(&b, "**%s** (%s)\n\n", cr.Category, cr.Level)
			for _, s := range cr.Recommendations {
				fmt.Fprintf(&b, "- %s\n", s)
			}
			b.WriteString("\n")
		}
		b.WriteString("</details>\n")
	}
	return b.String()
}

func (r *MarkdownRenderer) RenderTrajectory(w io.Writer, t *scoring.Trajectory) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Risk trajectory (%d assessments)\n\n", len(t.History))
	b.WriteString("| Series | Direction | Rate | Current | Projected | Level |\n")
	b.WriteString("|--------|-----------|-----:|--------:|----------:|-------|\n")
	row := func(name string, p scoring.TrendProjection) {
		fmt.Fprintf(&b, "| %s | %s %s | %.2f | %.1f | %.1f | %s %s |\n",
			name, trendArrow(p.Direction), p.Direction, p.Rate, p.CurrentScore, p.ProjectedScore,
			levelEmoji(p.ProjectedLevel), p.ProjectedLevel)
	}
	row("Overall", t.Overall)
	for _, c := range sortedCategories(t.Categories) {
		row(string(c), t.Categories[c])
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *MarkdownRenderer) RenderNutrition(w io.Writer, rep *NutritionReport) error {
	p := rep.Profile
	var b strings.Builder
	fmt.Fprintf(&b, "## Nutrition profile (%d entries)\n\n", p.EntryCount)

	avg := p.AverageDailyIntake
	b.WriteString("| Calories | Protein | Carbs | Fat | Sugar | Fiber |\n")
	b.WriteString("|---------:|--------:|------:|----:|------:|------:|\n")
	fmt.Fprintf(&b, "| %.1f | %.1f | %.1f | %.1f | %.1f | %.1f |\n\n",
		avg.Calories, avg.Protein, avg.Carbohydrates, avg.Fat, avg.Sugar, avg.Fiber)

	if len(p.HealthRisks) > 0 {
		b.WriteString("### Health risks\n\n")
		for _, hr := range p.HealthRisks {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", hr.Type, hr.Severity, hr.Details)
		}
		b.WriteString("\n")
	}
	if len(p.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, rec := range p.Recommendations {
			fmt.Fprintf(&b, "- **%s**: %s _(confidence %.2f)_\n", rec.Category, rec.Recommendation, rec.ConfidenceScore)
		}
		b.WriteString("\n")
	}
	if len(rep.GoalAlignments) > 0 {
		b.WriteString("### Goals\n\n")
		for _, ga := range rep.GoalAlignments {
			fmt.Fprintf(&b, "- %s: **%s**\n", ga.GoalType, ga.Alignment)
		}
		b.WriteString("\n")
	}
	if bd := rep.Breakdown; bd != nil && len(bd.TopFoods) > 0 {
		b.WriteString("### Top foods\n\n")
		for _, f := range bd.TopFoods {
			fmt.Fprintf(&b, "- %s x%d\n", f.FoodName, f.Count)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *MarkdownRenderer) RenderEngagement(w io.Writer, rep *EngagementReport) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Engagement score: %d\n\n", rep.Score)
	for _, c := range rep.Recommendations.LowEngagementAreas {
		fmt.Fprintf(&b, "- **%s**", c)
		if f := rep.Recommendations.SuggestedFeatures[c]; len(f) > 0 {
			fmt.Fprintf(&b, ": try %s", strings.Join(f, ", "))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
