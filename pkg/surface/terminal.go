package surface

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// TerminalRenderer renders results as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func levelColor(level scoring.RiskLevel) string {
	if noColor() {
		return ""
	}
	switch level {
	case scoring.RiskLow:
		return colorGreen
	case scoring.RiskModerate:
		return colorYellow
	case scoring.RiskHigh, scoring.RiskCritical:
		return colorRed
	default:
		return ""
	}
}

func statusColor(status scoring.IndicatorStatus) string {
	switch status {
	case scoring.StatusNormal:
		return colorGreen
	case scoring.StatusBorderline:
		return colorYellow
	case scoring.StatusAbnormal:
		return colorRed
	default:
		return ""
	}
}

func alignmentColor(a nutrition.Alignment) string {
	switch a {
	case nutrition.AlignmentMisaligned:
		return colorRed
	case nutrition.AlignmentPartiallyAligned:
		return colorYellow
	default:
		return colorGreen
	}
}

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) RenderAssessment(w io.Writer, rep *AssessmentReport) error {
	a := rep.Assessment
	lc := levelColor(a.Score.Level)

	fmt.Fprintf(w, "%s\n\n",
		bold(fmt.Sprintf("NutriScan: %s risk, score %.1f",
			colored(string(a.Score.Level), lc), a.Score.Value)))

	fmt.Fprintln(w, "Indicators:")
	for _, ev := range a.Indicators {
		fmt.Fprintf(w, "  %-18s %-10s %s  %s\n",
			ev.Kind, ev.Value, colored(fmt.Sprintf("%-10s", ev.Status), statusColor(ev.Status)),
			dim(fmt.Sprintf("risk %.0f x %.2f = %.1f", ev.RawRisk, ev.Weight, ev.RiskContribution)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Categories:")
	for _, cs := range a.Categories {
		fmt.Fprintf(w, "  %-16s %5.1f  %s\n", cs.Category, cs.Score,
			colored(string(cs.Level), levelColor(cs.Level)))
	}
	fmt.Fprintln(w)

	if len(a.Insights) > 0 {
		fmt.Fprintln(w, "Predictive insights:")
		for _, in := range a.Insights {
			fmt.Fprintf(w, "  %s %s (%.0f%%)\n",
				colored("●", probabilityColor(in.ProbabilityOfDevelopment)), bold(in.Condition), in.ProbabilityOfDevelopment)
			for _, act := range in.RecommendedActions {
				fmt.Fprintf(w, "    %d. [%s] %s\n", act.Priority, act.Type, act.Description)
			}
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "No predictive insights.")
		fmt.Fprintln(w)
	}

	if len(rep.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, cr := range rep.Recommendations {
			fmt.Fprintf(w, "  %s (%s)\n", bold(string(cr.Category)), colored(string(cr.Level), levelColor(cr.Level)))
			for _, s := range cr.Recommendations {
				for i, line := range wrapText(s, 70) {
					prefix := "    • "
					if i > 0 {
						prefix = "      "
					}
					fmt.Fprintf(w, "%s%s\n", prefix, line)
				}
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func probabilityColor(p float64) string {
	switch {
	case p >= 80:
		return colorRed
	case p >= 50:
		return colorYellow
	default:
		return colorGreen
	}
}

func trendArrow(d scoring.TrendDirection) string {
	switch d {
	case scoring.TrendIncreasing:
		return "↑"
	case scoring.TrendDecreasing:
		return "↓"
	default:
		return "→"
	}
}

func writeProjection(w io.Writer, label string, p scoring.TrendProjection) {
	fmt.Fprintf(w, "  %-16s %s %-10s %6.1f → %5.1f  %s  %s\n",
		label, trendArrow(p.Direction), p.Direction, p.CurrentScore, p.ProjectedScore,
		colored(string(p.ProjectedLevel), levelColor(p.ProjectedLevel)),
		dim(fmt.Sprintf("rate %.2f", p.Rate)))
}

func (r *TerminalRenderer) RenderTrajectory(w io.Writer, t *scoring.Trajectory) error {
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("NutriScan: trajectory over %d assessments", len(t.History))))

	fmt.Fprintln(w, "History:")
	for _, p := range t.History {
		date := "-"
		if !p.AssessedAt.IsZero() {
			date = p.AssessedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "  %s  %5.1f  %s\n", date, p.Score, colored(string(p.Level), levelColor(p.Level)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Projection:")
	writeProjection(w, "Overall", t.Overall)
	for _, c := range sortedCategories(t.Categories) {
		writeProjection(w, string(c), t.Categories[c])
	}
	fmt.Fprintln(w)
	return nil
}

func sortedCategories(m map[scoring.RiskCategory]scoring.TrendProjection) []scoring.RiskCategory {
	out := make([]scoring.RiskCategory, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *TerminalRenderer) RenderNutrition(w io.Writer, rep *NutritionReport) error {
	p := rep.Profile
	fmt.Fprintf(w, "%s\n\n", bold(fmt.Sprintf("NutriScan: nutrition profile over %d entries", p.EntryCount)))

	avg := p.AverageDailyIntake
	fmt.Fprintln(w, "Average intake:")
	fmt.Fprintf(w, "  calories %.1f  protein %.1fg  carbs %.1fg  fat %.1fg  sugar %.1fg  fiber %.1fg\n",
		avg.Calories, avg.Protein, avg.Carbohydrates, avg.Fat, avg.Sugar, avg.Fiber)
	mb := p.MacronutrientBalance
	fmt.Fprintf(w, "  %s\n\n", dim(fmt.Sprintf("macros: protein %.0f%% / carbs %.0f%% / fat %.0f%%",
		mb.ProteinPercentage, mb.CarbPercentage, mb.FatPercentage)))

	if len(p.Micronutrients) > 0 {
		fmt.Fprintln(w, "Micronutrients:")
		for _, m := range p.Micronutrients {
			fmt.Fprintf(w, "  %-14s %-10s %s\n", m.Name, colored(string(m.Level), micronutrientColor(m.Level)),
				dim(fmt.Sprintf("%.1f of %.1f", m.CurrentValue, m.RecommendedValue)))
		}
		fmt.Fprintln(w)
	}

	if len(p.HealthRisks) > 0 {
		fmt.Fprintln(w, "Health risks:")
		for _, hr := range p.HealthRisks {
			fmt.Fprintf(w, "  %s %s (%s): %s\n", colored("●", colorRed), bold(hr.Type), hr.Severity, hr.Details)
			for _, a := range hr.RecommendedActions {
				fmt.Fprintf(w, "    • %s\n", a)
			}
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintln(w, "No health risks.")
		fmt.Fprintln(w)
	}

	if len(p.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range p.Recommendations {
			fmt.Fprintf(w, "  • %s %s\n", bold(rec.Category+":"), rec.Recommendation)
			for _, line := range wrapText(rec.Rationale, 70) {
				fmt.Fprintf(w, "    %s\n", dim(line))
			}
		}
		fmt.Fprintln(w)
	}

	if len(rep.GoalAlignments) > 0 {
		fmt.Fprintln(w, "Goals:")
		for _, ga := range rep.GoalAlignments {
			fmt.Fprintf(w, "  %-22s %s\n", ga.GoalType, colored(string(ga.Alignment), alignmentColor(ga.Alignment)))
			for _, adj := range ga.RecommendedAdjustments {
				fmt.Fprintf(w, "    • %s\n", adj)
			}
		}
		fmt.Fprintln(w)
	}

	if t := rep.Trends; t != nil {
		fmt.Fprintln(w, "Trends (next entry):")
		for _, row := range []struct {
			name string
			nt   nutrition.NutrientTrend
		}{
			{"calories", t.Calories},
			{"protein", t.Protein},
			{"carbohydrates", t.Carbohydrates},
			{"fat", t.Fat},
		} {
			fmt.Fprintf(w, "  %-14s %8.1f  %s\n", row.name, row.nt.NextValue, dim(fmt.Sprintf("slope %+.2f", row.nt.Slope)))
		}
		fmt.Fprintln(w)
	}

	if b := rep.Breakdown; b != nil && len(b.TopFoods) > 0 {
		fmt.Fprintln(w, "Top foods:")
		for _, f := range b.TopFoods {
			fmt.Fprintf(w, "  %-24s x%d  %s\n", f.FoodName, f.Count, dim(fmt.Sprintf("%.0f kcal", f.TotalCalories)))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func micronutrientColor(l nutrition.MicronutrientLevel) string {
	switch l {
	case nutrition.LevelDeficient:
		return colorRed
	case nutrition.LevelLow, nutrition.LevelHigh:
		return colorYellow
	default:
		return colorGreen
	}
}

func (r *TerminalRenderer) RenderEngagement(w io.Writer, rep *EngagementReport) error {
	color := colorGreen
	switch {
	case rep.Score < 50:
		color = colorRed
	case rep.Score < 75:
		color = colorYellow
	}
	fmt.Fprintf(w, "%s\n\n", bold("NutriScan: engagement score "+colored(fmt.Sprint(rep.Score), color)))

	if len(rep.Patterns) > 0 {
		fmt.Fprintln(w, "Interactions:")
		for _, p := range rep.Patterns {
			fmt.Fprintf(w, "  %-16s %d\n", p.Category, p.TotalInteractions)
		}
		fmt.Fprintln(w)
	}

	if len(rep.Recommendations.LowEngagementAreas) == 0 {
		fmt.Fprintln(w, "No low-engagement areas.")
		fmt.Fprintln(w)
		return nil
	}
	fmt.Fprintln(w, "Low engagement:")
	for _, c := range rep.Recommendations.LowEngagementAreas {
		fmt.Fprintf(w, "  %s\n", bold(string(c)))
		if f := rep.Recommendations.SuggestedFeatures[c]; len(f) > 0 {
			fmt.Fprintf(w, "    try: %s\n", strings.Join(f, ", "))
		}
		for _, tip := range rep.Recommendations.MotivationalTips[c] {
			fmt.Fprintf(w, "    %s\n", dim(tip))
		}
	}
	fmt.Fprintln(w)
	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
