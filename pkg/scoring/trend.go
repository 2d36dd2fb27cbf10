package scoring

import (
	"fmt"
	"sort"
)

// TrendProjector fits a least-squares line over a score series and projects one step ahead.
type TrendProjector struct {
	classifier Classifier
}

// NewTrendProjector returns a projector that classifies projections with c.
func NewTrendProjector(c Classifier) *TrendProjector {
	return &TrendProjector{classifier: c}
}

// FitLine returns the ordinary least squares slope and intercept of values
// against x = origin, origin+1, ... At least two values are required.
func FitLine(values []float64, origin int) (slope, intercept float64, err error) {
	n := len(values)
	if n < 2 {
		return 0, 0, fmt.Errorf("%w: need at least 2 points, got %d", ErrInsufficientHistory, n)
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(origin + i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	slope = (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / fn
	return slope, intercept, nil
}

// Project fits the series (oldest first) against x = 1..n.
func (p *TrendProjector) Project(series []float64) (TrendProjection, error) {
	slope, _, err := FitLine(series, 1)
	if err != nil {
		return TrendProjection{}, err
	}

	tp := TrendProjection{Direction: TrendStable, CurrentScore: series[len(series)-1]}
	step := 0.0
	switch {
	case slope > 0:
		tp.Direction = TrendIncreasing
		tp.Rate = slope
		step = slope
	case slope < 0:
		tp.Direction = TrendDecreasing
		tp.Rate = -slope
		step = slope
	}
	tp.ProjectedScore = clamp(tp.CurrentScore+step, 0, 100)
	tp.ProjectedLevel = p.classifier.Classify(tp.ProjectedScore)
	return tp, nil
}

// ProjectCategories runs Project independently per category. Every breakdown
// must carry exactly the categories of the first one.
func (p *TrendProjector) ProjectCategories(series []RiskCategoryBreakdown) (map[RiskCategory]TrendProjection, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInsufficientHistory, len(series))
	}

	want := categorySet(series[0])
	perCategory := make(map[RiskCategory][]float64, len(want))
	for i, b := range series {
		got := categorySet(b)
		if len(b) != len(want) || len(got) != len(want) {
			return nil, fmt.Errorf("%w: element %d has %v, first has %v",
				ErrInconsistentCategorySet, i, sortedCategories(got), sortedCategories(want))
		}
		for _, cs := range b {
			if !want[cs.Category] {
				return nil, fmt.Errorf("%w: element %d has unexpected category %s",
					ErrInconsistentCategorySet, i, cs.Category)
			}
			perCategory[cs.Category] = append(perCategory[cs.Category], cs.Score)
		}
	}

	out := make(map[RiskCategory]TrendProjection, len(perCategory))
	for cat, scores := range perCategory {
		tp, err := p.Project(scores)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", cat, err)
		}
		out[cat] = tp
	}
	return out, nil
}

func categorySet(b RiskCategoryBreakdown) map[RiskCategory]bool {
	set := make(map[RiskCategory]bool, len(b))
	for _, cs := range b {
		set[cs.Category] = true
	}
	return set
}

func sortedCategories(set map[RiskCategory]bool) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
