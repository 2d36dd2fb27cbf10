package scoring

import "fmt"

// Probability bands assigned when a condition threshold is reached.
const (
	ProbabilityLow      = 25.0
	ProbabilityModerate = 50.0
	ProbabilityHigh     = 80.0
)

// Validate checks the rule is named and its thresholds are ordered.
func (r ConditionRule) Validate() error {
	if r.Condition == "" {
		return fmt.Errorf("condition rule has empty name")
	}
	t := r.Thresholds
	if t.Low > t.Moderate || t.Moderate > t.High {
		return fmt.Errorf("condition %q: thresholds must be ordered low <= moderate <= high, got %g/%g/%g",
			r.Condition, t.Low, t.Moderate, t.High)
	}
	return nil
}

// Probability returns the band the score falls into, or 0 when the rule does not fire.
func (r ConditionRule) Probability(score float64) float64 {
	switch {
	case score >= r.Thresholds.High:
		return ProbabilityHigh
	case score >= r.Thresholds.Moderate:
		return ProbabilityModerate
	case score >= r.Thresholds.Low:
		return ProbabilityLow
	default:
		return 0
	}
}

// EvaluateInsights returns the fired rules in catalog order.
func EvaluateInsights(score float64, rules []ConditionRule) []PredictiveInsight {
	var insights []PredictiveInsight
	for _, rule := range rules {
		p := rule.Probability(score)
		if p == 0 {
			continue
		}
		insights = append(insights, PredictiveInsight{
			Condition:                rule.Condition,
			ProbabilityOfDevelopment: p,
			RecommendedActions:       append([]RecommendedAction(nil), rule.RecommendedActions...),
		})
	}
	return insights
}
