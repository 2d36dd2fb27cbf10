package scoring

import "fmt"

// CompositeScorer combines weighted indicator contributions into one bounded score.
type CompositeScorer struct {
	evaluator   *Evaluator
	classifier  Classifier
	proportions []CategoryProportion
}

// NewCompositeScorer builds a scorer. The proportion list is copied and its
// order defines the order of every breakdown.
func NewCompositeScorer(evaluator *Evaluator, classifier Classifier, proportions []CategoryProportion) *CompositeScorer {
	return &CompositeScorer{
		evaluator:   evaluator,
		classifier:  classifier,
		proportions: append([]CategoryProportion(nil), proportions...),
	}
}

// Score sums contributions, clamps to [0,100], rounds half up and classifies.
// An empty reading list scores 0/Low.
func (s *CompositeScorer) Score(readings []IndicatorReading) (CompositeScore, error) {
	_, score, err := s.Evaluate(readings)
	return score, err
}

// Evaluate is Score that also returns the per-reading evaluations in input order.
func (s *CompositeScorer) Evaluate(readings []IndicatorReading) ([]IndicatorEvaluation, CompositeScore, error) {
	evals := make([]IndicatorEvaluation, 0, len(readings))
	var total float64
	for i, r := range readings {
		ev, err := s.evaluator.Evaluate(r)
		if err != nil {
			return nil, CompositeScore{}, fmt.Errorf("reading %d: %w", i, err)
		}
		evals = append(evals, ev)
		total += ev.RiskContribution
	}

	value := RoundHalfUp(clamp(total, 0, 100))
	return evals, CompositeScore{Value: value, Level: s.classifier.Classify(value)}, nil
}

// CategoryBreakdown scales the composite by each category proportion. Each
// category is classified from its unrounded scaled score, then rounded.
func (s *CompositeScorer) CategoryBreakdown(score float64) RiskCategoryBreakdown {
	out := make(RiskCategoryBreakdown, 0, len(s.proportions))
	for _, p := range s.proportions {
		scaled := score * p.Proportion
		out = append(out, CategoryScore{
			Category: p.Category,
			Level:    s.classifier.Classify(scaled),
			Score:    RoundHalfUp(scaled),
		})
	}
	return out
}

// ValidateProportions checks each proportion lies in [0,1] and categories are unique.
func ValidateProportions(proportions []CategoryProportion) error {
	seen := make(map[RiskCategory]bool, len(proportions))
	for _, p := range proportions {
		if p.Category == "" {
			return fmt.Errorf("category proportion has empty category")
		}
		if seen[p.Category] {
			return fmt.Errorf("duplicate category proportion for %s", p.Category)
		}
		seen[p.Category] = true
		if p.Proportion < 0 || p.Proportion > 1 {
			return fmt.Errorf("proportion for %s must be within [0,1], got %g", p.Category, p.Proportion)
		}
	}
	return nil
}
