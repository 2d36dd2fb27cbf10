package scoring

import "fmt"

// Config holds every table the engine consumes. Engines copy it at construction.
type Config struct {
	Weights                 Weights                   `json:"weights" yaml:"weights"`
	Breakpoints             Breakpoints               `json:"breakpoints" yaml:"breakpoints"`
	CategoryProportions     []CategoryProportion      `json:"category_proportions" yaml:"category_proportions"`
	ReferenceRanges         map[IndicatorKind]Range   `json:"reference_ranges" yaml:"reference_ranges"`
	Conditions              []ConditionRule           `json:"conditions" yaml:"conditions"`
	CategoryRecommendations map[RiskCategory][]string `json:"category_recommendations" yaml:"category_recommendations"`
}

// Validate checks every table for internal consistency.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if err := c.Breakpoints.Validate(); err != nil {
		return err
	}
	if err := ValidateProportions(c.CategoryProportions); err != nil {
		return err
	}
	for kind, rng := range c.ReferenceRanges {
		if !kind.Valid() {
			return fmt.Errorf("reference range: %w: %q", ErrUnknownIndicatorKind, kind)
		}
		want := kind.Paired()
		if rng.Min.IsPair() != want || rng.Max.IsPair() != want {
			return fmt.Errorf("reference range for %s: %w: must be %s", kind, ErrInvalidIndicatorShape, shapeName(want))
		}
	}
	seen := make(map[string]bool, len(c.Conditions))
	for _, rule := range c.Conditions {
		if err := rule.Validate(); err != nil {
			return err
		}
		if seen[rule.Condition] {
			return fmt.Errorf("duplicate condition rule %q", rule.Condition)
		}
		seen[rule.Condition] = true
	}
	return nil
}
