package nutrition

import (
	"fmt"

	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// Calories per gram of each macronutrient.
const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0
)

// Micronutrient bands as a fraction of the recommended value.
const (
	deficientBelow = 0.5
	lowBelow       = 0.9
	optimalUpTo    = 1.5
)

// Config holds the rule catalogs the aggregator evaluates.
type Config struct {
	RiskRules            []RiskRule            `json:"risk_rules" yaml:"risk_rules"`
	RecommendationRules  []RecommendationRule  `json:"recommendation_rules" yaml:"recommendation_rules"`
	MicronutrientTargets []MicronutrientTarget `json:"micronutrient_targets" yaml:"micronutrient_targets"`
	GoalRules            []GoalRule            `json:"goal_rules" yaml:"goal_rules"`
	MinTrendEntries      int                   `json:"min_trend_entries" yaml:"min_trend_entries"`
	TopFoods             int                   `json:"top_foods" yaml:"top_foods"`
}

// Validate checks every rule and target.
func (c Config) Validate() error {
	for i, r := range c.RiskRules {
		if err := r.When.Validate(); err != nil {
			return fmt.Errorf("risk rule %d (%s): %w", i, r.Type, err)
		}
	}
	for i, r := range c.RecommendationRules {
		if err := r.When.Validate(); err != nil {
			return fmt.Errorf("recommendation rule %d (%s): %w", i, r.Recommendation, err)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("recommendation rule %d: confidence must be within [0,1], got %g", i, r.Confidence)
		}
	}
	seen := make(map[string]bool)
	for _, t := range c.MicronutrientTargets {
		if t.Name == "" {
			return fmt.Errorf("micronutrient target has empty name")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate micronutrient target %q", t.Name)
		}
		seen[t.Name] = true
		if t.RecommendedValue <= 0 {
			return fmt.Errorf("micronutrient %s: recommended value must be positive", t.Name)
		}
	}
	for i, r := range c.GoalRules {
		if r.Goal == "" {
			return fmt.Errorf("goal rule %d: goal is required", i)
		}
		if err := r.When.Validate(); err != nil {
			return fmt.Errorf("goal rule %d (%s): %w", i, r.Goal, err)
		}
	}
	if c.MinTrendEntries < 2 {
		return fmt.Errorf("min_trend_entries must be at least 2, got %d", c.MinTrendEntries)
	}
	if c.TopFoods < 1 {
		return fmt.Errorf("top_foods must be positive, got %d", c.TopFoods)
	}
	return nil
}

// Aggregator rolls entries up into a Profile. It holds no mutable state.
type Aggregator struct {
	cfg Config
}

// NewAggregator validates cfg and copies its catalogs.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid nutrition config: %w", err)
	}
	return &Aggregator{cfg: Config{
		RiskRules:            append([]RiskRule(nil), cfg.RiskRules...),
		RecommendationRules:  append([]RecommendationRule(nil), cfg.RecommendationRules...),
		MicronutrientTargets: append([]MicronutrientTarget(nil), cfg.MicronutrientTargets...),
		GoalRules:            append([]GoalRule(nil), cfg.GoalRules...),
		MinTrendEntries:      cfg.MinTrendEntries,
		TopFoods:             cfg.TopFoods,
	}}, nil
}

// NewDefaultAggregator returns an aggregator over DefaultConfig.
func NewDefaultAggregator() *Aggregator {
	a, err := NewAggregator(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default nutrition config is invalid: %v", err))
	}
	return a
}

// MinTrendEntries is the number of entries Trends requires.
func (a *Aggregator) MinTrendEntries() int { return a.cfg.MinTrendEntries }

// Aggregate computes averages, macro balance, micronutrient status and fires the rule catalogs.
func (a *Aggregator) Aggregate(entries []Entry) (*Profile, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyEntrySet
	}

	var total Facts
	for _, e := range entries {
		total.Calories += e.Nutrients.Calories
		total.Protein += e.Nutrients.Protein
		total.Carbohydrates += e.Nutrients.Carbohydrates
		total.Fat += e.Nutrients.Fat
		total.Sugar += e.Nutrients.Sugar
		total.Fiber += e.Nutrients.Fiber
	}
	n := float64(len(entries))

	p := &Profile{
		EntryCount: len(entries),
		AverageDailyIntake: Facts{
			Calories:      total.Calories / n,
			Protein:       total.Protein / n,
			Carbohydrates: total.Carbohydrates / n,
			Fat:           total.Fat / n,
			Sugar:         total.Sugar / n,
			Fiber:         total.Fiber / n,
		},
		MacronutrientBalance: MacroBalanceOf(total),
		Micronutrients:       a.micronutrientStatus(entries),
	}

	for _, r := range a.cfg.RiskRules {
		if r.When.Holds(p) {
			p.HealthRisks = append(p.HealthRisks, HealthRisk{
				Type:               r.Type,
				Severity:           r.Severity,
				Details:            r.Details,
				RecommendedActions: append([]string(nil), r.RecommendedActions...),
			})
		}
	}
	for _, r := range a.cfg.RecommendationRules {
		if r.When.Holds(p) {
			p.Recommendations = append(p.Recommendations, Recommendation{
				Category:        r.Category,
				Recommendation:  r.Recommendation,
				Rationale:       r.Rationale,
				ConfidenceScore: r.Confidence,
			})
		}
	}
	return p, nil
}

// MacroBalanceOf computes whole-percent macro shares from summed totals.
// A zero macro calorie total yields all zeros.
func MacroBalanceOf(total Facts) MacroBalance {
	protein := total.Protein * kcalPerGramProtein
	carbs := total.Carbohydrates * kcalPerGramCarbs
	fat := total.Fat * kcalPerGramFat
	sum := protein + carbs + fat
	if sum == 0 {
		return MacroBalance{}
	}
	return MacroBalance{
		ProteinPercentage: scoring.RoundHalfUp(protein / sum * 100),
		CarbPercentage:    scoring.RoundHalfUp(carbs / sum * 100),
		FatPercentage:     scoring.RoundHalfUp(fat / sum * 100),
	}
}

// Nutrients no entry reported are omitted; entries that do not report a
// nutrient count as zero intake for it.
func (a *Aggregator) micronutrientStatus(entries []Entry) []MicronutrientStatus {
	var out []MicronutrientStatus
	for _, t := range a.cfg.MicronutrientTargets {
		var sum float64
		reported := false
		for _, e := range entries {
			if v, ok := e.Micronutrients[t.Name]; ok {
				sum += v
				reported = true
			}
		}
		if !reported {
			continue
		}
		current := sum / float64(len(entries))
		out = append(out, MicronutrientStatus{
			Name:             t.Name,
			Group:            t.Group,
			Level:            levelFor(current, t.RecommendedValue),
			CurrentValue:     current,
			RecommendedValue: t.RecommendedValue,
		})
	}
	return out
}

func levelFor(current, recommended float64) MicronutrientLevel {
	ratio := current / recommended
	switch {
	case ratio < deficientBelow:
		return LevelDeficient
	case ratio < lowBelow:
		return LevelLow
	case ratio <= optimalUpTo:
		return LevelOptimal
	default:
		return LevelHigh
	}
}

// AlignGoals assesses each goal against the profile. The first firing rule
// for a goal sets its alignment; every firing rule adds its adjustment.
// Goals without a firing rule are Neutral.
func (a *Aggregator) AlignGoals(p *Profile, goals []GoalType) []GoalAlignment {
	out := make([]GoalAlignment, 0, len(goals))
	for _, g := range goals {
		ga := GoalAlignment{GoalType: g, Alignment: AlignmentNeutral, RecommendedAdjustments: []string{}}
		fired := false
		for _, r := range a.cfg.GoalRules {
			if r.Goal != g || !r.When.Holds(p) {
				continue
			}
			if !fired {
				ga.Alignment = r.Alignment
				fired = true
			}
			if r.Adjustment != "" {
				ga.RecommendedAdjustments = append(ga.RecommendedAdjustments, r.Adjustment)
			}
		}
		out = append(out, ga)
	}
	return out
}
