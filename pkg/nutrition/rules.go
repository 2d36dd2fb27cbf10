package nutrition

import "fmt"

// Metric names a value of a Profile that rules can test.
type Metric string

const (
	MetricAvgCalories      Metric = "avg_calories"
	MetricAvgProtein       Metric = "avg_protein"
	MetricAvgCarbohydrates Metric = "avg_carbohydrates"
	MetricAvgFat           Metric = "avg_fat"
	MetricAvgSugar         Metric = "avg_sugar"
	MetricAvgFiber         Metric = "avg_fiber"
	MetricProteinPct       Metric = "protein_percentage"
	MetricCarbPct          Metric = "carb_percentage"
	MetricFatPct           Metric = "fat_percentage"
)

// Op is a comparison operator.
type Op string

const (
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
)

// Condition is either a metric comparison or a micronutrient level match.
// Exactly one of Metric and Micronutrient is set.
type Condition struct {
	Metric        Metric               `json:"metric,omitempty" yaml:"metric,omitempty"`
	Op            Op                   `json:"op,omitempty" yaml:"op,omitempty"`
	Threshold     float64              `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Micronutrient string               `json:"micronutrient,omitempty" yaml:"micronutrient,omitempty"`
	Levels        []MicronutrientLevel `json:"levels,omitempty" yaml:"levels,omitempty"`
}

// Validate checks the condition is well formed.
func (c Condition) Validate() error {
	switch {
	case c.Metric != "" && c.Micronutrient != "":
		return fmt.Errorf("condition sets both metric %q and micronutrient %q", c.Metric, c.Micronutrient)
	case c.Metric != "":
		if _, ok := metricValue(&Profile{}, c.Metric); !ok {
			return fmt.Errorf("unknown metric %q", c.Metric)
		}
		switch c.Op {
		case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		default:
			return fmt.Errorf("metric %s: unknown operator %q", c.Metric, c.Op)
		}
	case c.Micronutrient != "":
		if len(c.Levels) == 0 {
			return fmt.Errorf("micronutrient %s: no levels given", c.Micronutrient)
		}
	default:
		return fmt.Errorf("condition has neither metric nor micronutrient")
	}
	return nil
}

// Holds evaluates the condition against a profile.
func (c Condition) Holds(p *Profile) bool {
	if c.Micronutrient != "" {
		status, ok := p.Micronutrient(c.Micronutrient)
		if !ok {
			return false
		}
		for _, l := range c.Levels {
			if status.Level == l {
				return true
			}
		}
		return false
	}

	v, ok := metricValue(p, c.Metric)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGreater:
		return v > c.Threshold
	case OpGreaterEqual:
		return v >= c.Threshold
	case OpLess:
		return v < c.Threshold
	case OpLessEqual:
		return v <= c.Threshold
	}
	return false
}

func metricValue(p *Profile, m Metric) (float64, bool) {
	avg := p.AverageDailyIntake
	bal := p.MacronutrientBalance
	switch m {
	case MetricAvgCalories:
		return avg.Calories, true
	case MetricAvgProtein:
		return avg.Protein, true
	case MetricAvgCarbohydrates:
		return avg.Carbohydrates, true
	case MetricAvgFat:
		return avg.Fat, true
	case MetricAvgSugar:
		return avg.Sugar, true
	case MetricAvgFiber:
		return avg.Fiber, true
	case MetricProteinPct:
		return bal.ProteinPercentage, true
	case MetricCarbPct:
		return bal.CarbPercentage, true
	case MetricFatPct:
		return bal.FatPercentage, true
	}
	return 0, false
}

// RiskRule flags a health risk when its condition holds.
type RiskRule struct {
	When               Condition `json:"when" yaml:"when"`
	Type               string    `json:"type" yaml:"type"`
	Severity           string    `json:"severity" yaml:"severity"`
	Details            string    `json:"details" yaml:"details"`
	RecommendedActions []string  `json:"recommended_actions" yaml:"recommended_actions"`
}

// RecommendationRule emits a recommendation with a fixed confidence when its condition holds.
type RecommendationRule struct {
	When           Condition `json:"when" yaml:"when"`
	Category       string    `json:"category" yaml:"category"`
	Recommendation string    `json:"recommendation" yaml:"recommendation"`
	Rationale      string    `json:"rationale" yaml:"rationale"`
	Confidence     float64   `json:"confidence" yaml:"confidence"`
}

// MicronutrientTarget is the recommended average intake of one vitamin or mineral.
type MicronutrientTarget struct {
	Name             string  `json:"name" yaml:"name"`
	Group            string  `json:"group" yaml:"group"`
	RecommendedValue float64 `json:"recommended_value" yaml:"recommended_value"`
}

// GoalType is a subject's health goal.
type GoalType string

const (
	GoalWeightLoss           GoalType = "Weight Loss"
	GoalMuscleGain           GoalType = "Muscle Gain"
	GoalNutritionImprovement GoalType = "Nutrition Improvement"
	GoalFitness              GoalType = "Fitness"
	GoalWellness             GoalType = "Wellness"
)

// Valid reports whether g is a known goal.
func (g GoalType) Valid() bool {
	switch g {
	case GoalWeightLoss, GoalMuscleGain, GoalNutritionImprovement, GoalFitness, GoalWellness:
		return true
	}
	return false
}

// Alignment describes how well intake matches a goal.
type Alignment string

const (
	AlignmentNeutral          Alignment = "Neutral"
	AlignmentPartiallyAligned Alignment = "Partially Aligned"
	AlignmentMisaligned       Alignment = "Misaligned"
)

// GoalRule marks a goal with an alignment and adjustment when its condition holds.
type GoalRule struct {
	Goal       GoalType  `json:"goal" yaml:"goal"`
	When       Condition `json:"when" yaml:"when"`
	Alignment  Alignment `json:"alignment" yaml:"alignment"`
	Adjustment string    `json:"adjustment" yaml:"adjustment"`
}

// GoalAlignment is the assessed alignment for one goal.
type GoalAlignment struct {
	GoalType               GoalType  `json:"goal_type"`
	Alignment              Alignment `json:"alignment"`
	RecommendedAdjustments []string  `json:"recommended_adjustments"`
}
