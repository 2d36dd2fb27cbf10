// Package scoring implements the NutriScan health risk scoring engine.
// It turns indicator readings into bounded composite scores, ordered risk
// levels, threshold-driven insights and least-squares trend projections.
package scoring

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// IndicatorKind identifies a measured health indicator.
type IndicatorKind string

const (
	KindBloodPressure      IndicatorKind = "BloodPressure"
	KindCholesterol        IndicatorKind = "Cholesterol"
	KindBloodSugar         IndicatorKind = "BloodSugar"
	KindBMI                IndicatorKind = "BMI"
	KindWaistCircumference IndicatorKind = "WaistCircumference"
	KindBodyFatPercentage  IndicatorKind = "BodyFatPercentage"
	KindRestingHeartRate   IndicatorKind = "RestingHeartRate"
	KindSleepQuality       IndicatorKind = "SleepQuality"
	KindStressLevel        IndicatorKind = "StressLevel"
	KindNutrientDeficiency IndicatorKind = "NutrientDeficiency"
)

// AllIndicatorKinds lists every known kind in declaration order.
var AllIndicatorKinds = []IndicatorKind{
	KindBloodPressure,
	KindCholesterol,
	KindBloodSugar,
	KindBMI,
	KindWaistCircumference,
	KindBodyFatPercentage,
	KindRestingHeartRate,
	KindSleepQuality,
	KindStressLevel,
	KindNutrientDeficiency,
}

// Valid reports whether k is one of the known indicator kinds.
func (k IndicatorKind) Valid() bool {
	for _, known := range AllIndicatorKinds {
		if k == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts only known kinds.
func (k *IndicatorKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return k.set(s)
}

// UnmarshalYAML accepts only known kinds.
func (k *IndicatorKind) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return k.set(s)
}

func (k *IndicatorKind) set(s string) error {
	kind := IndicatorKind(s)
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownIndicatorKind, s)
	}
	*k = kind
	return nil
}

// Paired reports whether readings of this kind carry a [first, second] pair.
func (k IndicatorKind) Paired() bool { return k == KindBloodPressure }

// Range is an inclusive reference range with the same shape as the value it bounds.
type Range struct {
	Min Value `json:"min" yaml:"min"`
	Max Value `json:"max" yaml:"max"`
}

// IndicatorReading is one measured value at assessment time.
type IndicatorReading struct {
	Kind           IndicatorKind `json:"kind" yaml:"kind"`
	Value          Value         `json:"value" yaml:"value"`
	ReferenceRange *Range        `json:"reference_range,omitempty" yaml:"reference_range,omitempty"`
}

// IndicatorStatus is the per-reading classification.
type IndicatorStatus string

const (
	StatusNormal     IndicatorStatus = "Normal"
	StatusBorderline IndicatorStatus = "Borderline"
	StatusAbnormal   IndicatorStatus = "Abnormal"
)

// IndicatorEvaluation is the output of evaluating a single reading.
type IndicatorEvaluation struct {
	Kind             IndicatorKind   `json:"kind"`
	Value            Value           `json:"value"`
	RawRisk          float64         `json:"raw_risk"`
	Weight           float64         `json:"weight"`
	RiskContribution float64         `json:"risk_contribution"`
	Status           IndicatorStatus `json:"status"`
}

// RiskLevel is an ordered risk band.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Rank returns the position of the level in the total order Low < Moderate < High < Critical.
// Unknown levels rank below Low.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 0
	case RiskModerate:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return -1
	}
}

// CompositeScore is a bounded score together with its classification.
// Level is always the classification of Value.
type CompositeScore struct {
	Value float64   `json:"value"`
	Level RiskLevel `json:"level"`
}

// RiskCategory names a slice of the composite score.
type RiskCategory string

const (
	CategoryCardiovascular RiskCategory = "Cardiovascular"
	CategoryMetabolic      RiskCategory = "Metabolic"
	CategoryNutritional    RiskCategory = "Nutritional"
	CategoryLifestyle      RiskCategory = "Lifestyle"
	CategoryGenetic        RiskCategory = "Genetic"
	CategoryMentalHealth   RiskCategory = "Mental Health"
	CategoryChronicDisease RiskCategory = "Chronic Disease"
)

// CategoryProportion is the fraction of the composite assigned to a category.
type CategoryProportion struct {
	Category   RiskCategory `json:"category" yaml:"category"`
	Proportion float64      `json:"proportion" yaml:"proportion"`
}

// CategoryScore is one entry of a RiskCategoryBreakdown.
type CategoryScore struct {
	Category RiskCategory `json:"category"`
	Level    RiskLevel    `json:"level"`
	Score    float64      `json:"score"`
}

// RiskCategoryBreakdown is the ordered per-category partition of a composite score.
// Category scores are rounded independently and need not sum to the composite.
type RiskCategoryBreakdown []CategoryScore

// Categories returns the category keys in breakdown order.
func (b RiskCategoryBreakdown) Categories() []RiskCategory {
	out := make([]RiskCategory, len(b))
	for i, cs := range b {
		out[i] = cs.Category
	}
	return out
}

// Thresholds are the inclusive lower bounds of a condition's probability bands.
type Thresholds struct {
	Low      float64 `json:"low" yaml:"low"`
	Moderate float64 `json:"moderate" yaml:"moderate"`
	High     float64 `json:"high" yaml:"high"`
}

// RecommendedAction is a prioritised action attached to a condition.
type RecommendedAction struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Priority    int    `json:"priority" yaml:"priority"`
}

// ConditionRule is one entry of a predictive condition catalog.
type ConditionRule struct {
	Condition          string              `json:"condition" yaml:"condition"`
	Thresholds         Thresholds          `json:"thresholds" yaml:"thresholds"`
	RecommendedActions []RecommendedAction `json:"recommended_actions" yaml:"recommended_actions"`
}

// PredictiveInsight is a fired condition rule.
type PredictiveInsight struct {
	Condition                string              `json:"condition"`
	ProbabilityOfDevelopment float64             `json:"probability_of_development"`
	RecommendedActions       []RecommendedAction `json:"recommended_actions"`
}

// TrendDirection is the sign of a fitted slope.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "Increasing"
	TrendDecreasing TrendDirection = "Decreasing"
	TrendStable     TrendDirection = "Stable"
)

// TrendProjection is the one-step-ahead extrapolation of a score series.
type TrendProjection struct {
	Direction      TrendDirection `json:"direction"`
	Rate           float64        `json:"rate"`
	CurrentScore   float64        `json:"current_score"`
	ProjectedScore float64        `json:"projected_score"`
	ProjectedLevel RiskLevel      `json:"projected_level"`
}

// CategoryRecommendation groups improvement suggestions for one risk category.
type CategoryRecommendation struct {
	Category        RiskCategory `json:"category"`
	Level           RiskLevel    `json:"level"`
	Recommendations []string     `json:"recommendations"`
}
