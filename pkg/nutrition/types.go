// Package nutrition aggregates logged food entries into an intake profile:
// averages, macronutrient balance, micronutrient status, rule-driven health
// risks and recommendations, goal alignment and intake trends.
package nutrition

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyEntrySet is returned when an average is requested over zero entries.
	ErrEmptyEntrySet = errors.New("empty entry set")

	// ErrInvalidEntry is returned by Entry.Validate.
	ErrInvalidEntry = errors.New("invalid nutrition entry")
)

// MealType is the meal an entry was logged against.
type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
)

// MealTypes lists meal types in report order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

var servingUnits = map[string]bool{"g": true, "ml": true, "piece": true, "cup": true, "oz": true, "lb": true}

// ServingSize is the logged portion.
type ServingSize struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   string  `json:"unit" yaml:"unit"`
}

// Facts are the macronutrient values of one entry, or averages over many.
type Facts struct {
	Calories      float64 `json:"calories" yaml:"calories"`
	Protein       float64 `json:"protein" yaml:"protein"`
	Carbohydrates float64 `json:"carbohydrates" yaml:"carbohydrates"`
	Fat           float64 `json:"fat" yaml:"fat"`
	Sugar         float64 `json:"sugar" yaml:"sugar"`
	Fiber         float64 `json:"fiber" yaml:"fiber"`
}

// Entry is one logged food item.
type Entry struct {
	FoodName       string             `json:"food_name" yaml:"food_name"`
	MealType       MealType           `json:"meal_type" yaml:"meal_type"`
	ConsumedAt     time.Time          `json:"consumed_at" yaml:"consumed_at"`
	ServingSize    ServingSize        `json:"serving_size" yaml:"serving_size"`
	Nutrients      Facts              `json:"nutritional_info" yaml:"nutritional_info"`
	Micronutrients map[string]float64 `json:"micronutrients,omitempty" yaml:"micronutrients,omitempty"`
	Notes          string             `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Validate checks the entry is loggable.
func (e Entry) Validate() error {
	if e.FoodName == "" {
		return fmt.Errorf("%w: food name is required", ErrInvalidEntry)
	}
	switch e.MealType {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
	default:
		return fmt.Errorf("%w: unknown meal type %q", ErrInvalidEntry, e.MealType)
	}
	if e.ServingSize.Unit != "" && !servingUnits[e.ServingSize.Unit] {
		return fmt.Errorf("%w: unknown serving unit %q", ErrInvalidEntry, e.ServingSize.Unit)
	}
	if len(e.Notes) > 500 {
		return fmt.Errorf("%w: notes exceed 500 characters", ErrInvalidEntry)
	}
	n := e.Nutrients
	for name, v := range map[string]float64{
		"calories": n.Calories, "protein": n.Protein, "carbohydrates": n.Carbohydrates,
		"fat": n.Fat, "sugar": n.Sugar, "fiber": n.Fiber,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidEntry, name)
		}
	}
	return nil
}

// MacroBalance is the share of macro-derived calories from each macronutrient, in whole percent.
type MacroBalance struct {
	ProteinPercentage float64 `json:"protein_percentage"`
	CarbPercentage    float64 `json:"carb_percentage"`
	FatPercentage     float64 `json:"fat_percentage"`
}

// MicronutrientLevel bands an average intake against its target.
type MicronutrientLevel string

const (
	LevelDeficient MicronutrientLevel = "Deficient"
	LevelLow       MicronutrientLevel = "Low"
	LevelOptimal   MicronutrientLevel = "Optimal"
	LevelHigh      MicronutrientLevel = "High"
)

// MicronutrientStatus is the assessed level of one vitamin or mineral.
type MicronutrientStatus struct {
	Name             string             `json:"name"`
	Group            string             `json:"group"`
	Level            MicronutrientLevel `json:"level"`
	CurrentValue     float64            `json:"current_value"`
	RecommendedValue float64            `json:"recommended_value"`
}

// HealthRisk is a fired risk rule.
type HealthRisk struct {
	Type               string   `json:"type"`
	Severity           string   `json:"severity"`
	Details            string   `json:"details"`
	RecommendedActions []string `json:"recommended_actions"`
}

// Recommendation is a fired recommendation rule.
type Recommendation struct {
	Category        string  `json:"category"`
	Recommendation  string  `json:"recommendation"`
	Rationale       string  `json:"rationale"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// Profile is the aggregate view over a set of entries.
type Profile struct {
	EntryCount           int                   `json:"entry_count"`
	AverageDailyIntake   Facts                 `json:"average_daily_intake"`
	MacronutrientBalance MacroBalance          `json:"macronutrient_balance"`
	Micronutrients       []MicronutrientStatus `json:"micronutrients"`
	HealthRisks          []HealthRisk          `json:"health_risks"`
	Recommendations      []Recommendation      `json:"recommendations"`
}

// Micronutrient returns the status for name, if it was assessed.
func (p *Profile) Micronutrient(name string) (MicronutrientStatus, bool) {
	for _, m := range p.Micronutrients {
		if m.Name == name {
			return m, true
		}
	}
	return MicronutrientStatus{}, false
}
