// Package engagement scores how a subject uses the product across interaction
// categories and suggests features for categories they rarely touch.
package engagement

import (
	"fmt"
	"math"
	"sort"
)

// Category groups interactions by product area.
type Category string

const (
	CategoryAuthentication  Category = "Authentication"
	CategoryProfile         Category = "Profile"
	CategoryHealthGoals     Category = "HealthGoals"
	CategoryNutrition       Category = "Nutrition"
	CategoryFitness         Category = "Fitness"
	CategoryCommunity       Category = "Community"
	CategoryRewards         Category = "Rewards"
	CategoryRecommendations Category = "Recommendations"
)

// MaxScore caps the engagement score.
const MaxScore = 100

// Pattern is the interaction count of one category.
type Pattern struct {
	Category          Category `json:"category" yaml:"category"`
	TotalInteractions int      `json:"total_interactions" yaml:"total_interactions"`
	TotalDuration     float64  `json:"total_duration,omitempty" yaml:"total_duration,omitempty"`
}

// Config holds category weights and the suggestion catalogs.
type Config struct {
	CategoryWeights        map[Category]float64  `json:"category_weights" yaml:"category_weights"`
	DefaultWeight          float64               `json:"default_weight" yaml:"default_weight"`
	LowEngagementThreshold int                   `json:"low_engagement_threshold" yaml:"low_engagement_threshold"`
	SuggestedFeatures      map[Category][]string `json:"suggested_features" yaml:"suggested_features"`
	MotivationalTips       map[Category][]string `json:"motivational_tips" yaml:"motivational_tips"`
}

// Validate checks weights are non-negative and the threshold is positive.
func (c Config) Validate() error {
	for cat, w := range c.CategoryWeights {
		if w < 0 {
			return fmt.Errorf("weight for %s must not be negative, got %g", cat, w)
		}
	}
	if c.DefaultWeight < 0 {
		return fmt.Errorf("default weight must not be negative, got %g", c.DefaultWeight)
	}
	if c.LowEngagementThreshold < 1 {
		return fmt.Errorf("low engagement threshold must be positive, got %d", c.LowEngagementThreshold)
	}
	return nil
}

// Recommendations lists low-engagement categories with features and tips for each.
type Recommendations struct {
	LowEngagementAreas []Category            `json:"low_engagement_areas"`
	SuggestedFeatures  map[Category][]string `json:"suggested_features"`
	MotivationalTips   map[Category][]string `json:"motivational_tips"`
}

// Scorer computes engagement scores.
type Scorer struct {
	cfg Config
}

// NewScorer validates cfg and returns a scorer.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engagement config: %w", err)
	}
	weights := make(map[Category]float64, len(cfg.CategoryWeights))
	for k, v := range cfg.CategoryWeights {
		weights[k] = v
	}
	cfg.CategoryWeights = weights
	return &Scorer{cfg: cfg}, nil
}

// NewDefaultScorer returns a scorer over DefaultConfig.
func NewDefaultScorer() *Scorer {
	s, err := NewScorer(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default engagement config is invalid: %v", err))
	}
	return s
}

func (s *Scorer) weight(c Category) float64 {
	if w, ok := s.cfg.CategoryWeights[c]; ok {
		return w
	}
	return s.cfg.DefaultWeight
}

// Score is the interaction-weighted mean category weight scaled to 100 and
// capped at MaxScore. No interactions scores 0.
func (s *Scorer) Score(patterns []Pattern) int {
	var total, weighted float64
	for _, p := range patterns {
		n := float64(p.TotalInteractions)
		total += n
		weighted += n * s.weight(p.Category)
	}
	if total <= 0 {
		return 0
	}
	score := math.Floor(weighted/total*MaxScore + 0.5)
	return int(math.Min(score, MaxScore))
}

// Recommend lists categories under the low-engagement threshold in input order.
func (s *Scorer) Recommend(patterns []Pattern) Recommendations {
	rec := Recommendations{
		LowEngagementAreas: []Category{},
		SuggestedFeatures:  map[Category][]string{},
		MotivationalTips:   map[Category][]string{},
	}
	for _, p := range patterns {
		if p.TotalInteractions >= s.cfg.LowEngagementThreshold {
			continue
		}
		rec.LowEngagementAreas = append(rec.LowEngagementAreas, p.Category)
		rec.SuggestedFeatures[p.Category] = append([]string{}, s.cfg.SuggestedFeatures[p.Category]...)
		rec.MotivationalTips[p.Category] = append([]string{}, s.cfg.MotivationalTips[p.Category]...)
	}
	return rec
}

// Tally groups raw interaction categories into patterns sorted by category.
func Tally(categories []Category) []Pattern {
	counts := make(map[Category]int)
	for _, c := range categories {
		counts[c]++
	}
	out := make([]Pattern, 0, len(counts))
	for c, n := range counts {
		out = append(out, Pattern{Category: c, TotalInteractions: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
