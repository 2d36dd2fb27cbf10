package engagement_test

import (
	"reflect"
	"testing"

	"github.com/nutriscan/nutriscan/pkg/engagement"
)

func TestScore(t *testing.T) {
	s := engagement.NewDefaultScorer()

	tests := []struct {
		name     string
		patterns []engagement.Pattern
		want     int
	}{
		{"no interactions", nil, 0},
		{"zero counts", []engagement.Pattern{{Category: engagement.CategoryNutrition}}, 0},
		{"authentication only", []engagement.Pattern{{Category: engagement.CategoryAuthentication, TotalInteractions: 4}}, 50},
		{"mixed", []engagement.Pattern{
			{Category: engagement.CategoryNutrition, TotalInteractions: 5},
			{Category: engagement.CategoryAuthentication, TotalInteractions: 15},
		}, 70},
		{"capped", []engagement.Pattern{
			{Category: engagement.CategoryHealthGoals, TotalInteractions: 10},
			{Category: engagement.CategoryProfile, TotalInteractions: 2},
		}, 100},
		{"unknown category uses default weight", []engagement.Pattern{
			{Category: "Marketplace", TotalInteractions: 1},
			{Category: engagement.CategoryAuthentication, TotalInteractions: 1},
		}, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Score(tt.patterns); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	s := engagement.NewDefaultScorer()
	rec := s.Recommend([]engagement.Pattern{
		{Category: engagement.CategoryNutrition, TotalInteractions: 3},
		{Category: engagement.CategoryFitness, TotalInteractions: 25},
		{Category: engagement.CategoryRewards, TotalInteractions: 9},
	})

	wantAreas := []engagement.Category{engagement.CategoryNutrition, engagement.CategoryRewards}
	if !reflect.DeepEqual(rec.LowEngagementAreas, wantAreas) {
		t.Errorf("areas = %v, want %v", rec.LowEngagementAreas, wantAreas)
	}
	if got := rec.SuggestedFeatures[engagement.CategoryNutrition]; len(got) != 3 || got[0] != "Meal Plan Generator" {
		t.Errorf("unexpected nutrition features: %v", got)
	}
	if got, ok := rec.SuggestedFeatures[engagement.CategoryRewards]; !ok || len(got) != 0 {
		t.Errorf("expected empty feature list for rewards, got %v (present=%v)", got, ok)
	}
	if len(rec.MotivationalTips[engagement.CategoryNutrition]) != 2 {
		t.Errorf("expected 2 nutrition tips, got %v", rec.MotivationalTips[engagement.CategoryNutrition])
	}
	if _, ok := rec.SuggestedFeatures[engagement.CategoryFitness]; ok {
		t.Error("fitness is above the threshold and should not be suggested")
	}
}

func TestTally(t *testing.T) {
	got := engagement.Tally([]engagement.Category{
		engagement.CategoryProfile,
		engagement.CategoryCommunity,
		engagement.CategoryProfile,
	})
	want := []engagement.Pattern{
		{Category: engagement.CategoryCommunity, TotalInteractions: 1},
		{Category: engagement.CategoryProfile, TotalInteractions: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}
}

func TestNewScorer_Validates(t *testing.T) {
	cfg := engagement.DefaultConfig()
	cfg.LowEngagementThreshold = 0
	if _, err := engagement.NewScorer(cfg); err == nil {
		t.Error("expected error for zero threshold")
	}
	cfg = engagement.DefaultConfig()
	cfg.CategoryWeights[engagement.CategoryFitness] = -1
	if _, err := engagement.NewScorer(cfg); err == nil {
		t.Error("expected error for negative weight")
	}
}
