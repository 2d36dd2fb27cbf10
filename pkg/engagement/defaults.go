package engagement

// DefaultConfig returns the built-in weights and catalogs.
func DefaultConfig() Config {
	return Config{
		CategoryWeights: map[Category]float64{
			CategoryHealthGoals:     1.5,
			CategoryNutrition:       1.3,
			CategoryFitness:         1.3,
			CategoryCommunity:       1.2,
			CategoryRecommendations: 1.1,
			CategoryProfile:         1.0,
			CategoryRewards:         1.0,
			CategoryAuthentication:  0.5,
		},
		DefaultWeight:          1.0,
		LowEngagementThreshold: 10,
		SuggestedFeatures: map[Category][]string{
			CategoryHealthGoals: {"Goal Tracking Wizard", "Progress Visualization", "Milestone Rewards"},
			CategoryNutrition:   {"Meal Plan Generator", "Nutritional Insights", "Recipe Recommendations"},
			CategoryFitness:     {"Workout Challenges", "Personal Training Sessions", "Fitness Tracking Integration"},
			CategoryCommunity:   {"Social Challenges", "Group Discussions", "Peer Support Groups"},
		},
		MotivationalTips: map[Category][]string{
			CategoryHealthGoals: {"Small steps lead to big transformations!", "Every goal starts with a single decision."},
			CategoryNutrition:   {"Fuel your body with purpose.", "Nutrition is the foundation of wellness."},
			CategoryFitness:     {"Your body achieves what your mind believes.", "Consistency beats intensity every time."},
			CategoryCommunity:   {"Together, we are stronger.", "Shared goals create powerful connections."},
		},
	}
}
