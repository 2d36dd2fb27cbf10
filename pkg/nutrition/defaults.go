package nutrition

// DefaultConfig returns the built-in rule catalogs.
func DefaultConfig() Config {
	return Config{
		RiskRules: []RiskRule{
			{
				When:     Condition{Metric: MetricAvgSugar, Op: OpGreater, Threshold: 50},
				Type:     "Metabolic Imbalance",
				Severity: "High",
				Details:  "High sugar intake detected",
				RecommendedActions: []string{
					"Reduce added sugar consumption",
					"Choose whole foods over processed snacks",
				},
			},
			{
				When:     Condition{Metric: MetricFatPct, Op: OpGreater, Threshold: 35},
				Type:     "Cardiovascular Risk",
				Severity: "Moderate",
				Details:  "High fat intake detected",
				RecommendedActions: []string{
					"Choose healthier fat sources",
					"Increase physical activity",
				},
			},
		},
		RecommendationRules: []RecommendationRule{
			{
				When:           Condition{Metric: MetricAvgFiber, Op: OpLess, Threshold: 25},
				Category:       "Nutrition",
				Recommendation: "Increase fiber intake",
				Rationale:      "Current fiber intake is below recommended levels",
				Confidence:     0.8,
			},
			{
				When:           Condition{Micronutrient: "Vitamin D", Levels: []MicronutrientLevel{LevelLow, LevelDeficient}},
				Category:       "Supplementation",
				Recommendation: "Consider Vitamin D supplement",
				Rationale:      "Low Vitamin D levels detected",
				Confidence:     0.9,
			},
		},
		MicronutrientTargets: []MicronutrientTarget{
			{Name: "Vitamin A", Group: "vitamin", RecommendedValue: 900},
			{Name: "Vitamin C", Group: "vitamin", RecommendedValue: 90},
			{Name: "Vitamin D", Group: "vitamin", RecommendedValue: 50},
			{Name: "Vitamin B12", Group: "vitamin", RecommendedValue: 2.4},
			{Name: "Folate", Group: "vitamin", RecommendedValue: 400},
			{Name: "Calcium", Group: "mineral", RecommendedValue: 1000},
			{Name: "Iron", Group: "mineral", RecommendedValue: 18},
			{Name: "Magnesium", Group: "mineral", RecommendedValue: 400},
			{Name: "Zinc", Group: "mineral", RecommendedValue: 11},
			{Name: "Potassium", Group: "mineral", RecommendedValue: 3400},
		},
		GoalRules: []GoalRule{
			{
				Goal:       GoalWeightLoss,
				When:       Condition{Metric: MetricAvgCalories, Op: OpGreater, Threshold: 2000},
				Alignment:  AlignmentMisaligned,
				Adjustment: "Reduce calorie intake",
			},
			{
				Goal:       GoalMuscleGain,
				When:       Condition{Metric: MetricAvgProtein, Op: OpLess, Threshold: 150},
				Alignment:  AlignmentPartiallyAligned,
				Adjustment: "Increase protein intake",
			},
			{
				Goal:       GoalNutritionImprovement,
				When:       Condition{Metric: MetricFatPct, Op: OpGreater, Threshold: 35},
				Alignment:  AlignmentMisaligned,
				Adjustment: "Reduce fat intake",
			},
		},
		MinTrendEntries: 10,
		TopFoods:        10,
	}
}
