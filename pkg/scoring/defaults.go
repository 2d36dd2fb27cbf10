package scoring

// DefaultConfig returns the standard scoring tables.
func DefaultConfig() Config {
	return Config{
		Weights:                 DefaultWeights(),
		Breakpoints:             DefaultBreakpoints(),
		CategoryProportions:     DefaultCategoryProportions(),
		ReferenceRanges:         DefaultReferenceRanges(),
		Conditions:              DefaultConditionRules(),
		CategoryRecommendations: DefaultCategoryRecommendations(),
	}
}

// DefaultWeights returns the indicator weight table. NutrientDeficiency carries no weight.
func DefaultWeights() Weights {
	return Weights{
		KindBloodPressure:      0.15,
		KindCholesterol:        0.15,
		KindBloodSugar:         0.2,
		KindBMI:                0.1,
		KindWaistCircumference: 0.1,
		KindBodyFatPercentage:  0.1,
		KindRestingHeartRate:   0.1,
		KindSleepQuality:       0.05,
		KindStressLevel:        0.05,
	}
}

// DefaultCategoryProportions covers five of the seven categories.
// Genetic and Chronic Disease have no proportion.
func DefaultCategoryProportions() []CategoryProportion {
	return []CategoryProportion{
		{Category: CategoryCardiovascular, Proportion: 0.3},
		{Category: CategoryMetabolic, Proportion: 0.25},
		{Category: CategoryNutritional, Proportion: 0.2},
		{Category: CategoryLifestyle, Proportion: 0.15},
		{Category: CategoryMentalHealth, Proportion: 0.1},
	}
}

// DefaultReferenceRanges are applied to readings submitted without a range.
func DefaultReferenceRanges() map[IndicatorKind]Range {
	return map[IndicatorKind]Range{
		KindBloodPressure:      {Min: Pair(90, 60), Max: Pair(140, 90)},
		KindCholesterol:        {Min: Scalar(0), Max: Scalar(200)},
		KindBloodSugar:         {Min: Scalar(70), Max: Scalar(140)},
		KindBMI:                {Min: Scalar(18.5), Max: Scalar(25)},
		KindWaistCircumference: {Min: Scalar(0), Max: Scalar(40)},
		KindBodyFatPercentage:  {Min: Scalar(10), Max: Scalar(30)},
		KindRestingHeartRate:   {Min: Scalar(60), Max: Scalar(100)},
	}
}

// DefaultConditionRules is the built-in predictive condition catalog.
func DefaultConditionRules() []ConditionRule {
	return []ConditionRule{
		{
			Condition:  "Type 2 Diabetes",
			Thresholds: Thresholds{Low: 20, Moderate: 50, High: 75},
			RecommendedActions: []RecommendedAction{
				{Type: "Lifestyle", Description: "Adopt low-glycemic diet", Priority: 1},
				{Type: "Exercise", Description: "Increase physical activity", Priority: 2},
			},
		},
		{
			Condition:  "Cardiovascular Disease",
			Thresholds: Thresholds{Low: 25, Moderate: 55, High: 80},
			RecommendedActions: []RecommendedAction{
				{Type: "Diet", Description: "Reduce saturated fat intake", Priority: 1},
				{Type: "Screening", Description: "Regular cardiovascular check-ups", Priority: 2},
			},
		},
	}
}

// DefaultCategoryRecommendations maps each weighted category to improvement advice.
func DefaultCategoryRecommendations() map[RiskCategory][]string {
	return map[RiskCategory][]string{
		CategoryCardiovascular: {
			"Increase cardiovascular exercise",
			"Reduce sodium intake",
			"Practice stress management techniques",
		},
		CategoryMetabolic: {
			"Optimize diet for blood sugar control",
			"Increase physical activity",
			"Consider consulting an endocrinologist",
		},
		CategoryNutritional: {
			"Consult a nutritionist",
			"Take comprehensive nutritional supplements",
			"Improve dietary diversity",
		},
		CategoryLifestyle: {
			"Improve sleep hygiene",
			"Reduce alcohol consumption",
			"Implement regular exercise routine",
		},
		CategoryMentalHealth: {
			"Practice mindfulness meditation",
			"Consider therapy or counseling",
			"Develop stress management strategies",
		},
	}
}
