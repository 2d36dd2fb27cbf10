package nutrition

import (
	"sort"
	"time"
)

// FoodStats counts how often a food was logged.
type FoodStats struct {
	FoodName      string  `json:"food_name"`
	Count         int     `json:"count"`
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
}

// MealTypeStats sums intake for one meal type.
type MealTypeStats struct {
	MealType    MealType `json:"meal_type"`
	Count       int      `json:"count"`
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	AvgCalories float64  `json:"avg_calories"`
	AvgProtein  float64  `json:"avg_protein"`
}

// WeekdayStats sums calories for one day of the week.
type WeekdayStats struct {
	Day         string  `json:"day"`
	Count       int     `json:"count"`
	Calories    float64 `json:"calories"`
	AvgCalories float64 `json:"avg_calories"`
}

// Breakdown is the detailed section of an intake report.
type Breakdown struct {
	TopFoods  []FoodStats     `json:"top_consumed_foods"`
	MealTypes []MealTypeStats `json:"meal_type_nutrition"`
	Weekdays  []WeekdayStats  `json:"weekday_nutrition_patterns"`
}

// Breakdown computes the report breakdown. Weekdays are taken in loc.
func (a *Aggregator) Breakdown(entries []Entry, loc *time.Location) Breakdown {
	return Breakdown{
		TopFoods:  TopFoods(entries, a.cfg.TopFoods),
		MealTypes: MealTypeBreakdown(entries),
		Weekdays:  WeekdayBreakdown(entries, loc),
	}
}

// TopFoods returns the limit most frequently logged foods, ties broken by name.
func TopFoods(entries []Entry, limit int) []FoodStats {
	byName := make(map[string]*FoodStats)
	for _, e := range entries {
		fs, ok := byName[e.FoodName]
		if !ok {
			fs = &FoodStats{FoodName: e.FoodName}
			byName[e.FoodName] = fs
		}
		fs.Count++
		fs.TotalCalories += e.Nutrients.Calories
		fs.TotalProtein += e.Nutrients.Protein
	}

	out := make([]FoodStats, 0, len(byName))
	for _, fs := range byName {
		out = append(out, *fs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].FoodName < out[j].FoodName
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// MealTypeBreakdown sums intake per meal type in Breakfast, Lunch, Dinner, Snack order.
// Entries without a meal type count as snacks.
func MealTypeBreakdown(entries []Entry) []MealTypeStats {
	stats := make([]MealTypeStats, len(MealTypes))
	index := make(map[MealType]int, len(MealTypes))
	for i, mt := range MealTypes {
		stats[i].MealType = mt
		index[mt] = i
	}
	for _, e := range entries {
		mt := e.MealType
		if mt == "" {
			mt = MealSnack
		}
		i, ok := index[mt]
		if !ok {
			continue
		}
		stats[i].Count++
		stats[i].Calories += e.Nutrients.Calories
		stats[i].Protein += e.Nutrients.Protein
	}
	for i := range stats {
		if stats[i].Count > 0 {
			stats[i].AvgCalories = stats[i].Calories / float64(stats[i].Count)
			stats[i].AvgProtein = stats[i].Protein / float64(stats[i].Count)
		}
	}
	return stats
}

var weekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// WeekdayBreakdown sums calories per weekday, Monday first.
func WeekdayBreakdown(entries []Entry, loc *time.Location) []WeekdayStats {
	if loc == nil {
		loc = time.UTC
	}
	stats := make([]WeekdayStats, len(weekdayOrder))
	index := make(map[time.Weekday]int, len(weekdayOrder))
	for i, d := range weekdayOrder {
		stats[i].Day = d.String()
		index[d] = i
	}
	for _, e := range entries {
		i := index[e.ConsumedAt.In(loc).Weekday()]
		stats[i].Count++
		stats[i].Calories += e.Nutrients.Calories
	}
	for i := range stats {
		if stats[i].Count > 0 {
			stats[i].AvgCalories = stats[i].Calories / float64(stats[i].Count)
		}
	}
	return stats
}
