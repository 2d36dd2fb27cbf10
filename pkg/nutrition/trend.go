package nutrition

import (
	"fmt"
	"sort"

	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// NutrientTrend is a straight-line fit over per-entry values against x = 0..n-1.
type NutrientTrend struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	NextValue float64 `json:"next_value"`
}

// Trends holds the fitted trend of each macronutrient.
type Trends struct {
	Calories      NutrientTrend `json:"calories"`
	Protein       NutrientTrend `json:"protein"`
	Carbohydrates NutrientTrend `json:"carbohydrates"`
	Fat           NutrientTrend `json:"fat"`
}

// Trends fits each macronutrient over entries ordered by consumption time.
// Fewer than MinTrendEntries entries is scoring.ErrInsufficientHistory.
func (a *Aggregator) Trends(entries []Entry) (*Trends, error) {
	if len(entries) < a.cfg.MinTrendEntries {
		return nil, fmt.Errorf("%w: need %d entries, got %d",
			scoring.ErrInsufficientHistory, a.cfg.MinTrendEntries, len(entries))
	}

	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ConsumedAt.Before(sorted[j].ConsumedAt)
	})

	series := func(pick func(Facts) float64) []float64 {
		out := make([]float64, len(sorted))
		for i, e := range sorted {
			out[i] = pick(e.Nutrients)
		}
		return out
	}

	var t Trends
	for _, fit := range []struct {
		dst  *NutrientTrend
		pick func(Facts) float64
	}{
		{&t.Calories, func(f Facts) float64 { return f.Calories }},
		{&t.Protein, func(f Facts) float64 { return f.Protein }},
		{&t.Carbohydrates, func(f Facts) float64 { return f.Carbohydrates }},
		{&t.Fat, func(f Facts) float64 { return f.Fat }},
	} {
		values := series(fit.pick)
		slope, intercept, err := scoring.FitLine(values, 0)
		if err != nil {
			return nil, err
		}
		*fit.dst = NutrientTrend{
			Slope:     slope,
			Intercept: intercept,
			NextValue: slope*float64(len(values)) + intercept,
		}
	}
	return &t, nil
}
