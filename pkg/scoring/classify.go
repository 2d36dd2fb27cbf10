package scoring

import (
	"fmt"
	"math"
)

// Breakpoints are the inclusive lower bounds of the Moderate, High and Critical bands.
type Breakpoints struct {
	Moderate float64 `json:"moderate" yaml:"moderate"`
	High     float64 `json:"high" yaml:"high"`
	Critical float64 `json:"critical" yaml:"critical"`
}

// DefaultBreakpoints returns the 25/50/75 band table.
func DefaultBreakpoints() Breakpoints {
	return Breakpoints{Moderate: 25, High: 50, Critical: 75}
}

// Validate checks that the bands are ordered and not all zero, which the
// zero Classifier reserves for the defaults.
func (b Breakpoints) Validate() error {
	if b == (Breakpoints{}) {
		return fmt.Errorf("breakpoints must not all be zero")
	}
	if b.Moderate > b.High || b.High > b.Critical {
		return fmt.Errorf("breakpoints must be ordered moderate <= high <= critical, got %g/%g/%g",
			b.Moderate, b.High, b.Critical)
	}
	return nil
}

// Classifier maps scores to risk levels. The zero Classifier uses DefaultBreakpoints.
// One Classifier is shared by composite, category and trend classification.
type Classifier struct {
	bp Breakpoints
}

// NewClassifier returns a classifier over the given breakpoints.
func NewClassifier(bp Breakpoints) Classifier {
	return Classifier{bp: bp}
}

// Breakpoints returns the band table in use.
func (c Classifier) Breakpoints() Breakpoints {
	if c.bp == (Breakpoints{}) {
		return DefaultBreakpoints()
	}
	return c.bp
}

// Classify returns the highest band whose lower bound the score reaches.
// It does not clamp; callers pass bounded scores.
func (c Classifier) Classify(score float64) RiskLevel {
	bp := c.Breakpoints()
	switch {
	case score >= bp.Critical:
		return RiskCritical
	case score >= bp.High:
		return RiskHigh
	case score >= bp.Moderate:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Classify uses the default breakpoints.
func Classify(score float64) RiskLevel {
	return Classifier{}.Classify(score)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RoundHalfUp rounds with .5 going up. Scores and percentages are never negative.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
