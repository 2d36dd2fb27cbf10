package scoring

import (
	"fmt"
	"time"
)

// Assessment is the complete output of scoring one set of readings.
type Assessment struct {
	Score      CompositeScore        `json:"score"`
	Categories RiskCategoryBreakdown `json:"categories"`
	Indicators []IndicatorEvaluation `json:"indicators"`
	Insights   []PredictiveInsight   `json:"insights"`
	Readings   []IndicatorReading    `json:"readings"`
	AssessedAt time.Time             `json:"assessed_at"`
}

// TrajectoryPoint is one historical assessment reduced to what trend fitting needs.
type TrajectoryPoint struct {
	AssessedAt time.Time             `json:"assessed_at"`
	Score      float64               `json:"score"`
	Level      RiskLevel             `json:"level"`
	Categories RiskCategoryBreakdown `json:"categories,omitempty"`
}

// Trajectory is the longitudinal view over a subject's assessments.
type Trajectory struct {
	History    []TrajectoryPoint                `json:"history"`
	Overall    TrendProjection                  `json:"overall"`
	Categories map[RiskCategory]TrendProjection `json:"categories"`
}

// Engine runs the assessment pipeline: reference ranges, composite score,
// category breakdown and predictive insights.
type Engine struct {
	classifier      Classifier
	scorer          *CompositeScorer
	projector       *TrendProjector
	ranges          map[IndicatorKind]Range
	conditions      []ConditionRule
	recommendations map[RiskCategory][]string
	now             func() time.Time
}

// NewEngine validates cfg and builds an engine from a private copy of its tables.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	classifier := NewClassifier(cfg.Breakpoints)

	ranges := make(map[IndicatorKind]Range, len(cfg.ReferenceRanges))
	for k, v := range cfg.ReferenceRanges {
		ranges[k] = v
	}
	recs := make(map[RiskCategory][]string, len(cfg.CategoryRecommendations))
	for k, v := range cfg.CategoryRecommendations {
		recs[k] = append([]string(nil), v...)
	}
	conditions := make([]ConditionRule, len(cfg.Conditions))
	for i, rule := range cfg.Conditions {
		rule.RecommendedActions = append([]RecommendedAction(nil), rule.RecommendedActions...)
		conditions[i] = rule
	}

	return &Engine{
		classifier:      classifier,
		scorer:          NewCompositeScorer(NewEvaluator(cfg.Weights), classifier, cfg.CategoryProportions),
		projector:       NewTrendProjector(classifier),
		ranges:          ranges,
		conditions:      conditions,
		recommendations: recs,
		now:             time.Now,
	}, nil
}

// NewDefaultEngine returns an engine over DefaultConfig.
func NewDefaultEngine() *Engine {
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		panic(fmt.Sprintf("default scoring config is invalid: %v", err))
	}
	return e
}

// WithClock returns a copy of the engine that stamps assessments using now.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	cp := *e
	cp.now = now
	return &cp
}

// Classifier returns the classifier shared by every stage.
func (e *Engine) Classifier() Classifier { return e.classifier }

// Scorer returns the composite scorer.
func (e *Engine) Scorer() *CompositeScorer { return e.scorer }

// Projector returns the trend projector.
func (e *Engine) Projector() *TrendProjector { return e.projector }

// WithReferenceRanges returns copies of readings where any missing reference
// range is filled from the configured defaults. Supplied ranges are kept.
func (e *Engine) WithReferenceRanges(readings []IndicatorReading) []IndicatorReading {
	out := make([]IndicatorReading, len(readings))
	for i, r := range readings {
		if r.ReferenceRange == nil {
			if rng, ok := e.ranges[r.Kind]; ok {
				rng := rng
				r.ReferenceRange = &rng
			}
		}
		out[i] = r
	}
	return out
}

// Assess scores readings and derives the breakdown and insights.
func (e *Engine) Assess(readings []IndicatorReading) (*Assessment, error) {
	resolved := e.WithReferenceRanges(readings)
	evals, score, err := e.scorer.Evaluate(resolved)
	if err != nil {
		return nil, err
	}
	return &Assessment{
		Score:      score,
		Categories: e.scorer.CategoryBreakdown(score.Value),
		Indicators: evals,
		Insights:   EvaluateInsights(score.Value, e.conditions),
		Readings:   resolved,
		AssessedAt: e.now().UTC(),
	}, nil
}

// Trajectory fits the overall and per-category trends over points ordered oldest first.
func (e *Engine) Trajectory(points []TrajectoryPoint) (*Trajectory, error) {
	scores := make([]float64, len(points))
	breakdowns := make([]RiskCategoryBreakdown, len(points))
	for i, p := range points {
		scores[i] = p.Score
		breakdowns[i] = p.Categories
	}

	overall, err := e.projector.Project(scores)
	if err != nil {
		return nil, err
	}
	categories, err := e.projector.ProjectCategories(breakdowns)
	if err != nil {
		return nil, err
	}
	return &Trajectory{
		History:    append([]TrajectoryPoint(nil), points...),
		Overall:    overall,
		Categories: categories,
	}, nil
}

// Recommend maps each category of a breakdown to its configured improvement advice.
// Categories without advice are skipped.
func (e *Engine) Recommend(breakdown RiskCategoryBreakdown) []CategoryRecommendation {
	var out []CategoryRecommendation
	for _, cs := range breakdown {
		recs, ok := e.recommendations[cs.Category]
		if !ok {
			continue
		}
		out = append(out, CategoryRecommendation{
			Category:        cs.Category,
			Level:           cs.Level,
			Recommendations: append([]string(nil), recs...),
		})
	}
	return out
}
