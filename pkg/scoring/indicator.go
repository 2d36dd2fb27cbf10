package scoring

import (
	"fmt"
	"sort"
)

// Raw risk values assigned by the evaluator before weighting.
const (
	RiskAboveRange  = 80.0
	RiskBelowRange  = 60.0
	RiskBPStage2    = 80.0
	RiskBPElevated  = 50.0
	bpStage2Sys     = 140.0
	bpStage2Dia     = 90.0
	bpElevatedSys   = 130.0
	bpElevatedDia   = 85.0
	maxTotalWeights = 1.0
)

// Weights maps indicator kinds to their share of the composite score.
// Kinds absent from the table weigh 0.
type Weights map[IndicatorKind]float64

// Validate checks each weight lies in [0,1], kinds are known and the total does not exceed 1.
func (w Weights) Validate() error {
	var total float64
	kinds := make([]string, 0, len(w))
	for k := range w {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		kind := IndicatorKind(k)
		if !kind.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownIndicatorKind, k)
		}
		v := w[kind]
		if v < 0 || v > 1 {
			return fmt.Errorf("weight for %s must be within [0,1], got %g", k, v)
		}
		total += v
	}
	// Small tolerance for decimal weights like 0.15+0.15+0.2.
	if total > maxTotalWeights+1e-9 {
		return fmt.Errorf("weights sum to %g, must not exceed %g", total, maxTotalWeights)
	}
	return nil
}

func (w Weights) clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Evaluator maps one reading to a weighted risk contribution and a status.
type Evaluator struct {
	weights Weights
}

// NewEvaluator copies the weight table into a new evaluator.
func NewEvaluator(weights Weights) *Evaluator {
	return &Evaluator{weights: weights.clone()}
}

// Weight returns the configured weight for kind, or 0.
func (e *Evaluator) Weight(kind IndicatorKind) float64 {
	return e.weights[kind]
}

// Evaluate scores a single reading. Kinds without a weight contribute 0.
func (e *Evaluator) Evaluate(r IndicatorReading) (IndicatorEvaluation, error) {
	if err := checkShape(r); err != nil {
		return IndicatorEvaluation{}, err
	}

	var raw float64
	var status IndicatorStatus
	if r.Kind == KindBloodPressure {
		raw, status = evaluateBloodPressure(r.Value)
	} else {
		raw, status = evaluateAgainstRange(r.Value.Float(), r.ReferenceRange)
	}

	w := e.weights[r.Kind]
	return IndicatorEvaluation{
		Kind:             r.Kind,
		Value:            r.Value,
		RawRisk:          raw,
		Weight:           w,
		RiskContribution: raw * w,
		Status:           status,
	}, nil
}

// Reference ranges are shape-checked for blood pressure but never consulted.
func evaluateBloodPressure(v Value) (float64, IndicatorStatus) {
	sys, dia := v.Components()
	switch {
	case sys > bpStage2Sys || dia > bpStage2Dia:
		return RiskBPStage2, StatusAbnormal
	case sys > bpElevatedSys || dia > bpElevatedDia:
		return RiskBPElevated, StatusBorderline
	default:
		return 0, StatusNormal
	}
}

func evaluateAgainstRange(v float64, rng *Range) (float64, IndicatorStatus) {
	if rng == nil {
		return 0, StatusNormal
	}
	switch {
	case v > rng.Max.Float():
		return RiskAboveRange, StatusAbnormal
	case v < rng.Min.Float():
		return RiskBelowRange, StatusBorderline
	default:
		return 0, StatusNormal
	}
}

func checkShape(r IndicatorReading) error {
	want := r.Kind.Paired()
	if r.Value.IsPair() != want {
		return fmt.Errorf("%w: %s value %s must be %s", ErrInvalidIndicatorShape, r.Kind, r.Value, shapeName(want))
	}
	if r.ReferenceRange != nil {
		if r.ReferenceRange.Min.IsPair() != want || r.ReferenceRange.Max.IsPair() != want {
			return fmt.Errorf("%w: %s reference range must be %s", ErrInvalidIndicatorShape, r.Kind, shapeName(want))
		}
	}
	return nil
}

func shapeName(pair bool) string {
	if pair {
		return "a pair"
	}
	return "a scalar"
}
