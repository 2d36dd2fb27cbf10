package scoring

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Value is either a scalar number or an ordered pair of numbers.
// The zero Value is the scalar 0.
type Value struct {
	pair   bool
	first  float64
	second float64
}

// Scalar returns a single-number value.
func Scalar(v float64) Value { return Value{first: v} }

// Pair returns an ordered two-number value such as [systolic, diastolic].
func Pair(first, second float64) Value { return Value{pair: true, first: first, second: second} }

// IsPair reports whether v holds two numbers.
func (v Value) IsPair() bool { return v.pair }

// Float returns the scalar number. For a pair it returns the first component.
func (v Value) Float() float64 { return v.first }

// Components returns both numbers of a pair. For a scalar the second is 0.
func (v Value) Components() (float64, float64) { return v.first, v.second }

func (v Value) String() string {
	if v.pair {
		return fmt.Sprintf("%g/%g", v.first, v.second)
	}
	return fmt.Sprintf("%g", v.first)
}

// MarshalJSON encodes a scalar as a number and a pair as a two-element array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.pair {
		return json.Marshal([2]float64{v.first, v.second})
	}
	return json.Marshal(v.first)
}

// UnmarshalJSON accepts a number or a two-element numeric array.
func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Scalar(f)
		return nil
	}
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("value must be a number or a [a, b] pair: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("pair value must have 2 elements, got %d", len(arr))
	}
	*v = Pair(arr[0], arr[1])
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.pair {
		return []float64{v.first, v.second}, nil
	}
	return v.first, nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("line %d: value must be a number: %w", node.Line, err)
		}
		*v = Scalar(f)
		return nil
	case yaml.SequenceNode:
		var arr []float64
		if err := node.Decode(&arr); err != nil {
			return fmt.Errorf("line %d: pair value must be numeric: %w", node.Line, err)
		}
		if len(arr) != 2 {
			return fmt.Errorf("line %d: pair value must have 2 elements, got %d", node.Line, len(arr))
		}
		*v = Pair(arr[0], arr[1])
		return nil
	default:
		return fmt.Errorf("line %d: value must be a number or a [a, b] pair", node.Line)
	}
}
