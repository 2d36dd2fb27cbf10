package surface

import (
	"encoding/json"
	"io"

	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// JSONRenderer marshals results to indented JSON.
type JSONRenderer struct{}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *JSONRenderer) RenderAssessment(w io.Writer, rep *AssessmentReport) error {
	return encode(w, rep)
}

func (r *JSONRenderer) RenderTrajectory(w io.Writer, t *scoring.Trajectory) error {
	return encode(w, t)
}

func (r *JSONRenderer) RenderNutrition(w io.Writer, rep *NutritionReport) error {
	return encode(w, rep)
}

func (r *JSONRenderer) RenderEngagement(w io.Writer, rep *EngagementReport) error {
	return encode(w, rep)
}
