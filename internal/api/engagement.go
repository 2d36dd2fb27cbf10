package api

import (
	"net/http"

	"github.com/nutriscan/nutriscan/pkg/engagement"
)

// engagementRequest carries either pre-aggregated patterns or a raw
// interaction log to tally.
type engagementRequest struct {
	Patterns     []engagement.Pattern  `json:"patterns,omitempty"`
	Interactions []engagement.Category `json:"interactions,omitempty"`
}

type engagementResponse struct {
	EngagementScore int                        `json:"engagement_score"`
	Patterns        []engagement.Pattern       `json:"patterns"`
	Recommendations engagement.Recommendations `json:"recommendations"`
}

func (h *Handler) handleEngagementScore(w http.ResponseWriter, r *http.Request) {
	var req engagementRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	patterns := req.Patterns
	if len(patterns) == 0 {
		patterns = engagement.Tally(req.Interactions)
	}
	for _, p := range patterns {
		if p.TotalInteractions < 0 {
			writeError(w, http.StatusBadRequest, "total_interactions must not be negative")
			return
		}
	}

	writeJSON(w, http.StatusOK, engagementResponse{
		EngagementScore: h.engagement.Score(patterns),
		Patterns:        patterns,
		Recommendations: h.engagement.Recommend(patterns),
	})
}
