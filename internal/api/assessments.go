package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nutriscan/nutriscan/internal/store"
	"github.com/nutriscan/nutriscan/pkg/scoring"
)

// scoreRequest is the JSON body for POST /api/v1/score and
// POST /api/v1/subjects/{subjectID}/assessments.
type scoreRequest struct {
	Readings []scoring.IndicatorReading `json:"readings"`
	Metadata map[string]string          `json:"metadata,omitempty"`
}

type scoreResponse struct {
	*scoring.Assessment
	Recommendations []scoring.CategoryRecommendation `json:"recommendations"`
}

// handleScore scores readings without storing anything.
func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	engine := h.svc.Engine()
	a, err := engine.Assess(req.Readings)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recs := engine.Recommend(a.Categories)
	if recs == nil {
		recs = []scoring.CategoryRecommendation{}
	}
	writeJSON(w, http.StatusOK, scoreResponse{Assessment: a, Recommendations: recs})
}

func (h *Handler) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rec, err := h.svc.Assess(r.Context(), r.PathValue("subjectID"), req.Readings, req.Metadata)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	q, err := parseHistoryQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.svc.History(r.Context(), r.PathValue("subjectID"), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Latest(r.Context(), r.PathValue("subjectID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	traj, err := h.svc.Trajectory(r.Context(), r.PathValue("subjectID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, traj)
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Recommendations(r.Context(), r.PathValue("subjectID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// parseHistoryQuery reads start, end, page and limit. Times accept RFC 3339
// or a bare date.
func parseHistoryQuery(r *http.Request) (store.HistoryQuery, error) {
	var q store.HistoryQuery
	values := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{"start", &q.Start},
		{"end", &q.End},
	} {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		t, err := parseTime(v)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %q", p.name, v)
		}
		*p.dst = t
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &q.Page},
		{"limit", &q.Limit},
	} {
		v := values.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, fmt.Errorf("invalid %s: %q", p.name, v)
		}
		*p.dst = n
	}
	return q, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
