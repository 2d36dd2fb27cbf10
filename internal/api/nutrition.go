package api

import (
	"net/http"
	"strconv"

	"github.com/nutriscan/nutriscan/pkg/nutrition"
)

type logNutritionRequest struct {
	Entries []nutrition.Entry `json:"entries"`
}

type goalsRequest struct {
	Goals []nutrition.GoalType `json:"goals"`
}

func (h *Handler) handleLogNutrition(w http.ResponseWriter, r *http.Request) {
	var req logNutritionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	n, err := h.svc.LogNutrition(r.Context(), r.PathValue("subjectID"), req.Entries)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"logged": n})
}

func (h *Handler) handleSetGoals(w http.ResponseWriter, r *http.Request) {
	var req goalsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.SetGoals(r.Context(), r.PathValue("subjectID"), req.Goals); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) handleNutritionInsights(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	ins, err := h.svc.NutritionInsights(r.Context(), r.PathValue("subjectID"), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (h *Handler) handleNutritionReport(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDays(w, r)
	if !ok {
		return
	}
	report, err := h.svc.NutritionReport(r.Context(), r.PathValue("subjectID"), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// parseDays reads the optional days window; zero selects the service default.
func parseDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return 0, true
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 1 {
		writeError(w, http.StatusBadRequest, "invalid days: "+strconv.Quote(v))
		return 0, false
	}
	return days, true
}
