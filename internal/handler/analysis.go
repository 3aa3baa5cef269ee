package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pkordes/itinerary-core/backend/internal/budget"
)

// getTimeline handles GET /trips/{tripID}/timeline.
func (s *Server) getTimeline(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	view, err := s.svc.Analysis.Timeline(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// getBudget handles GET /trips/{tripID}/budget.
// Preferences come from ?daily_budget=&meal_budget=&luxury_level=&private_driver=;
// omitted values use the defaults.
func (s *Server) getBudget(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	prefs, err := s.preferencesFromQuery(r)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	res, err := s.svc.Analysis.Budget(r.Context(), tripID, prefs)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// deleteCache handles DELETE /trips/{tripID}/cache.
func (s *Server) deleteCache(w http.ResponseWriter, r *http.Request) {
	tripID, err := pathUUID(r, "tripID")
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	if err := s.svc.Analysis.Invalidate(r.Context(), tripID); err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) preferencesFromQuery(r *http.Request) (budget.Preferences, error) {
	q := r.URL.Query()
	prefs := budget.Preferences{
		DailyBudget: dailyBudgetParam(q.Get("daily_budget")),
		MealBudget:  strings.TrimSpace(q.Get("meal_budget")),
		LuxuryLevel: strings.ToLower(strings.TrimSpace(q.Get("luxury_level"))),
	}
	if raw := q.Get("private_driver"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return budget.Preferences{}, badRequest("private_driver must be a boolean")
		}
		prefs.HasPrivateDriver = v
	}
	if err := s.validate.Struct(prefs); err != nil {
		return budget.Preferences{}, err
	}
	return prefs, nil
}

// dailyBudgetParam restores "200+": an unescaped '+' in a query string
// decodes to a space.
func dailyBudgetParam(v string) string {
	v = strings.TrimSpace(v)
	if v == "200" {
		return "200+"
	}
	return v
}
