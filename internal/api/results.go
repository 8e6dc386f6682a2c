package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maturitylab/benchmark/internal/store"
)

type ResultsHandler struct {
	store store.Store
}

func NewResultsHandler(s store.Store) *ResultsHandler {
	return &ResultsHandler{store: s}
}

// ResultReport is the respondent-facing view of one scored response.
type ResultReport struct {
	CompanyName  string              `json:"company_name"`
	Industry     string              `json:"industry"`
	Country      string              `json:"country"`
	SurveyResult *store.SurveyResult `json:"survey_result"`
}

// Get returns the report for a response id. A result without a registered
// survey has no company context to report against and is a 404, matching
// the report page contract.
func (h *ResultsHandler) Get(w http.ResponseWriter, r *http.Request) {
	responseID := chi.URLParam(r, "responseID")

	result, err := h.store.GetSurveyResult(r.Context(), responseID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if result == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "result not found"})
		return
	}

	survey, err := h.store.GetSurvey(r.Context(), result.SurveyID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if survey == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "survey not found"})
		return
	}

	writeJSON(w, http.StatusOK, ResultReport{
		CompanyName:  survey.CompanyName,
		Industry:     survey.Industry,
		Country:      survey.Country,
		SurveyResult: result,
	})
}
