package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maturitylab/benchmark/internal/config"
	"github.com/maturitylab/benchmark/internal/industry"
	"github.com/maturitylab/benchmark/internal/store"
)

type SurveysHandler struct {
	store      store.Store
	cfg        *config.Config
	taxonomies map[string]*industry.Taxonomy
}

func NewSurveysHandler(s store.Store, cfg *config.Config) *SurveysHandler {
	taxonomies := make(map[string]*industry.Taxonomy, len(cfg.Tenants))
	for key, tc := range cfg.Tenants {
		tax, _ := tc.Taxonomy()
		taxonomies[key] = tax
	}
	return &SurveysHandler{store: s, cfg: cfg, taxonomies: taxonomies}
}

type CreateSurveyRequest struct {
	SID            string `json:"sid"`
	CompanyName    string `json:"company_name"`
	Industry       string `json:"industry"`
	Country        string `json:"country"`
	EngagementLead string `json:"engagement_lead"`
}

// Create registers a survey engagement so that downloaded results can be
// linked back to the company and counted toward its industry.
func (h *SurveysHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SID == "" || req.CompanyName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sid and company_name required"})
		return
	}

	tenant := tenantFrom(r)
	tax := h.taxonomies[tenant]
	if req.Industry != "" && !tax.Contains(req.Industry) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown industry"})
		return
	}

	survey := &store.Survey{
		SID:            req.SID,
		Tenant:         tenant,
		CompanyName:    req.CompanyName,
		Industry:       req.Industry,
		Country:        req.Country,
		EngagementLead: req.EngagementLead,
	}
	if err := h.store.CreateSurvey(r.Context(), survey); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, survey)
}

func (h *SurveysHandler) Get(w http.ResponseWriter, r *http.Request) {
	survey, err := h.store.GetSurvey(r.Context(), chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if survey == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "survey not found"})
		return
	}
	writeJSON(w, http.StatusOK, survey)
}
