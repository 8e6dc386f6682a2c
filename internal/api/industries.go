package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maturitylab/benchmark/internal/aggregate"
	"github.com/maturitylab/benchmark/internal/config"
	"github.com/maturitylab/benchmark/internal/industry"
	"github.com/maturitylab/benchmark/internal/scoring"
	"github.com/maturitylab/benchmark/internal/store"
)

type IndustriesHandler struct {
	store      store.Store
	cfg        *config.Config
	taxonomies map[string]*industry.Taxonomy
}

func NewIndustriesHandler(s store.Store, cfg *config.Config) *IndustriesHandler {
	taxonomies := make(map[string]*industry.Taxonomy, len(cfg.Tenants))
	for key, tc := range cfg.Tenants {
		// Validated at config load.
		tax, _ := tc.Taxonomy()
		taxonomies[key] = tax
	}
	return &IndustriesHandler{store: s, cfg: cfg, taxonomies: taxonomies}
}

// IndustryReport is the live benchmark for one industry, computed on
// request with ancestor fallback. DMBIndustry and BPIndustry name the
// scope that actually satisfied each threshold; they are null when the
// data was too thin to compute even at the root.
type IndustryReport struct {
	Industry     string              `json:"industry"`
	IndustryName string              `json:"industry_name"`
	DMBIndustry  *string             `json:"dmb_industry"`
	BPIndustry   *string             `json:"dmb_bp_industry"`
	DMB          *float64            `json:"dmb"`
	DMBD         scoring.ScoreVector `json:"dmb_d"`
	DMBBP        *float64            `json:"dmb_bp"`
	DMBDBP       scoring.ScoreVector `json:"dmb_d_bp"`
}

// Live computes the group benchmark and best practice for an industry
// from the latest survey results, widening to ancestor scopes until the
// tenant thresholds are met.
func (h *IndustriesHandler) Live(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	tc := h.cfg.Tenants[tenant]
	tax := h.taxonomies[tenant]

	code := chi.URLParam(r, "code")
	if !tax.Contains(code) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown industry"})
		return
	}

	all, err := h.store.LatestResults(r.Context(), tenant)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	var results []store.LatestResult
	for _, lr := range all {
		if tax.Contains(lr.Industry) {
			results = append(results, lr)
		}
	}

	report := IndustryReport{Industry: code, IndustryName: tax.Name(code)}

	benchScope, benchIndustry := aggregate.SurveysByIndustry(results, tax, code, tc.MinItemsIndustry)
	if len(benchScope) >= tc.MinItemsIndustry {
		overall, dims := aggregate.GroupBenchmark(vectorsOf(benchScope), tc.DimensionKeys(), overallsOf(tc, benchScope))
		report.DMBIndustry = &benchIndustry
		report.DMB = &overall
		report.DMBD = dims
	}

	bpPool := make([]store.LatestResult, 0, len(results))
	for _, lr := range results {
		if !lr.ExcludedFromBestPractice {
			bpPool = append(bpPool, lr)
		}
	}
	bpScope, bpIndustry := aggregate.SurveysByIndustry(bpPool, tax, code, tc.MinItemsBestPractice)
	if len(bpScope) >= tc.MinItemsBestPractice {
		overall, dims := aggregate.BestPractice(vectorsOf(bpScope), tc.DimensionKeys(), overallsOf(tc, bpScope))
		report.BPIndustry = &bpIndustry
		report.DMBBP = &overall
		report.DMBDBP = dims
	}

	writeJSON(w, http.StatusOK, report)
}

// Stored returns the persisted roll-up row for an industry.
func (h *IndustriesHandler) Stored(w http.ResponseWriter, r *http.Request) {
	tenant := tenantFrom(r)
	code := chi.URLParam(r, "code")

	b, err := h.store.GetIndustryBenchmark(r.Context(), tenant, code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if b == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "benchmark not found"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func vectorsOf(results []store.LatestResult) []scoring.ScoreVector {
	out := make([]scoring.ScoreVector, 0, len(results))
	for _, lr := range results {
		out = append(out, lr.DMBD)
	}
	return out
}

func overallsOf(tc *config.TenantConfig, results []store.LatestResult) []float64 {
	if !tc.OverallFromValues {
		return nil
	}
	out := make([]float64, 0, len(results))
	for _, lr := range results {
		if lr.DMB != nil {
			out = append(out, *lr.DMB)
		}
	}
	return out
}
