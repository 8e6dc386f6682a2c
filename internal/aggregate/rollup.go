package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/maturitylab/benchmark/internal/industry"
	"github.com/maturitylab/benchmark/internal/scoring"
	"github.com/maturitylab/benchmark/internal/store"
)

// Thresholds are the minimum survey counts required before an industry
// scope's benchmark or best-practice values are recomputed.
type Thresholds struct {
	Industry     int
	BestPractice int
}

// Rollup walks a tenant's industry hierarchy and refreshes the persisted
// IndustryBenchmark rows from the latest survey results.
type Rollup struct {
	store      store.Store
	taxonomy   *industry.Taxonomy
	dimensions []string
	thresholds Thresholds
	// overallFromValues selects the tenant variant where group overalls
	// aggregate whole-survey scores instead of per-dimension averages.
	overallFromValues bool
	logger            *slog.Logger
}

func NewRollup(s store.Store, tax *industry.Taxonomy, dimensions []string, thresholds Thresholds, overallFromValues bool, logger *slog.Logger) *Rollup {
	return &Rollup{
		store:             s,
		taxonomy:          tax,
		dimensions:        dimensions,
		thresholds:        thresholds,
		overallFromValues: overallFromValues,
		logger:            logger,
	}
}

// SurveysByIndustry returns the results for the smallest ancestor scope of
// code whose cumulative count meets threshold, together with the resolved
// scope code. The walk starts at the node itself and widens toward the
// root; if even the root falls short, the root's results are returned as a
// best effort.
func SurveysByIndustry(results []store.LatestResult, tax *industry.Taxonomy, code string, threshold int) ([]store.LatestResult, string) {
	cur := code
	if !tax.Contains(cur) {
		cur = industry.Root
	}
	for {
		scope := inScope(results, tax, cur)
		if len(scope) >= threshold || cur == industry.Root {
			return scope, cur
		}
		parent, ok := tax.Parent(cur)
		if !ok {
			return scope, cur
		}
		cur = parent
	}
}

// inScope keeps the results whose industry sits in the subtree rooted at
// scope.
func inScope(results []store.LatestResult, tax *industry.Taxonomy, scope string) []store.LatestResult {
	if scope == industry.Root {
		out := make([]store.LatestResult, len(results))
		copy(out, results)
		return out
	}
	var out []store.LatestResult
	for _, r := range results {
		for _, anc := range tax.Ancestors(r.Industry) {
			if anc == scope {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Run recomputes benchmarks for every industry touched by the tenant's
// surveys, from the leaves up to the root. A tenant with no qualifying
// surveys performs no writes. It returns the industry codes whose rows
// were written.
func (r *Rollup) Run(ctx context.Context, tenant string) ([]string, error) {
	all, err := r.store.LatestResults(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("collect latest results: %w", err)
	}

	var results []store.LatestResult
	for _, lr := range all {
		if !r.taxonomy.Contains(lr.Industry) {
			r.logger.Warn("survey has unknown industry, skipping",
				"tenant", tenant, "survey", lr.SurveyID, "industry", lr.Industry)
			continue
		}
		results = append(results, lr)
	}
	if len(results) == 0 {
		r.logger.Info("no qualifying surveys, benchmarks left untouched", "tenant", tenant)
		return nil, nil
	}

	affected := make(map[string]bool)
	for _, lr := range results {
		for _, anc := range r.taxonomy.Ancestors(lr.Industry) {
			affected[anc] = true
		}
	}
	codes := make([]string, 0, len(affected))
	for code := range affected {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	bpPool := make([]store.LatestResult, 0, len(results))
	for _, lr := range results {
		if !lr.ExcludedFromBestPractice {
			bpPool = append(bpPool, lr)
		}
	}

	var updated []string
	for _, code := range codes {
		if err := r.rollupIndustry(ctx, tenant, code, results, bpPool); err != nil {
			return updated, fmt.Errorf("roll up %s: %w", code, err)
		}
		updated = append(updated, code)
	}
	return updated, nil
}

// rollupIndustry resolves the contributing survey sets for one node and
// upserts its benchmark row. The benchmark and best-practice stages gate
// and fall back independently; a stage below threshold leaves its previous
// (or initial) values untouched.
func (r *Rollup) rollupIndustry(ctx context.Context, tenant, code string, results, bpPool []store.LatestResult) error {
	benchScope, benchIndustry := SurveysByIndustry(results, r.taxonomy, code, r.thresholds.Industry)
	bpScope, bpIndustry := SurveysByIndustry(bpPool, r.taxonomy, code, r.thresholds.BestPractice)

	b, err := r.store.GetIndustryBenchmark(ctx, tenant, code)
	if err != nil {
		return err
	}
	created := b == nil
	if created {
		b = &store.IndustryBenchmark{Tenant: tenant, Industry: code}
	}

	if len(benchScope) >= r.thresholds.Industry {
		overall, dims := GroupBenchmark(vectorsOf(benchScope), r.dimensions, r.overalls(benchScope))
		b.DMBValue = finite(overall)
		b.DMBDValue = dims
	} else {
		r.logger.Info("below benchmark threshold, keeping previous values",
			"tenant", tenant, "industry", code, "scope", benchIndustry, "surveys", len(benchScope))
	}

	if len(bpScope) >= r.thresholds.BestPractice {
		overall, dims := BestPractice(vectorsOf(bpScope), r.dimensions, r.overalls(bpScope))
		b.DMBBPValue = finite(overall)
		b.DMBDBPValue = dims
	} else {
		r.logger.Info("below best-practice threshold, keeping previous values",
			"tenant", tenant, "industry", code, "scope", bpIndustry, "surveys", len(bpScope))
	}

	if created {
		b.InitialDMB = copyFloat(b.DMBValue)
		b.InitialDMBD = b.DMBDValue.Clone()
		b.InitialBestPractice = copyFloat(b.DMBBPValue)
		b.InitialBestPracticeD = b.DMBDBPValue.Clone()
		b.SampleSize = len(benchScope)
	}

	return r.store.UpsertIndustryBenchmark(ctx, b)
}

// overalls extracts the whole-survey score sequence for tenants whose
// group overall is decoupled from dimension averaging; nil otherwise.
func (r *Rollup) overalls(results []store.LatestResult) []float64 {
	if !r.overallFromValues {
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

func vectorsOf(results []store.LatestResult) []scoring.ScoreVector {
	out := make([]scoring.ScoreVector, 0, len(results))
	for _, lr := range results {
		out = append(out, lr.DMBD)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
