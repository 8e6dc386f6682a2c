package aggregate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/maturitylab/benchmark/internal/industry"
	"github.com/maturitylab/benchmark/internal/scoring"
	"github.com/maturitylab/benchmark/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func float64Ptr(v float64) *float64 { return &v }

// testTaxonomy mirrors a typical tenant hierarchy: two sectors, each with
// an "other" leaf.
func testTaxonomy(t *testing.T) *industry.Taxonomy {
	t.Helper()
	tax, err := industry.New([]industry.Node{
		{Code: "ic", Name: "Information & Communication", Children: []industry.Node{
			{Code: "ic-o", Name: "IC - Other"},
		}},
		{Code: "edu", Name: "Education", Children: []industry.Node{
			{Code: "edu-o", Name: "Education - Other"},
		}},
	})
	if err != nil {
		t.Fatalf("build taxonomy: %v", err)
	}
	return tax
}

// mockStore implements store.Store in memory for roll-up tests.
type mockStore struct {
	latest     []store.LatestResult
	benchmarks map[string]*store.IndustryBenchmark
	upserted   []string
}

func newMockStore(latest []store.LatestResult) *mockStore {
	return &mockStore{latest: latest, benchmarks: make(map[string]*store.IndustryBenchmark)}
}

func (m *mockStore) CreateSurvey(ctx context.Context, s *store.Survey) error { return nil }
func (m *mockStore) GetSurvey(ctx context.Context, sid string) (*store.Survey, error) {
	return nil, nil
}
func (m *mockStore) CreateSurveyResult(ctx context.Context, r *store.SurveyResult) error { return nil }
func (m *mockStore) GetSurveyResult(ctx context.Context, responseID string) (*store.SurveyResult, error) {
	return nil, nil
}
func (m *mockStore) LinkLastResult(ctx context.Context, sid string, resultID uuid.UUID) error {
	return nil
}
func (m *mockStore) LatestResultStartedAt(ctx context.Context, tenant string) (*time.Time, error) {
	return nil, nil
}

func (m *mockStore) LatestResults(ctx context.Context, tenant string) ([]store.LatestResult, error) {
	return m.latest, nil
}

func (m *mockStore) GetIndustryBenchmark(ctx context.Context, tenant, ind string) (*store.IndustryBenchmark, error) {
	return m.benchmarks[tenant+"/"+ind], nil
}

func (m *mockStore) UpsertIndustryBenchmark(ctx context.Context, b *store.IndustryBenchmark) error {
	copied := *b
	m.benchmarks[b.Tenant+"/"+b.Industry] = &copied
	m.upserted = append(m.upserted, b.Industry)
	return nil
}

func result(surveyID, ind string, dmb float64, dims scoring.ScoreVector) store.LatestResult {
	return store.LatestResult{SurveyID: surveyID, Industry: ind, DMB: &dmb, DMBD: dims}
}

func TestSurveysByIndustry(t *testing.T) {
	tax := testTaxonomy(t)
	results := []store.LatestResult{
		result("s1", "ic-o", 2.0, scoring.ScoreVector{"ads": 2.0}),
		result("s2", "ic", 3.0, scoring.ScoreVector{"ads": 3.0}),
		result("s3", "edu-o", 1.0, scoring.ScoreVector{"ads": 1.0}),
	}

	t.Run("leaf meets threshold", func(t *testing.T) {
		scope, code := SurveysByIndustry(results, tax, "ic-o", 1)
		if code != "ic-o" || len(scope) != 1 {
			t.Errorf("scope=%d code=%s, expected 1 result at ic-o", len(scope), code)
		}
	})

	t.Run("widens to parent", func(t *testing.T) {
		scope, code := SurveysByIndustry(results, tax, "ic-o", 2)
		if code != "ic" {
			t.Errorf("resolved code = %s, expected ic", code)
		}
		if len(scope) != 2 {
			t.Errorf("scope = %d results, expected 2 (ic-o plus ic)", len(scope))
		}
	})

	t.Run("widens to root", func(t *testing.T) {
		scope, code := SurveysByIndustry(results, tax, "ic-o", 3)
		if code != industry.Root || len(scope) != 3 {
			t.Errorf("scope=%d code=%s, expected all 3 at root", len(scope), code)
		}
	})

	t.Run("root short of threshold is still returned", func(t *testing.T) {
		scope, code := SurveysByIndustry(results, tax, "ic-o", 10)
		if code != industry.Root || len(scope) != 3 {
			t.Errorf("scope=%d code=%s, expected best-effort root scope", len(scope), code)
		}
	})

	t.Run("unknown code resolves to root", func(t *testing.T) {
		_, code := SurveysByIndustry(results, tax, "bogus", 1)
		if code != industry.Root {
			t.Errorf("resolved code = %s, expected root", code)
		}
	})
}

func TestRollupNoSurveysWritesNothing(t *testing.T) {
	ms := newMockStore(nil)
	r := NewRollup(ms, testTaxonomy(t), []string{"ads"}, Thresholds{Industry: 1, BestPractice: 1}, false, discardLogger())

	updated, err := r.Run(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(updated) != 0 || len(ms.upserted) != 0 {
		t.Errorf("expected no writes, got %v", ms.upserted)
	}
}

func TestRollupUnknownIndustryOnlyWritesNothing(t *testing.T) {
	ms := newMockStore([]store.LatestResult{
		result("s1", "does-not-exist", 2.0, scoring.ScoreVector{"ads": 2.0}),
	})
	r := NewRollup(ms, testTaxonomy(t), []string{"ads"}, Thresholds{Industry: 1, BestPractice: 1}, false, discardLogger())

	updated, err := r.Run(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no updates for a tenant with only unknown industries, got %v", updated)
	}
}

func TestRollupCreatesAncestorChain(t *testing.T) {
	ms := newMockStore([]store.LatestResult{
		result("s1", "ic-o", 2.0, scoring.ScoreVector{"ads": 5.0, "attribution": 2.0, "audience": 1.0}),
	})
	dims := []string{"ads", "attribution", "audience"}
	r := NewRollup(ms, testTaxonomy(t), dims, Thresholds{Industry: 1, BestPractice: 1}, false, discardLogger())

	updated, err := r.Run(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := map[string]bool{"all": true, "ic": true, "ic-o": true}
	if len(updated) != len(want) {
		t.Fatalf("updated = %v, expected the full ancestor chain", updated)
	}
	for _, code := range updated {
		if !want[code] {
			t.Errorf("unexpected industry %s updated", code)
		}
		b := ms.benchmarks["acme/"+code]
		if b == nil {
			t.Fatalf("no row written for %s", code)
		}
		if b.DMBValue == nil || !almostEqual(*b.DMBValue, 2.6667) {
			t.Errorf("%s dmb_value = %v, expected 2.6667", code, b.DMBValue)
		}
		// A freshly created row seeds its baseline from the computed values.
		if b.InitialDMB == nil || !almostEqual(*b.InitialDMB, 2.6667) {
			t.Errorf("%s initial_dmb = %v, expected 2.6667", code, b.InitialDMB)
		}
		if b.SampleSize != 1 {
			t.Errorf("%s sample_size = %d, expected 1", code, b.SampleSize)
		}
	}
	if _, ok := ms.benchmarks["acme/edu"]; ok {
		t.Error("untouched sector must not get a row")
	}
}

func TestRollupThresholdMetReplacesValues(t *testing.T) {
	ms := newMockStore([]store.LatestResult{
		result("s1", "ic-o", 2.0, scoring.ScoreVector{"ads": 5.0, "attribution": 2.0, "audience": 1.0}),
	})
	// A seeded row with stale values and an external baseline.
	ms.benchmarks["acme/ic-o"] = &store.IndustryBenchmark{
		Tenant: "acme", Industry: "ic-o",
		InitialDMB: float64Ptr(0.0), SampleSize: 10,
		DMBValue: float64Ptr(0.0),
	}
	dims := []string{"ads", "attribution", "audience"}
	r := NewRollup(ms, testTaxonomy(t), dims, Thresholds{Industry: 1, BestPractice: 1}, false, discardLogger())

	if _, err := r.Run(context.Background(), "acme"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b := ms.benchmarks["acme/ic-o"]
	if b.DMBValue == nil || !almostEqual(*b.DMBValue, 2.6667) {
		t.Errorf("dmb_value = %v, expected pure recomputation 2.6667 regardless of the baseline", b.DMBValue)
	}
	if b.InitialDMB == nil || *b.InitialDMB != 0.0 {
		t.Errorf("initial_dmb = %v, baseline must never change", b.InitialDMB)
	}
	if b.SampleSize != 10 {
		t.Errorf("sample_size = %d, baseline sample size must never change", b.SampleSize)
	}
}

func TestRollupBelowThresholdKeepsValues(t *testing.T) {
	ms := newMockStore([]store.LatestResult{
		result("s1", "ic-o", 2.0, scoring.ScoreVector{"ads": 2.0}),
	})
	ms.benchmarks["acme/ic-o"] = &store.IndustryBenchmark{
		Tenant: "acme", Industry: "ic-o",
		InitialDMB: float64Ptr(1.0), SampleSize: 10,
		DMBValue: float64Ptr(1.5), DMBBPValue: float64Ptr(3.0),
	}
	r := NewRollup(ms, testTaxonomy(t), []string{"ads"}, Thresholds{Industry: 5, BestPractice: 5}, false, discardLogger())

	if _, err := r.Run(context.Background(), "acme"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b := ms.benchmarks["acme/ic-o"]
	if b.DMBValue == nil || *b.DMBValue != 1.5 {
		t.Errorf("dmb_value = %v, expected the previous 1.5 kept below threshold", b.DMBValue)
	}
	if b.DMBBPValue == nil || *b.DMBBPValue != 3.0 {
		t.Errorf("dmb_bp_value = %v, expected the previous 3.0 kept below threshold", b.DMBBPValue)
	}
	if b.InitialDMB == nil || *b.InitialDMB != 1.0 {
		t.Errorf("initial_dmb = %v, expected untouched", b.InitialDMB)
	}
}

func TestRollupIndependentStageGating(t *testing.T) {
	// Two results, one excluded from best practice: benchmark threshold 2 is
	// met at the leaf, best practice falls back to a wider scope.
	ms := newMockStore([]store.LatestResult{
		result("s1", "ic-o", 2.0, scoring.ScoreVector{"ads": 2.0}),
		{SurveyID: "s2", Industry: "ic-o", DMB: float64Ptr(4.0),
			DMBD: scoring.ScoreVector{"ads": 4.0}, ExcludedFromBestPractice: true},
		result("s3", "ic", 3.0, scoring.ScoreVector{"ads": 3.0}),
	})
	r := NewRollup(ms, testTaxonomy(t), []string{"ads"}, Thresholds{Industry: 2, BestPractice: 2}, false, discardLogger())

	if _, err := r.Run(context.Background(), "acme"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b := ms.benchmarks["acme/ic-o"]
	if b == nil {
		t.Fatal("no row for ic-o")
	}
	// Benchmark uses both leaf surveys.
	if b.DMBValue == nil || !almostEqual(*b.DMBValue, 3.0) {
		t.Errorf("dmb_value = %v, expected 3.0 from the two leaf surveys", b.DMBValue)
	}
	// Best practice sees only s1 at the leaf, so it widens to ic where s1
	// and s3 qualify; the maximum there is 3.0.
	if b.DMBBPValue == nil || !almostEqual(*b.DMBBPValue, 3.0) {
		t.Errorf("dmb_bp_value = %v, expected 3.0 from the widened scope", b.DMBBPValue)
	}
}

func TestRollupIdempotent(t *testing.T) {
	ms := newMockStore([]store.LatestResult{
		result("s1", "ic-o", 2.0, scoring.ScoreVector{"ads": 2.0}),
		result("s2", "ic-o", 4.0, scoring.ScoreVector{"ads": 4.0}),
	})
	r := NewRollup(ms, testTaxonomy(t), []string{"ads"}, Thresholds{Industry: 2, BestPractice: 2}, false, discardLogger())

	if _, err := r.Run(context.Background(), "acme"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := *ms.benchmarks["acme/ic-o"]

	if _, err := r.Run(context.Background(), "acme"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := *ms.benchmarks["acme/ic-o"]

	if *first.DMBValue != *second.DMBValue || first.SampleSize != second.SampleSize {
		t.Errorf("repeated runs diverged: %+v vs %+v", first, second)
	}
	if first.InitialDMB == nil || second.InitialDMB == nil || *first.InitialDMB != *second.InitialDMB {
		t.Errorf("baseline changed across runs: %v vs %v", first.InitialDMB, second.InitialDMB)
	}
}

func TestRollupOverallFromValues(t *testing.T) {
	ms := newMockStore([]store.LatestResult{
		result("s1", "ic-o", 4.0, scoring.ScoreVector{"ads": 1.0}),
		result("s2", "ic-o", 2.0, scoring.ScoreVector{"ads": 3.0}),
	})
	r := NewRollup(ms, testTaxonomy(t), []string{"ads"}, Thresholds{Industry: 2, BestPractice: 2}, true, discardLogger())

	if _, err := r.Run(context.Background(), "acme"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	b := ms.benchmarks["acme/ic-o"]
	if b.DMBValue == nil || !almostEqual(*b.DMBValue, 3.0) {
		t.Errorf("dmb_value = %v, expected 3.0 from whole-survey values", b.DMBValue)
	}
	if b.DMBBPValue == nil || !almostEqual(*b.DMBBPValue, 4.0) {
		t.Errorf("dmb_bp_value = %v, expected 4.0 as the top whole-survey value", b.DMBBPValue)
	}
}
