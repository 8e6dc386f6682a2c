package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/maturitylab/benchmark/internal/config"
	"github.com/maturitylab/benchmark/internal/industry"
	"github.com/maturitylab/benchmark/internal/store"
)

// mockStore backs the handler tests in memory.
type mockStore struct {
	surveys    map[string]*store.Survey
	results    map[string]*store.SurveyResult
	latest     []store.LatestResult
	benchmarks map[string]*store.IndustryBenchmark
}

func newMockStore() *mockStore {
	return &mockStore{
		surveys:    make(map[string]*store.Survey),
		results:    make(map[string]*store.SurveyResult),
		benchmarks: make(map[string]*store.IndustryBenchmark),
	}
}

func (m *mockStore) CreateSurvey(ctx context.Context, s *store.Survey) error {
	m.surveys[s.SID] = s
	return nil
}
func (m *mockStore) GetSurvey(ctx context.Context, sid string) (*store.Survey, error) {
	return m.surveys[sid], nil
}
func (m *mockStore) CreateSurveyResult(ctx context.Context, r *store.SurveyResult) error {
	m.results[r.ResponseID] = r
	return nil
}
func (m *mockStore) GetSurveyResult(ctx context.Context, responseID string) (*store.SurveyResult, error) {
	return m.results[responseID], nil
}
func (m *mockStore) LinkLastResult(ctx context.Context, sid string, resultID uuid.UUID) error {
	if _, ok := m.surveys[sid]; !ok {
		return store.ErrSurveyNotFound
	}
	return nil
}
func (m *mockStore) LatestResultStartedAt(ctx context.Context, tenant string) (*time.Time, error) {
	return nil, nil
}
func (m *mockStore) LatestResults(ctx context.Context, tenant string) ([]store.LatestResult, error) {
	return m.latest, nil
}
func (m *mockStore) GetIndustryBenchmark(ctx context.Context, tenant, ind string) (*store.IndustryBenchmark, error) {
	return m.benchmarks[ind], nil
}
func (m *mockStore) UpsertIndustryBenchmark(ctx context.Context, b *store.IndustryBenchmark) error {
	m.benchmarks[b.Industry] = b
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Tenants: map[string]*config.TenantConfig{
			"acme": {
				Key:                  "acme",
				SurveyID:             "SV_1",
				Dimensions:           []config.Dimension{{Key: "ads", Questions: []string{"q1"}}},
				MinItemsIndustry:     2,
				MinItemsBestPractice: 2,
				Industries: []industry.Node{
					{Code: "ic", Name: "Information & Communication", Children: []industry.Node{
						{Code: "ic-o", Name: "IC - Other"},
					}},
				},
			},
		},
	}
}

func setupTestRouter() (http.Handler, *mockStore) {
	ms := newMockStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(ms, testConfig(), logger), ms
}

func float64Ptr(v float64) *float64 { return &v }
