package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maturitylab/benchmark/internal/aggregate"
	"github.com/maturitylab/benchmark/internal/config"
	"github.com/maturitylab/benchmark/internal/notify"
	"github.com/maturitylab/benchmark/internal/provider"
	"github.com/maturitylab/benchmark/internal/scoring"
	"github.com/maturitylab/benchmark/internal/store"
)

// Syncer drives the benchmark pipeline: download new responses, score the
// finished ones, persist results, and roll industry benchmarks up the
// hierarchy. One Syncer serves every configured tenant.
type Syncer struct {
	store    store.Store
	provider provider.Client
	notifier notify.Client
	cfg      *config.Config
	metrics  *Metrics
	logger   *slog.Logger

	scorers map[string]*scoring.Scorer
	rollups map[string]*aggregate.Rollup

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New wires a Syncer from the tenant configuration. Tenant taxonomies are
// validated at config load, so building them again cannot fail here.
func New(s store.Store, p provider.Client, n notify.Client, cfg *config.Config, metrics *Metrics, logger *slog.Logger) (*Syncer, error) {
	sc := &Syncer{
		store:    s,
		provider: p,
		notifier: n,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		scorers:  make(map[string]*scoring.Scorer),
		rollups:  make(map[string]*aggregate.Rollup),
		stopCh:   make(chan struct{}),
	}
	for key, tc := range cfg.Tenants {
		tax, err := tc.Taxonomy()
		if err != nil {
			return nil, fmt.Errorf("tenant %s: %w", key, err)
		}
		sc.scorers[key] = scoring.NewScorer(tc.Policy(), logger.With("tenant", key))
		sc.rollups[key] = aggregate.NewRollup(s, tax, tc.DimensionKeys(),
			aggregate.Thresholds{Industry: tc.MinItemsIndustry, BestPractice: tc.MinItemsBestPractice},
			tc.OverallFromValues, logger.With("tenant", key))
	}
	return sc, nil
}

// Start launches the periodic sync loop.
func (s *Syncer) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop terminates the loop and waits for an in-flight cycle to finish.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.SyncInterval())
	defer ticker.Stop()

	s.SyncAll(ctx)
	for {
		select {
		case <-ticker.C:
			s.SyncAll(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// SyncAll runs a full cycle for every tenant. A failing tenant does not
// stop the others; its failure is logged, counted, and published.
func (s *Syncer) SyncAll(ctx context.Context) {
	tenants := make([]string, 0, len(s.cfg.Tenants))
	for key := range s.cfg.Tenants {
		tenants = append(tenants, key)
	}
	sort.Strings(tenants)

	for _, tenant := range tenants {
		start := time.Now()
		if err := s.SyncTenant(ctx, tenant); err != nil {
			s.logger.Error("sync cycle failed", "tenant", tenant, "error", err)
			s.metrics.SyncFailed(tenant)
			s.publish(notify.SubjectSyncFailed(tenant), notify.SyncFailedEvent{
				Tenant: tenant, Error: err.Error(), At: time.Now(),
			})
			continue
		}
		if err := s.RunBenchmarks(ctx, tenant); err != nil {
			s.logger.Error("benchmark roll-up failed", "tenant", tenant, "error", err)
			continue
		}
		s.metrics.ObserveSyncDuration(tenant, time.Since(start).Seconds())
	}
}

// SyncTenant downloads responses newer than the latest stored result and
// scores the finished ones. An upstream fetch failure aborts the cycle
// before anything is written; per-response data problems are recovered
// locally.
func (s *Syncer) SyncTenant(ctx context.Context, tenant string) error {
	tc, ok := s.cfg.Tenants[tenant]
	if !ok {
		return fmt.Errorf("unknown tenant %s", tenant)
	}

	startedAfter, err := s.store.LatestResultStartedAt(ctx, tenant)
	if err != nil {
		return fmt.Errorf("latest result lookup: %w", err)
	}
	if startedAfter != nil {
		s.logger.Info("results already stored, downloading partially",
			"tenant", tenant, "started_after", *startedAfter)
	} else {
		s.logger.Info("no results stored yet, downloading everything", "tenant", tenant)
	}

	responses, err := s.provider.FetchResults(ctx, tc.SurveyID, startedAfter)
	if err != nil {
		return fmt.Errorf("fetch results: %w", err)
	}

	for _, resp := range responses {
		s.processResponse(ctx, tenant, tc, resp)
	}
	return nil
}

func (s *Syncer) processResponse(ctx context.Context, tenant string, tc *config.TenantConfig, resp provider.RawResponse) {
	if !resp.Finished {
		s.logger.Warn("skipping unfinished response",
			"tenant", tenant, "response", resp.ResponseID, "survey", resp.SurveyID)
		s.metrics.ResponseSkipped(tenant, "unfinished")
		return
	}

	answers := questionAnswers(resp, tc)
	score, err := s.scorers[tenant].ScoreResponse(answers)
	if err != nil {
		if errors.Is(err, scoring.ErrNoScorableAnswers) {
			s.logger.Warn("response has no scorable answers",
				"tenant", tenant, "response", resp.ResponseID)
			s.metrics.ResponseSkipped(tenant, "no_scorable_answers")
			return
		}
		s.logger.Error("scoring failed", "tenant", tenant, "response", resp.ResponseID, "error", err)
		s.metrics.ResponseSkipped(tenant, "scoring_error")
		return
	}

	result := &store.SurveyResult{
		ID:                       uuid.New(),
		Tenant:                   tenant,
		SurveyID:                 resp.SurveyID,
		ResponseID:               resp.ResponseID,
		StartedAt:                resp.StartedAt,
		ExcludedFromBestPractice: excludedFromBestPractice(resp, tc),
		DMB:                      &score.Overall,
		DMBD:                     score.ByDimension,
	}
	if err := s.store.CreateSurveyResult(ctx, result); err != nil {
		s.logger.Error("persist result failed", "tenant", tenant, "response", resp.ResponseID, "error", err)
		return
	}
	s.metrics.ResponseScored(tenant)

	survey, err := s.store.GetSurvey(ctx, resp.SurveyID)
	if err == nil && survey != nil {
		if err := s.store.LinkLastResult(ctx, resp.SurveyID, result.ID); err != nil {
			s.logger.Warn("could not update survey with latest result",
				"tenant", tenant, "survey", resp.SurveyID, "error", err)
		}
	} else {
		// Result stays persisted standalone.
		s.logger.Warn("could not find survey for result",
			"tenant", tenant, "survey", resp.SurveyID, "response", resp.ResponseID)
	}

	s.notifyResultReady(tenant, resp, survey)
}

func (s *Syncer) notifyResultReady(tenant string, resp provider.RawResponse, survey *store.Survey) {
	if !isValidEmail(resp.RecipientEmail) {
		return
	}
	event := notify.ResultReadyEvent{
		Tenant:     tenant,
		SurveyID:   resp.SurveyID,
		ResponseID: resp.ResponseID,
		To:         resp.RecipientEmail,
	}
	if isValidEmail(resp.RecipientBCC) {
		event.BCC = resp.RecipientBCC
	}
	if survey != nil {
		event.CompanyName = survey.CompanyName
		event.Industry = survey.Industry
		event.Country = survey.Country
	}
	s.publish(notify.SubjectResultReady(tenant), event)
}

// RunBenchmarks rolls the tenant's industry benchmarks up the hierarchy
// and publishes an update event per refreshed industry.
func (s *Syncer) RunBenchmarks(ctx context.Context, tenant string) error {
	updated, err := s.rollups[tenant].Run(ctx, tenant)
	if err != nil {
		return err
	}
	s.metrics.RollupRan(tenant)
	s.metrics.BenchmarksUpdated(tenant, len(updated))
	for _, code := range updated {
		s.publish(notify.SubjectIndustryUpdated(tenant), notify.IndustryUpdatedEvent{
			Tenant: tenant, Industry: code, UpdatedAt: time.Now(),
		})
	}
	return nil
}

func (s *Syncer) publish(subject string, event interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(subject, event); err != nil {
		s.logger.Warn("publish event failed", "subject", subject, "error", err)
	}
}

// questionAnswers pairs the raw answers with the tenant rubric. Questions
// outside every dimension get an empty dimension and are dropped by the
// scorer.
func questionAnswers(resp provider.RawResponse, tc *config.TenantConfig) []scoring.QuestionAnswer {
	answers := make([]scoring.QuestionAnswer, 0, len(resp.Answers))
	for qid, raw := range resp.Answers {
		answers = append(answers, scoring.QuestionAnswer{
			QuestionID: qid,
			RawValue:   raw,
			Weight:     tc.Weights[qid],
			Dimension:  tc.DimensionOf(qid),
		})
	}
	return answers
}

// excludedFromBestPractice flags suspiciously fast completions so their
// scores never lift the top-performer benchmark.
func excludedFromBestPractice(resp provider.RawResponse, tc *config.TenantConfig) bool {
	if tc.MinCompletionSeconds <= 0 || resp.EndedAt.IsZero() {
		return false
	}
	return resp.EndedAt.Sub(resp.StartedAt) < tc.MinCompletion()
}

func isValidEmail(addr string) bool {
	if addr == "" {
		return false
	}
	_, err := mail.ParseAddress(addr)
	return err == nil
}
