package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/maturitylab/benchmark/internal/scoring"
)

// ErrSurveyNotFound is returned when a result references a survey that was
// never registered. The result itself is still persisted.
var ErrSurveyNotFound = errors.New("survey not found")

// Survey is one registered survey engagement for a company. The SID is the
// external survey platform identifier and the primary key.
type Survey struct {
	SID            string     `json:"sid"`
	Tenant         string     `json:"tenant"`
	CompanyName    string     `json:"company_name"`
	Industry       string     `json:"industry"`
	Country        string     `json:"country"`
	EngagementLead string     `json:"engagement_lead,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	LastResultID   *uuid.UUID `json:"last_result_id,omitempty"`
}

// SurveyResult is a scored response. DMB is nil when the response produced
// no score; DMBD holds only the dimensions that had contributing answers.
type SurveyResult struct {
	ID                       uuid.UUID           `json:"id"`
	Tenant                   string              `json:"tenant"`
	SurveyID                 string              `json:"survey_id"`
	ResponseID               string              `json:"response_id"`
	StartedAt                time.Time           `json:"started_at"`
	ExcludedFromBestPractice bool                `json:"excluded_from_best_practice"`
	DMB                      *float64            `json:"dmb,omitempty"`
	DMBD                     scoring.ScoreVector `json:"dmb_d"`
	CreatedAt                time.Time           `json:"created_at"`
}

// IndustryBenchmark is the persisted roll-up for one (tenant, industry)
// pair. The initial_* fields and sample size are the externally seeded
// baseline and never change after the row is created; only the dmb_*
// values move on subsequent roll-up runs.
type IndustryBenchmark struct {
	Tenant               string              `json:"tenant"`
	Industry             string              `json:"industry"`
	InitialDMB           *float64            `json:"initial_dmb,omitempty"`
	InitialDMBD          scoring.ScoreVector `json:"initial_dmb_d"`
	InitialBestPractice  *float64            `json:"initial_best_practice,omitempty"`
	InitialBestPracticeD scoring.ScoreVector `json:"initial_best_practice_d"`
	DMBValue             *float64            `json:"dmb_value,omitempty"`
	DMBDValue            scoring.ScoreVector `json:"dmb_d_value"`
	DMBBPValue           *float64            `json:"dmb_bp_value,omitempty"`
	DMBDBPValue          scoring.ScoreVector `json:"dmb_d_bp_value"`
	SampleSize           int                 `json:"sample_size"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// LatestResult pairs a survey's industry with its most recent scored
// result. Only surveys whose latest result carries a score appear.
type LatestResult struct {
	SurveyID                 string
	Industry                 string
	DMB                      *float64
	DMBD                     scoring.ScoreVector
	ExcludedFromBestPractice bool
}

type Store interface {
	CreateSurvey(ctx context.Context, s *Survey) error
	GetSurvey(ctx context.Context, sid string) (*Survey, error)

	CreateSurveyResult(ctx context.Context, r *SurveyResult) error
	GetSurveyResult(ctx context.Context, responseID string) (*SurveyResult, error)
	LinkLastResult(ctx context.Context, sid string, resultID uuid.UUID) error
	LatestResultStartedAt(ctx context.Context, tenant string) (*time.Time, error)
	LatestResults(ctx context.Context, tenant string) ([]LatestResult, error)

	GetIndustryBenchmark(ctx context.Context, tenant, industry string) (*IndustryBenchmark, error)
	UpsertIndustryBenchmark(ctx context.Context, b *IndustryBenchmark) error
}
