package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateSurvey(ctx context.Context, sv *Survey) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO surveys (sid, tenant, company_name, industry, country, engagement_lead)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		sv.SID, sv.Tenant, sv.CompanyName, sv.Industry, sv.Country, sv.EngagementLead,
	).Scan(&sv.CreatedAt)
}

func (s *PostgresStore) GetSurvey(ctx context.Context, sid string) (*Survey, error) {
	sv := &Survey{}
	err := s.pool.QueryRow(ctx, `
		SELECT sid, tenant, company_name, industry, country, engagement_lead, created_at, last_result_id
		FROM surveys WHERE sid = $1`, sid,
	).Scan(&sv.SID, &sv.Tenant, &sv.CompanyName, &sv.Industry, &sv.Country, &sv.EngagementLead, &sv.CreatedAt, &sv.LastResultID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sv, nil
}

func (s *PostgresStore) CreateSurveyResult(ctx context.Context, r *SurveyResult) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	dmbdJSON, _ := json.Marshal(r.DMBD)
	return s.pool.QueryRow(ctx, `
		INSERT INTO survey_results (id, tenant, survey_id, response_id, started_at,
			excluded_from_best_practice, dmb, dmb_d)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		r.ID, r.Tenant, r.SurveyID, r.ResponseID, r.StartedAt,
		r.ExcludedFromBestPractice, r.DMB, dmbdJSON,
	).Scan(&r.CreatedAt)
}

func (s *PostgresStore) GetSurveyResult(ctx context.Context, responseID string) (*SurveyResult, error) {
	r := &SurveyResult{}
	var dmbdJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant, survey_id, response_id, started_at,
			excluded_from_best_practice, dmb, dmb_d, created_at
		FROM survey_results WHERE response_id = $1`, responseID,
	).Scan(&r.ID, &r.Tenant, &r.SurveyID, &r.ResponseID, &r.StartedAt,
		&r.ExcludedFromBestPractice, &r.DMB, &dmbdJSON, &r.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dmbdJSON != nil {
		_ = json.Unmarshal(dmbdJSON, &r.DMBD)
	}
	return r, nil
}

func (s *PostgresStore) LinkLastResult(ctx context.Context, sid string, resultID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE surveys SET last_result_id = $2 WHERE sid = $1`, sid, resultID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSurveyNotFound
	}
	return nil
}

func (s *PostgresStore) LatestResultStartedAt(ctx context.Context, tenant string) (*time.Time, error) {
	var latest *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT MAX(started_at) FROM survey_results WHERE tenant = $1`, tenant,
	).Scan(&latest)
	if err != nil {
		return nil, err
	}
	return latest, nil
}

func (s *PostgresStore) LatestResults(ctx context.Context, tenant string) ([]LatestResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT s.sid, s.industry, r.dmb, r.dmb_d, r.excluded_from_best_practice
		FROM surveys s
		JOIN survey_results r ON r.id = s.last_result_id
		WHERE s.tenant = $1 AND r.dmb IS NOT NULL
		ORDER BY s.sid`, tenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LatestResult
	for rows.Next() {
		var lr LatestResult
		var dmbdJSON []byte
		if err := rows.Scan(&lr.SurveyID, &lr.Industry, &lr.DMB, &dmbdJSON, &lr.ExcludedFromBestPractice); err != nil {
			return nil, err
		}
		if dmbdJSON != nil {
			_ = json.Unmarshal(dmbdJSON, &lr.DMBD)
		}
		results = append(results, lr)
	}
	return results, rows.Err()
}

func (s *PostgresStore) GetIndustryBenchmark(ctx context.Context, tenant, industry string) (*IndustryBenchmark, error) {
	b := &IndustryBenchmark{}
	var initialD, initialBPD, dmbD, dmbBPD []byte
	err := s.pool.QueryRow(ctx, `
		SELECT tenant, industry,
			initial_dmb, initial_dmb_d, initial_best_practice, initial_best_practice_d,
			dmb_value, dmb_d_value, dmb_bp_value, dmb_d_bp_value,
			sample_size, updated_at
		FROM industry_benchmarks WHERE tenant = $1 AND industry = $2`, tenant, industry,
	).Scan(&b.Tenant, &b.Industry,
		&b.InitialDMB, &initialD, &b.InitialBestPractice, &initialBPD,
		&b.DMBValue, &dmbD, &b.DMBBPValue, &dmbBPD,
		&b.SampleSize, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if initialD != nil {
		_ = json.Unmarshal(initialD, &b.InitialDMBD)
	}
	if initialBPD != nil {
		_ = json.Unmarshal(initialBPD, &b.InitialBestPracticeD)
	}
	if dmbD != nil {
		_ = json.Unmarshal(dmbD, &b.DMBDValue)
	}
	if dmbBPD != nil {
		_ = json.Unmarshal(dmbBPD, &b.DMBDBPValue)
	}
	return b, nil
}

// UpsertIndustryBenchmark creates the row with its immutable baseline on
// first touch; later runs only move the computed dmb_* values. The single
// statement serializes concurrent roll-ups on the (tenant, industry) key.
func (s *PostgresStore) UpsertIndustryBenchmark(ctx context.Context, b *IndustryBenchmark) error {
	initialD, _ := json.Marshal(b.InitialDMBD)
	initialBPD, _ := json.Marshal(b.InitialBestPracticeD)
	dmbD, _ := json.Marshal(b.DMBDValue)
	dmbBPD, _ := json.Marshal(b.DMBDBPValue)

	return s.pool.QueryRow(ctx, `
		INSERT INTO industry_benchmarks (tenant, industry,
			initial_dmb, initial_dmb_d, initial_best_practice, initial_best_practice_d,
			dmb_value, dmb_d_value, dmb_bp_value, dmb_d_bp_value,
			sample_size, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		ON CONFLICT (tenant, industry) DO UPDATE SET
			dmb_value = EXCLUDED.dmb_value,
			dmb_d_value = EXCLUDED.dmb_d_value,
			dmb_bp_value = EXCLUDED.dmb_bp_value,
			dmb_d_bp_value = EXCLUDED.dmb_d_bp_value,
			updated_at = now()
		RETURNING updated_at`,
		b.Tenant, b.Industry,
		b.InitialDMB, initialD, b.InitialBestPractice, initialBPD,
		b.DMBValue, dmbD, b.DMBBPValue, dmbBPD,
		b.SampleSize,
	).Scan(&b.UpdatedAt)
}
