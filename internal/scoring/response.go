package scoring

import (
	"errors"
	"log/slog"
)

// DefaultScaleMax is the score ceiling used when a tenant does not
// configure its own range (levels 0-4).
const DefaultScaleMax = 4.0

// ErrNoScorableAnswers is returned when a response contains no answer that
// contributes to any dimension. Callers must treat this as "no score", not
// as a zero score.
var ErrNoScorableAnswers = errors.New("response has no scorable answers")

// ScoringPolicy carries the per-tenant scoring configuration as an explicit
// value, replacing any ambient tenant lookup.
type ScoringPolicy struct {
	// Weights maps question id to its weight within a dimension. A missing
	// or non-positive weight defaults to 1.
	Weights map[string]float64
	// DimensionWeights, when non-nil, turns the overall score into a
	// weighted average over the dimensions present in the response.
	DimensionWeights map[string]float64
	// MultiAnswer marks multi-select questions and how to normalize them.
	MultiAnswer map[string]MultiAnswerRule
	// ScaleMax is the top of the score range.
	ScaleMax float64
	// OverallFromValues selects the tenant variant where group overall
	// scores are aggregated from whole-survey values instead of
	// per-dimension averages. Consumed by the aggregate package.
	OverallFromValues bool
}

// ResponseScore is the scored form of a single survey response.
type ResponseScore struct {
	Overall     float64
	ByDimension ScoreVector
}

// Scorer converts raw question answers into per-dimension and overall
// maturity scores.
type Scorer struct {
	policy ScoringPolicy
	custom map[string]QuestionScoreFunc
	logger *slog.Logger
}

// NewScorer creates a Scorer for one tenant's policy.
func NewScorer(policy ScoringPolicy, logger *slog.Logger) *Scorer {
	if policy.ScaleMax <= 0 {
		policy.ScaleMax = DefaultScaleMax
	}
	return &Scorer{
		policy: policy,
		custom: make(map[string]QuestionScoreFunc),
		logger: logger,
	}
}

// RegisterQuestionScorer overrides scoring for a single question id.
func (s *Scorer) RegisterQuestionScorer(questionID string, fn QuestionScoreFunc) {
	s.custom[questionID] = fn
}

// ScoreResponse buckets answers by dimension, computes each dimension's
// weight-normalized average, and combines the dimension scores into the
// overall value. Answers without a dimension are ignored; answers whose raw
// value cannot be parsed are skipped with a data-quality warning and never
// fail the response.
func (s *Scorer) ScoreResponse(answers []QuestionAnswer) (ResponseScore, error) {
	type bucket struct {
		weightedSum float64
		weightTotal float64
	}
	buckets := make(map[string]*bucket)

	for _, qa := range answers {
		if qa.Dimension == "" {
			continue
		}
		score, err := s.scoreQuestion(qa)
		if err != nil {
			s.logger.Warn("skipping malformed answer",
				"question", qa.QuestionID, "raw", qa.RawValue, "error", err)
			continue
		}
		weight := qa.Weight
		if weight <= 0 {
			weight = 1
		}
		b := buckets[qa.Dimension]
		if b == nil {
			b = &bucket{}
			buckets[qa.Dimension] = b
		}
		b.weightedSum += score * weight
		b.weightTotal += weight
	}

	if len(buckets) == 0 {
		return ResponseScore{}, ErrNoScorableAnswers
	}

	byDimension := make(ScoreVector, len(buckets))
	for dim, b := range buckets {
		byDimension[dim] = b.weightedSum / b.weightTotal
	}

	return ResponseScore{
		Overall:     s.overall(byDimension),
		ByDimension: byDimension,
	}, nil
}

// overall averages the dimension scores, weighted by DimensionWeights when
// supplied. Weights for dimensions absent from the response are not used; a
// present dimension without a configured weight counts as 1.
func (s *Scorer) overall(byDimension ScoreVector) float64 {
	var sum, weightTotal float64
	for dim, score := range byDimension {
		weight := 1.0
		if s.policy.DimensionWeights != nil {
			if w, ok := s.policy.DimensionWeights[dim]; ok {
				weight = w
			}
		}
		sum += score * weight
		weightTotal += weight
	}
	return sum / weightTotal
}
