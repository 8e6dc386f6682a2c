package config

import (
	"fmt"
	"time"

	"github.com/maturitylab/benchmark/internal/industry"
	"github.com/maturitylab/benchmark/internal/scoring"
)

// Dimension names one scored sub-capability and the ordered question ids
// that feed it. A question listed nowhere is excluded from scoring.
type Dimension struct {
	Key       string   `yaml:"key"`
	Title     string   `yaml:"title"`
	Questions []string `yaml:"questions"`
}

// TenantConfig is one tenant's complete rubric: dimensions, weights,
// aggregation thresholds, and industry hierarchy. It is loaded once and
// passed explicitly into the scoring and aggregation code.
type TenantConfig struct {
	Key      string `yaml:"-"`
	SurveyID string `yaml:"survey_id"`

	Dimensions       []Dimension                        `yaml:"dimensions"`
	Weights          map[string]float64                 `yaml:"weights"`
	DimensionWeights map[string]float64                 `yaml:"dimension_weights"`
	MultiAnswer      map[string]scoring.MultiAnswerRule `yaml:"multi_answer_questions"`
	ScaleMax         float64                            `yaml:"scale_max"`

	// OverallFromValues switches group overall scores to aggregate
	// whole-survey values instead of per-dimension averages.
	OverallFromValues bool `yaml:"overall_from_values"`

	MinItemsIndustry     int `yaml:"min_items_industry"`
	MinItemsBestPractice int `yaml:"min_items_best_practice"`

	// MinCompletionSeconds marks responses finished faster than this as
	// excluded from best-practice calculations. Zero disables the check.
	MinCompletionSeconds int `yaml:"min_completion_seconds"`

	Industries []industry.Node `yaml:"industries"`
}

// DimensionKeys returns the ordered list of recognized dimension keys.
func (t *TenantConfig) DimensionKeys() []string {
	keys := make([]string, len(t.Dimensions))
	for i, d := range t.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// DimensionOf maps a question id to its dimension, or "" when the question
// does not contribute to scoring.
func (t *TenantConfig) DimensionOf(questionID string) string {
	for _, d := range t.Dimensions {
		for _, q := range d.Questions {
			if q == questionID {
				return d.Key
			}
		}
	}
	return ""
}

// Policy builds the scoring policy value object for this tenant.
func (t *TenantConfig) Policy() scoring.ScoringPolicy {
	return scoring.ScoringPolicy{
		Weights:           t.Weights,
		DimensionWeights:  t.DimensionWeights,
		MultiAnswer:       t.MultiAnswer,
		ScaleMax:          t.ScaleMax,
		OverallFromValues: t.OverallFromValues,
	}
}

// Taxonomy builds the industry hierarchy for this tenant.
func (t *TenantConfig) Taxonomy() (*industry.Taxonomy, error) {
	return industry.New(t.Industries)
}

// MinCompletion returns the best-practice exclusion window.
func (t *TenantConfig) MinCompletion() time.Duration {
	return time.Duration(t.MinCompletionSeconds) * time.Second
}

// Validate checks the rubric for internal consistency.
func (t *TenantConfig) Validate() error {
	if t.SurveyID == "" {
		return fmt.Errorf("survey_id is required")
	}
	if len(t.Dimensions) == 0 {
		return fmt.Errorf("at least one dimension is required")
	}
	seen := make(map[string]string)
	for _, d := range t.Dimensions {
		if d.Key == "" {
			return fmt.Errorf("dimension without key")
		}
		for _, q := range d.Questions {
			if prev, ok := seen[q]; ok {
				return fmt.Errorf("question %s listed in both %s and %s", q, prev, d.Key)
			}
			seen[q] = d.Key
		}
	}
	for q, w := range t.Weights {
		if w < 0 {
			return fmt.Errorf("negative weight for question %s", q)
		}
	}
	for dim := range t.DimensionWeights {
		if _, ok := dimensionKeySet(t.Dimensions)[dim]; !ok {
			return fmt.Errorf("dimension weight for unknown dimension %s", dim)
		}
	}
	for q, rule := range t.MultiAnswer {
		if rule.MaxSelections <= 0 {
			return fmt.Errorf("multi-answer question %s needs max_selections > 0", q)
		}
	}
	if t.MinItemsIndustry < 1 {
		return fmt.Errorf("min_items_industry must be at least 1")
	}
	if t.MinItemsBestPractice < 1 {
		return fmt.Errorf("min_items_best_practice must be at least 1")
	}
	if _, err := t.Taxonomy(); err != nil {
		return fmt.Errorf("industries: %w", err)
	}
	return nil
}

func dimensionKeySet(dims []Dimension) map[string]struct{} {
	set := make(map[string]struct{}, len(dims))
	for _, d := range dims {
		set[d.Key] = struct{}{}
	}
	return set
}
