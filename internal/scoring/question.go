package scoring

import (
	"fmt"
	"strconv"
	"strings"
)

// QuestionAnswer is one raw answer from a survey response. Dimension may be
// empty, meaning the question does not contribute to any dimension and is
// excluded from scoring entirely.
type QuestionAnswer struct {
	QuestionID string
	RawValue   string
	Weight     float64
	Dimension  string
}

// QuestionScoreFunc turns a raw answer value into a normalized score.
// Custom functions can be registered per question id to override the
// default single-choice parsing.
type QuestionScoreFunc func(raw string) (float64, error)

// MultiAnswerRule scores a multi-select question by counting selected
// options against the maximum number of options, scaled to the tenant's
// score range.
type MultiAnswerRule struct {
	MaxSelections int `yaml:"max_selections"`
}

func (r MultiAnswerRule) score(raw string, scaleMax float64) (float64, error) {
	if r.MaxSelections <= 0 {
		return 0, fmt.Errorf("multi-answer rule without max_selections")
	}
	selected := 0
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) != "" {
			selected++
		}
	}
	if selected > r.MaxSelections {
		selected = r.MaxSelections
	}
	return float64(selected) / float64(r.MaxSelections) * scaleMax, nil
}

// scoreQuestion normalizes a single answer. Multi-select questions use the
// per-question rule from the policy; everything else parses the raw value
// as the chosen maturity level.
func (s *Scorer) scoreQuestion(qa QuestionAnswer) (float64, error) {
	if fn, ok := s.custom[qa.QuestionID]; ok {
		return fn(qa.RawValue)
	}
	if rule, ok := s.policy.MultiAnswer[qa.QuestionID]; ok {
		return rule.score(qa.RawValue, s.policy.ScaleMax)
	}
	val, err := strconv.ParseFloat(strings.TrimSpace(qa.RawValue), 64)
	if err != nil {
		return 0, fmt.Errorf("parse answer %q for %s: %w", qa.RawValue, qa.QuestionID, err)
	}
	return val, nil
}
