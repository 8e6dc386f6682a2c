package aggregate

import (
	"math"

	"github.com/maturitylab/benchmark/internal/scoring"
)

// byDimension applies agg to the values present for each dimension across
// the given vectors. A dimension absent from every vector stays absent in
// the output; missing entries never count as zero.
func byDimension(vectors []scoring.ScoreVector, dimensions []string, agg func([]float64) float64) scoring.ScoreVector {
	out := make(scoring.ScoreVector)
	for _, dim := range dimensions {
		var values []float64
		for _, v := range vectors {
			if score, ok := v[dim]; ok {
				values = append(values, score)
			}
		}
		if len(values) > 0 {
			out[dim] = agg(values)
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func maximum(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// GroupBenchmark averages many responses' dimension vectors into a group
// benchmark. Each dimension is the arithmetic mean over the vectors where
// it is present. The overall score is the mean of overalls when the caller
// supplies a whole-survey value sequence, otherwise the mean of the
// computed dimension scores; it is NaN when nothing contributed.
//
// Vectors must already be deduplicated to the latest result per survey;
// this function is pure over whatever list it is given.
func GroupBenchmark(vectors []scoring.ScoreVector, dimensions []string, overalls []float64) (float64, scoring.ScoreVector) {
	dims := byDimension(vectors, dimensions, mean)
	if overalls != nil {
		return mean(overalls), dims
	}
	return mean(values(dims)), dims
}

// BestPractice has the same shape as GroupBenchmark but takes the maximum
// per dimension. The overall best practice is the highest observed
// whole-survey value when overalls are supplied; otherwise it is the mean
// of the per-dimension maxima, since a value-by-value max across mismatched
// dimensions would not describe any real top performer.
func BestPractice(vectors []scoring.ScoreVector, dimensions []string, overalls []float64) (float64, scoring.ScoreVector) {
	dims := byDimension(vectors, dimensions, maximum)
	if overalls != nil {
		return maximum(overalls), dims
	}
	return mean(values(dims)), dims
}

func values(v scoring.ScoreVector) []float64 {
	out := make([]float64, 0, len(v))
	for _, score := range v {
		out = append(out, score)
	}
	return out
}
