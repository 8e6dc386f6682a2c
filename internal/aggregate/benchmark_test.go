package aggregate

import (
	"math"
	"testing"

	"github.com/maturitylab/benchmark/internal/scoring"
)

var testDimensions = []string{"ads", "attribution", "audience"}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

func TestGroupBenchmarkMeansPresentValues(t *testing.T) {
	vectors := []scoring.ScoreVector{
		{"ads": 2.0, "attribution": 4.0},
		{"attribution": 6.0},
	}
	overall, dims := GroupBenchmark(vectors, testDimensions, nil)

	if !almostEqual(dims["attribution"], 5.0) {
		t.Errorf("attribution = %f, expected 5.0", dims["attribution"])
	}
	// The single contributing survey carries the whole dimension.
	if !almostEqual(dims["ads"], 2.0) {
		t.Errorf("ads = %f, expected 2.0", dims["ads"])
	}
	if _, ok := dims.Get("audience"); ok {
		t.Error("dimension absent from every vector must stay absent")
	}
	if !almostEqual(overall, 3.5) {
		t.Errorf("overall = %f, expected 3.5 (mean of 2.0 and 5.0)", overall)
	}
}

func TestGroupBenchmarkOverallsOverride(t *testing.T) {
	vectors := []scoring.ScoreVector{
		{"ads": 1.0},
		{"ads": 3.0},
	}
	overall, _ := GroupBenchmark(vectors, testDimensions, []float64{4.0, 2.0})
	if !almostEqual(overall, 3.0) {
		t.Errorf("overall = %f, expected 3.0 from whole-survey values", overall)
	}
}

func TestGroupBenchmarkEmpty(t *testing.T) {
	overall, dims := GroupBenchmark(nil, testDimensions, nil)
	if !math.IsNaN(overall) {
		t.Errorf("overall = %f, expected NaN for an empty group", overall)
	}
	if len(dims) != 0 {
		t.Errorf("dims = %v, expected empty", dims)
	}
}

func TestBestPracticeTakesMaxima(t *testing.T) {
	vectors := []scoring.ScoreVector{
		{"ads": 2.0, "attribution": 4.0},
		{"ads": 3.5, "attribution": 1.0},
	}
	overall, dims := BestPractice(vectors, testDimensions, nil)

	if !almostEqual(dims["ads"], 3.5) {
		t.Errorf("ads = %f, expected 3.5", dims["ads"])
	}
	if !almostEqual(dims["attribution"], 4.0) {
		t.Errorf("attribution = %f, expected 4.0", dims["attribution"])
	}
	if !almostEqual(overall, 3.75) {
		t.Errorf("overall = %f, expected 3.75 (mean of the per-dimension maxima)", overall)
	}
}

func TestBestPracticeDominatesBenchmark(t *testing.T) {
	vectors := []scoring.ScoreVector{
		{"ads": 1.0, "attribution": 2.0},
		{"ads": 4.0, "attribution": 3.0},
		{"ads": 2.5},
	}
	_, meanDims := GroupBenchmark(vectors, testDimensions, nil)
	_, maxDims := BestPractice(vectors, testDimensions, nil)

	for _, dim := range testDimensions {
		maxVal, ok := maxDims.Get(dim)
		if !ok {
			continue
		}
		if meanVal := meanDims[dim]; maxVal < meanVal {
			t.Errorf("%s: best practice %f below benchmark %f", dim, maxVal, meanVal)
		}
	}
}

func TestBestPracticeOverallsOverride(t *testing.T) {
	vectors := []scoring.ScoreVector{{"ads": 1.0}}
	overall, _ := BestPractice(vectors, testDimensions, []float64{2.0, 3.7, 1.1})
	if !almostEqual(overall, 3.7) {
		t.Errorf("overall = %f, expected 3.7", overall)
	}
}
