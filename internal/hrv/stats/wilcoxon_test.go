package stats

import (
	"math"
	"testing"
)

func TestWilcoxonSignedRankHandComputed(t *testing.T) {
	// Differences 1, 2, 3, -4, 5: W- = 4, W+ = 11, so W = 4. With n = 5
	// the normal approximation gives z = (4 - 7.5) / sqrt(13.75) and a
	// two-sided p of ~0.345.
	x := []float64{11, 12, 13, 10, 15}
	y := []float64{10, 10, 10, 14, 10}

	w, p := WilcoxonSignedRank(x, y)
	if w != 4 {
		t.Errorf("W = %v, want 4", w)
	}
	if p == nil {
		t.Fatal("Expected a p-value, got nil")
	}
	if math.Abs(*p-0.3454) > 1e-3 {
		t.Errorf("PValue = %v, want ~0.3454", *p)
	}
}

func TestWilcoxonSignedRankZeroDiffsDropped(t *testing.T) {
	// Matched values contribute nothing; only the two nonzero differences
	// should be ranked.
	x := []float64{5, 5, 5, 8, 3}
	y := []float64{5, 5, 5, 6, 4}

	w, p := WilcoxonSignedRank(x, y)
	if w != 1 {
		t.Errorf("W = %v, want 1", w)
	}
	if p == nil {
		t.Fatal("Expected a p-value, got nil")
	}
}

func TestWilcoxonSignedRankAllEqual(t *testing.T) {
	x := []float64{4, 4, 4}
	if _, p := WilcoxonSignedRank(x, x); p != nil {
		t.Errorf("Expected nil p-value for identical samples, got %v", *p)
	}
}

func TestWilcoxonSignedRankConsistentShift(t *testing.T) {
	// A uniform positive shift across 12 subjects: W = 0, decisively small p.
	x := make([]float64, 12)
	y := make([]float64, 12)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i) + 3
	}
	w, p := WilcoxonSignedRank(x, y)
	if w != 0 {
		t.Errorf("W = %v, want 0", w)
	}
	if p == nil {
		t.Fatal("Expected a p-value, got nil")
	}
	if *p >= 0.01 {
		t.Errorf("PValue = %v, want < 0.01", *p)
	}
}
