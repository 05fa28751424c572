package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WilcoxonSignedRank runs the two-sided paired Wilcoxon signed-rank test
// on matched samples x and y using the normal approximation with tie
// correction. Zero differences are discarded. The second return is nil
// when the test is undefined (all differences zero).
func WilcoxonSignedRank(x, y []float64) (w float64, pValue *float64) {
	diffs := make([]float64, 0, len(x))
	for i := range x {
		if d := x[i] - y[i]; d != 0 {
			diffs = append(diffs, d)
		}
	}
	n := len(diffs)
	if n == 0 {
		return 0, nil
	}

	abs := make([]float64, n)
	for i, d := range diffs {
		abs[i] = math.Abs(d)
	}
	ranks, tieSizes := rankWithTies(abs)

	var wPlus, wMinus float64
	for i, d := range diffs {
		if d > 0 {
			wPlus += ranks[i]
		} else {
			wMinus += ranks[i]
		}
	}
	w = math.Min(wPlus, wMinus)

	mean := float64(n*(n+1)) / 4
	variance := float64(n*(n+1)*(2*n+1)) / 24
	for _, t := range tieSizes {
		variance -= float64(t*t*t-t) / 48
	}
	if variance <= 0 {
		return w, nil
	}

	z := (w - mean) / math.Sqrt(variance)
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * norm.CDF(z)
	if p > 1 {
		p = 1
	}
	return w, &p
}
