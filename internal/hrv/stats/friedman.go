// Package stats aggregates per-subject metric records into group
// statistics and runs the repeated-measures significance tests across
// experimental conditions.
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrZeroVariance indicates every subject had identical values across all
// conditions, so a rank-based test carries no information. Callers report
// the metric as not significant with an undefined p-value.
var ErrZeroVariance = fmt.Errorf("zero variance across conditions")

// Friedman runs the Friedman rank-sum test on a blocked design: one row
// of values per subject, one column per condition. It returns the
// tie-corrected chi-square statistic and its p-value against a
// chi-squared distribution with k-1 degrees of freedom.
func Friedman(blocks [][]float64) (chiSquare, pValue float64, err error) {
	n := len(blocks)
	if n < 2 {
		return 0, 0, fmt.Errorf("friedman test needs at least 2 subjects, got %d", n)
	}
	k := len(blocks[0])
	if k < 2 {
		return 0, 0, fmt.Errorf("friedman test needs at least 2 conditions, got %d", k)
	}
	for _, row := range blocks {
		if len(row) != k {
			return 0, 0, fmt.Errorf("ragged block: got %d conditions, want %d", len(row), k)
		}
	}

	rankSums := make([]float64, k)
	var tieCorrection float64
	for _, row := range blocks {
		ranks, ties := rankWithTies(row)
		for j, r := range ranks {
			rankSums[j] += r
		}
		for _, t := range ties {
			tieCorrection += float64(t*t*t - t)
		}
	}

	var sumSq float64
	for _, r := range rankSums {
		sumSq += r * r
	}
	statistic := 12/(float64(n*k)*float64(k+1))*sumSq - 3*float64(n)*float64(k+1)

	// Tie correction shrinks the denominator; when every value in every
	// block is tied the test is undefined.
	c := 1 - tieCorrection/(float64(n*k)*float64(k*k-1))
	if c <= 0 {
		return 0, 0, ErrZeroVariance
	}
	statistic /= c

	dist := distuv.ChiSquared{K: float64(k - 1)}
	return statistic, dist.Survival(statistic), nil
}

// rankWithTies assigns average ranks (1-based) to the values of one block
// and reports the size of each tie group.
func rankWithTies(values []float64) (ranks []float64, tieSizes []int) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks = make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Average rank across the tie group [i, j].
		avg := (float64(i+1) + float64(j+1)) / 2
		for m := i; m <= j; m++ {
			ranks[idx[m]] = avg
		}
		if size := j - i + 1; size > 1 {
			tieSizes = append(tieSizes, size)
		}
		i = j + 1
	}
	return ranks, tieSizes
}
