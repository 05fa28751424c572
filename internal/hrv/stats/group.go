package stats

import (
	"errors"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
)

// CoverageWarning reports a subject excluded from group analysis because
// one or more condition recordings were missing or failed upstream.
type CoverageWarning struct {
	SubjectID int             `json:"subject_id"`
	Missing   []hrv.Condition `json:"missing"`
}

// GroupReport is the full group-level output: descriptive statistics per
// metric per condition, one repeated-measures test per metric, and the
// list of subjects that had to be excluded.
type GroupReport struct {
	Stats    []hrv.GroupStat   `json:"stats"`
	ANOVA    []hrv.ANOVAResult `json:"anova"`
	Excluded []CoverageWarning `json:"excluded,omitempty"`
}

// Analyze groups the metric records by metric and condition, computes
// descriptive statistics, and runs the Friedman repeated-measures test
// per metric with Wilcoxon signed-rank post-hocs for significant metrics.
// Subjects missing any condition are excluded and reported, not fatal.
func Analyze(records []hrv.MetricRecord, cfg *config.AnalysisConfig) GroupReport {
	bySubject := make(map[int]map[hrv.Condition]hrv.MetricRecord)
	for _, r := range records {
		m, ok := bySubject[r.SubjectID]
		if !ok {
			m = make(map[hrv.Condition]hrv.MetricRecord, len(hrv.Conditions))
			bySubject[r.SubjectID] = m
		}
		m[r.Condition] = r
	}

	var report GroupReport
	complete := make([]int, 0, len(bySubject))
	for id, conds := range bySubject {
		var missing []hrv.Condition
		for _, c := range hrv.Conditions {
			if _, ok := conds[c]; !ok {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			report.Excluded = append(report.Excluded, CoverageWarning{SubjectID: id, Missing: missing})
			continue
		}
		complete = append(complete, id)
	}
	sort.Ints(complete)
	sort.Slice(report.Excluded, func(i, j int) bool {
		return report.Excluded[i].SubjectID < report.Excluded[j].SubjectID
	})
	for _, w := range report.Excluded {
		log.Printf("group analysis: excluding subject %d, missing %v", w.SubjectID, w.Missing)
	}

	alpha := cfg.GetAlpha()
	for _, metric := range hrv.MetricNames {
		// Values per condition, subject order fixed by `complete`.
		byCondition := make(map[hrv.Condition][]float64, len(hrv.Conditions))
		blocks := make([][]float64, 0, len(complete))
		for _, id := range complete {
			row := make([]float64, 0, len(hrv.Conditions))
			for _, c := range hrv.Conditions {
				v := bySubject[id][c].Metric(metric)
				byCondition[c] = append(byCondition[c], v)
				row = append(row, v)
			}
			blocks = append(blocks, row)
		}

		result := hrv.ANOVAResult{
			Metric:         metric,
			NSubjects:      len(complete),
			ConditionMeans: make(map[hrv.Condition]float64, len(hrv.Conditions)),
		}
		for _, c := range hrv.Conditions {
			values := byCondition[c]
			mean, std := stat.MeanStdDev(values, nil)
			if len(values) < 2 {
				std = 0
			}
			sem := 0.0
			if n := len(values); n > 0 {
				sem = std / math.Sqrt(float64(n))
			}
			report.Stats = append(report.Stats, hrv.GroupStat{
				Metric:    metric,
				Condition: c,
				N:         len(values),
				Mean:      mean,
				Std:       std,
				SEM:       sem,
			})
			result.ConditionMeans[c] = mean
		}

		if len(complete) >= 2 {
			chi, p, err := Friedman(blocks)
			switch {
			case errors.Is(err, ErrZeroVariance):
				// Identical values everywhere: skip the test, keep the
				// p-value undefined rather than a numeric artifact.
				log.Printf("group analysis: %s has zero variance, significance test skipped", metric)
			case err != nil:
				log.Printf("group analysis: %s friedman test failed: %v", metric, err)
			default:
				result.ChiSquare = chi
				result.PValue = &p
				result.Significant = p < alpha
			}
		}

		if result.Significant {
			result.PostHoc = posthocPairs(byCondition)
		}
		report.ANOVA = append(report.ANOVA, result)
	}

	return report
}

// posthocPairs runs the pairwise Wilcoxon tests between each pair of
// conditions. Results are informational; no multiplicity correction is
// applied here.
func posthocPairs(byCondition map[hrv.Condition][]float64) hrv.PairwiseResults {
	var out hrv.PairwiseResults
	for i := 0; i < len(hrv.Conditions); i++ {
		for j := i + 1; j < len(hrv.Conditions); j++ {
			a, b := hrv.Conditions[i], hrv.Conditions[j]
			w, p := WilcoxonSignedRank(byCondition[a], byCondition[b])
			out = append(out, hrv.PairwiseResult{A: a, B: b, W: w, PValue: p})
		}
	}
	return out
}
