// Package export writes analysis results to CSV files: detailed
// per-recording metrics, a wide per-subject table, group summary
// statistics, significance test results, and subject classifications.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/stats"
)

// Filenames used by WriteAll under the output directory.
const (
	DetailedFile        = "hrv_results_detailed.csv"
	WideFile            = "hrv_results_wide.csv"
	SummaryFile         = "hrv_results_group_summary.csv"
	ANOVAFile           = "anova_results.csv"
	ClassificationsFile = "subject_classifications.csv"
)

// WriteAll writes every result table into dir, creating it if needed.
func WriteAll(dir string, records []hrv.MetricRecord, report stats.GroupReport, classifications []hrv.Classification) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := WriteDetailed(filepath.Join(dir, DetailedFile), records); err != nil {
		return err
	}
	if err := WriteWide(filepath.Join(dir, WideFile), records); err != nil {
		return err
	}
	if err := WriteGroupSummary(filepath.Join(dir, SummaryFile), report.Stats); err != nil {
		return err
	}
	if err := WriteANOVA(filepath.Join(dir, ANOVAFile), report.ANOVA); err != nil {
		return err
	}
	return WriteClassifications(filepath.Join(dir, ClassificationsFile), classifications)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// WriteDetailed writes one row per subject-condition record.
func WriteDetailed(path string, records []hrv.MetricRecord) error {
	rows := [][]string{{
		"subject_id", "condition", "n_beats",
		"mean_hr_bpm", "sdnn_ms", "rmssd_ms", "lf_hf_ratio", "pulse_amplitude",
	}}
	for _, r := range sortedRecords(records) {
		rows = append(rows, []string{
			strconv.Itoa(r.SubjectID),
			string(r.Condition),
			strconv.Itoa(r.NBeats),
			formatFloat(r.MeanHRBPM),
			formatFloat(r.SDNNMillis),
			formatFloat(r.RMSSDMillis),
			formatFloat(r.LFHFRatio),
			formatFloat(r.PulseAmplitude),
		})
	}
	return writeCSV(path, rows)
}

// WriteWide writes one row per subject with condition-prefixed metric
// columns. Missing condition cells are left empty.
func WriteWide(path string, records []hrv.MetricRecord) error {
	header := []string{"subject_id"}
	for _, cond := range hrv.Conditions {
		for _, metric := range hrv.MetricNames {
			header = append(header, fmt.Sprintf("%s_%s", cond, metric))
		}
	}
	rows := [][]string{header}

	byKey := make(map[int]map[hrv.Condition]hrv.MetricRecord)
	var ids []int
	for _, r := range records {
		if byKey[r.SubjectID] == nil {
			byKey[r.SubjectID] = make(map[hrv.Condition]hrv.MetricRecord)
			ids = append(ids, r.SubjectID)
		}
		byKey[r.SubjectID][r.Condition] = r
	}
	sort.Ints(ids)

	for _, id := range ids {
		row := []string{strconv.Itoa(id)}
		for _, cond := range hrv.Conditions {
			rec, ok := byKey[id][cond]
			for _, metric := range hrv.MetricNames {
				if !ok {
					row = append(row, "")
					continue
				}
				row = append(row, formatFloat(rec.Metric(metric)))
			}
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

// WriteGroupSummary writes the per-metric per-condition descriptives.
func WriteGroupSummary(path string, groupStats []hrv.GroupStat) error {
	rows := [][]string{{"metric", "condition", "n", "mean", "std", "sem"}}
	for _, s := range groupStats {
		rows = append(rows, []string{
			string(s.Metric),
			string(s.Condition),
			strconv.Itoa(s.N),
			formatFloat(s.Mean),
			formatFloat(s.Std),
			formatFloat(s.SEM),
		})
	}
	return writeCSV(path, rows)
}

// WriteANOVA writes the repeated-measures test results. An undefined
// p-value is written as an empty cell, never as a number.
func WriteANOVA(path string, results []hrv.ANOVAResult) error {
	rows := [][]string{{
		"metric", "n_subjects",
		"baseline_mean", "favorite_song_mean", "least_favorite_song_mean",
		"chi_square", "p_value", "significant",
	}}
	for _, r := range results {
		p := ""
		if r.PValue != nil {
			p = formatFloat(*r.PValue)
		}
		rows = append(rows, []string{
			string(r.Metric),
			strconv.Itoa(r.NSubjects),
			formatFloat(r.ConditionMeans[hrv.Baseline]),
			formatFloat(r.ConditionMeans[hrv.FavoriteSong]),
			formatFloat(r.ConditionMeans[hrv.LeastFavoriteSong]),
			formatFloat(r.ChiSquare),
			p,
			strconv.FormatBool(r.Significant),
		})
	}
	return writeCSV(path, rows)
}

// WriteClassifications writes one row per subject with the label, the
// changed-metric count, and the per-metric percent changes.
func WriteClassifications(path string, classifications []hrv.Classification) error {
	header := []string{"subject_id", "label", "n_significant_metrics", "excluded_metrics"}
	for _, metric := range hrv.MetricNames {
		header = append(header,
			fmt.Sprintf("%s_favorite_change_pct", metric),
			fmt.Sprintf("%s_least_favorite_change_pct", metric),
			fmt.Sprintf("%s_effect", metric),
		)
	}
	rows := [][]string{header}

	for _, c := range classifications {
		excluded := ""
		for i, m := range c.ExcludedMetrics {
			if i > 0 {
				excluded += ";"
			}
			excluded += string(m)
		}
		row := []string{
			strconv.Itoa(c.SubjectID),
			string(c.Label),
			strconv.Itoa(c.NSignificantMetrics),
			excluded,
		}
		changeBy := make(map[hrv.MetricName]hrv.MetricChange, len(c.Changes))
		for _, ch := range c.Changes {
			changeBy[ch.Metric] = ch
		}
		for _, metric := range hrv.MetricNames {
			ch, ok := changeBy[metric]
			if !ok {
				row = append(row, "", "", "")
				continue
			}
			row = append(row,
				formatFloat(ch.FavoritePercent),
				formatFloat(ch.LeastFavPercent),
				string(ch.Effect),
			)
		}
		rows = append(rows, row)
	}
	return writeCSV(path, rows)
}

func sortedRecords(records []hrv.MetricRecord) []hrv.MetricRecord {
	out := make([]hrv.MetricRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubjectID != out[j].SubjectID {
			return out[i].SubjectID < out[j].SubjectID
		}
		return out[i].Condition < out[j].Condition
	})
	return out
}
