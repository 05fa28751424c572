// Package db persists analysis runs and their results to sqlite so
// repeated analyses of the same cohort can be compared over time.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/pipeline"
)

// DB wraps the sqlite handle for the results store.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the results database at path and
// applies any pending migrations.
func NewDB(path string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	db := &DB{handle}
	if err := db.MigrateUp(); err != nil {
		handle.Close()
		return nil, err
	}
	return db, nil
}

// Run identifies one stored batch analysis.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source"`
	NSubjects int       `json:"n_subjects"`
}

// SaveRun stores a complete batch result under a fresh run ID and
// returns it. The insert is transactional; a partial run is never
// visible.
func (db *DB) SaveRun(source string, result pipeline.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	subjects := make(map[int]bool)
	for _, r := range result.Records {
		subjects[r.SubjectID] = true
	}

	if _, err := tx.Exec(
		`INSERT INTO analysis_runs (run_id, source, n_subjects) VALUES (?, ?, ?)`,
		runID, source, len(subjects),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, r := range result.Records {
		if _, err := tx.Exec(
			`INSERT INTO metric_records
				(run_id, subject_id, condition, n_beats, mean_hr_bpm, sdnn_ms, rmssd_ms, lf_hf_ratio, pulse_amplitude)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.SubjectID, string(r.Condition), r.NBeats,
			r.MeanHRBPM, r.SDNNMillis, r.RMSSDMillis, r.LFHFRatio, r.PulseAmplitude,
		); err != nil {
			return "", fmt.Errorf("insert metric record: %w", err)
		}
	}

	for _, a := range result.Group.ANOVA {
		var p interface{}
		if a.PValue != nil {
			p = *a.PValue
		}
		if _, err := tx.Exec(
			`INSERT INTO anova_results
				(run_id, metric, n_subjects, baseline_mean, favorite_mean, least_favorite_mean, chi_square, p_value, significant)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(a.Metric), a.NSubjects,
			a.ConditionMeans[hrv.Baseline], a.ConditionMeans[hrv.FavoriteSong], a.ConditionMeans[hrv.LeastFavoriteSong],
			a.ChiSquare, p, a.Significant,
		); err != nil {
			return "", fmt.Errorf("insert anova result: %w", err)
		}
	}

	for _, c := range result.Classifications {
		if _, err := tx.Exec(
			`INSERT INTO classifications (run_id, subject_id, label, n_significant_metrics)
				VALUES (?, ?, ?, ?)`,
			runID, c.SubjectID, string(c.Label), c.NSignificantMetrics,
		); err != nil {
			return "", fmt.Errorf("insert classification: %w", err)
		}
	}

	for _, f := range result.Failures {
		if _, err := tx.Exec(
			`INSERT INTO failures (run_id, subject_id, condition, stage, error)
				VALUES (?, ?, ?, ?, ?)`,
			runID, f.SubjectID, string(f.Condition), f.Stage, f.Message,
		); err != nil {
			return "", fmt.Errorf("insert failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// Runs lists stored analysis runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(
		`SELECT run_id, created_at, source, n_subjects FROM analysis_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.NSubjects); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordsForRun returns the metric records stored under runID.
func (db *DB) RecordsForRun(runID string) ([]hrv.MetricRecord, error) {
	rows, err := db.Query(
		`SELECT subject_id, condition, n_beats, mean_hr_bpm, sdnn_ms, rmssd_ms, lf_hf_ratio, pulse_amplitude
			FROM metric_records WHERE run_id = ? ORDER BY subject_id, condition`, runID)
	if err != nil {
		return nil, fmt.Errorf("query metric records: %w", err)
	}
	defer rows.Close()

	var out []hrv.MetricRecord
	for rows.Next() {
		var r hrv.MetricRecord
		var cond string
		if err := rows.Scan(&r.SubjectID, &cond, &r.NBeats,
			&r.MeanHRBPM, &r.SDNNMillis, &r.RMSSDMillis, &r.LFHFRatio, &r.PulseAmplitude); err != nil {
			return nil, fmt.Errorf("scan metric record: %w", err)
		}
		r.Condition = hrv.Condition(cond)
		out = append(out, r)
	}
	return out, rows.Err()
}
