package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/pipeline"
	"github.com/banshee-data/pulse.report/internal/hrv/stats"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult() pipeline.Result {
	p := 0.02
	return pipeline.Result{
		Records: []hrv.MetricRecord{
			{SubjectID: 1, Condition: hrv.Baseline, NBeats: 144, MeanHRBPM: 72, SDNNMillis: 50, RMSSDMillis: 40, LFHFRatio: 1.5, PulseAmplitude: 2},
			{SubjectID: 1, Condition: hrv.FavoriteSong, NBeats: 150, MeanHRBPM: 78, SDNNMillis: 46, RMSSDMillis: 37, LFHFRatio: 2.1, PulseAmplitude: 2.3},
			{SubjectID: 2, Condition: hrv.Baseline, NBeats: 138, MeanHRBPM: 65, SDNNMillis: 60, RMSSDMillis: 48, LFHFRatio: 1.1, PulseAmplitude: 1.8},
		},
		Group: stats.GroupReport{
			ANOVA: []hrv.ANOVAResult{
				{
					Metric:    hrv.MetricMeanHR,
					NSubjects: 2,
					ConditionMeans: map[hrv.Condition]float64{
						hrv.Baseline: 68.5, hrv.FavoriteSong: 78, hrv.LeastFavoriteSong: 70,
					},
					ChiSquare:   8.2,
					PValue:      &p,
					Significant: true,
				},
				{
					Metric:         hrv.MetricSDNN,
					NSubjects:      2,
					ConditionMeans: map[hrv.Condition]float64{},
					// Test skipped upstream: PValue stays nil.
				},
			},
		},
		Classifications: []hrv.Classification{
			{SubjectID: 1, Label: hrv.Responsive, NSignificantMetrics: 2},
		},
		Failures: []pipeline.Failure{
			{SubjectID: 2, Condition: hrv.FavoriteSong, Stage: "condition", Message: "favorite_song condition: insufficient data"},
		},
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.MigrateUp())

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}

func TestSaveRunRoundTrip(t *testing.T) {
	db := testDB(t)

	runID, err := db.SaveRun("capture_2024.csv", sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "capture_2024.csv", runs[0].Source)
	assert.Equal(t, 2, runs[0].NSubjects)
	assert.False(t, runs[0].CreatedAt.IsZero())

	records, err := db.RecordsForRun(runID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 1, records[0].SubjectID)
	assert.Equal(t, hrv.Baseline, records[0].Condition)
	assert.Equal(t, 144, records[0].NBeats)
	assert.InDelta(t, 72.0, records[0].MeanHRBPM, 1e-9)
	assert.InDelta(t, 1.5, records[0].LFHFRatio, 1e-9)
}

func TestSaveRunStoresNullPValue(t *testing.T) {
	db := testDB(t)
	runID, err := db.SaveRun("capture.csv", sampleResult())
	require.NoError(t, err)

	var p *float64
	err = db.QueryRow(
		`SELECT p_value FROM anova_results WHERE run_id = ? AND metric = ?`,
		runID, string(hrv.MetricSDNN),
	).Scan(&p)
	require.NoError(t, err)
	assert.Nil(t, p, "skipped test must store NULL, not a number")

	err = db.QueryRow(
		`SELECT p_value FROM anova_results WHERE run_id = ? AND metric = ?`,
		runID, string(hrv.MetricMeanHR),
	).Scan(&p)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, 0.02, *p, 1e-9)
}

func TestSaveRunStoresFailures(t *testing.T) {
	db := testDB(t)
	runID, err := db.SaveRun("capture.csv", sampleResult())
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM failures WHERE run_id = ?`, runID).Scan(&count))
	assert.Equal(t, 1, count)

	var stage string
	require.NoError(t, db.QueryRow(
		`SELECT stage FROM failures WHERE run_id = ?`, runID).Scan(&stage))
	assert.Equal(t, "condition", stage)
}

func TestMultipleRunsStayIsolated(t *testing.T) {
	db := testDB(t)

	first, err := db.SaveRun("first.csv", sampleResult())
	require.NoError(t, err)
	second, err := db.SaveRun("second.csv", sampleResult())
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	runs, err := db.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	records, err := db.RecordsForRun(first)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRecordsForUnknownRun(t *testing.T) {
	db := testDB(t)
	records, err := db.RecordsForRun("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, records)
}
