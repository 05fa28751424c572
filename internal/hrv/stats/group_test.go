package stats

import (
	"math"
	"testing"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
)

func record(subject int, cond hrv.Condition, hr float64) hrv.MetricRecord {
	return hrv.MetricRecord{
		SubjectID:      subject,
		Condition:      cond,
		NBeats:         100,
		MeanHRBPM:      hr,
		SDNNMillis:     50,
		RMSSDMillis:    40,
		LFHFRatio:      1.5,
		PulseAmplitude: 2.0,
	}
}

func findANOVA(t *testing.T, report GroupReport, metric hrv.MetricName) hrv.ANOVAResult {
	t.Helper()
	for _, a := range report.ANOVA {
		if a.Metric == metric {
			return a
		}
	}
	t.Fatalf("No test result for metric %s", metric)
	return hrv.ANOVAResult{}
}

func findStat(t *testing.T, report GroupReport, metric hrv.MetricName, cond hrv.Condition) hrv.GroupStat {
	t.Helper()
	for _, s := range report.Stats {
		if s.Metric == metric && s.Condition == cond {
			return s
		}
	}
	t.Fatalf("No group stat for %s/%s", metric, cond)
	return hrv.GroupStat{}
}

func TestAnalyzeDescriptives(t *testing.T) {
	cfg := config.Default()
	var records []hrv.MetricRecord
	// Four complete subjects with heart rates 70, 72, 74, 76 at baseline
	// and a consistent +6 bpm under the favourite song.
	for i := 0; i < 4; i++ {
		hr := 70 + 2*float64(i)
		records = append(records,
			record(i+1, hrv.Baseline, hr),
			record(i+1, hrv.FavoriteSong, hr+6),
			record(i+1, hrv.LeastFavoriteSong, hr+1),
		)
	}

	report := Analyze(records, cfg)

	base := findStat(t, report, hrv.MetricMeanHR, hrv.Baseline)
	if base.N != 4 {
		t.Errorf("Baseline N = %d, want 4", base.N)
	}
	if math.Abs(base.Mean-73) > 1e-9 {
		t.Errorf("Baseline mean HR = %v, want 73", base.Mean)
	}
	// Sample std of {70, 72, 74, 76}.
	wantStd := math.Sqrt(20.0 / 3)
	if math.Abs(base.Std-wantStd) > 1e-9 {
		t.Errorf("Baseline std = %v, want %v", base.Std, wantStd)
	}
	if math.Abs(base.SEM-wantStd/2) > 1e-9 {
		t.Errorf("Baseline SEM = %v, want %v", base.SEM, wantStd/2)
	}

	fav := findStat(t, report, hrv.MetricMeanHR, hrv.FavoriteSong)
	if math.Abs(fav.Mean-79) > 1e-9 {
		t.Errorf("Favourite-song mean HR = %v, want 79", fav.Mean)
	}

	hr := findANOVA(t, report, hrv.MetricMeanHR)
	if hr.NSubjects != 4 {
		t.Errorf("NSubjects = %d, want 4", hr.NSubjects)
	}
	if hr.PValue == nil {
		t.Fatal("Expected a p-value for mean HR")
	}
	if math.Abs(hr.ConditionMeans[hrv.Baseline]-73) > 1e-9 {
		t.Errorf("ConditionMeans[baseline] = %v, want 73", hr.ConditionMeans[hrv.Baseline])
	}
}

func TestAnalyzeSignificantWithPostHoc(t *testing.T) {
	cfg := config.Default()
	var records []hrv.MetricRecord
	// Ten subjects with a perfectly consistent ordering: chi-square 20,
	// p = exp(-10), comfortably below alpha.
	for i := 0; i < 10; i++ {
		hr := 65 + float64(i)
		records = append(records,
			record(i+1, hrv.Baseline, hr),
			record(i+1, hrv.FavoriteSong, hr+8),
			record(i+1, hrv.LeastFavoriteSong, hr+4),
		)
	}

	report := Analyze(records, cfg)
	hr := findANOVA(t, report, hrv.MetricMeanHR)
	if !hr.Significant {
		t.Fatal("Expected mean HR to be significant")
	}
	if len(hr.PostHoc) != 3 {
		t.Fatalf("Expected 3 pairwise post-hocs, got %d", len(hr.PostHoc))
	}
	for _, pair := range hr.PostHoc {
		if pair.PValue == nil {
			t.Errorf("Post-hoc %s vs %s has nil p-value", pair.A, pair.B)
		}
	}

	// SDNN is constant in these fixtures: not significant, no post-hocs.
	sdnn := findANOVA(t, report, hrv.MetricSDNN)
	if sdnn.Significant {
		t.Error("Constant SDNN should not be significant")
	}
	if sdnn.PostHoc != nil {
		t.Error("Non-significant metric should carry no post-hocs")
	}
}

func TestAnalyzeZeroVarianceMetric(t *testing.T) {
	cfg := config.Default()
	var records []hrv.MetricRecord
	for i := 0; i < 5; i++ {
		for _, c := range hrv.Conditions {
			records = append(records, record(i+1, c, 72))
		}
	}

	report := Analyze(records, cfg)
	hr := findANOVA(t, report, hrv.MetricMeanHR)
	if hr.PValue != nil {
		t.Errorf("Expected nil p-value for a zero-variance metric, got %v", *hr.PValue)
	}
	if hr.Significant {
		t.Error("Zero-variance metric must not be significant")
	}
}

func TestAnalyzeExcludesIncompleteSubjects(t *testing.T) {
	cfg := config.Default()
	records := []hrv.MetricRecord{
		record(1, hrv.Baseline, 70),
		record(1, hrv.FavoriteSong, 75),
		record(1, hrv.LeastFavoriteSong, 72),
		record(2, hrv.Baseline, 68),
		record(2, hrv.FavoriteSong, 71),
		record(2, hrv.LeastFavoriteSong, 69),
		// Subject 3 lost its least-favourite recording upstream.
		record(3, hrv.Baseline, 80),
		record(3, hrv.FavoriteSong, 85),
	}

	report := Analyze(records, cfg)
	if len(report.Excluded) != 1 {
		t.Fatalf("Expected 1 excluded subject, got %d", len(report.Excluded))
	}
	if report.Excluded[0].SubjectID != 3 {
		t.Errorf("Excluded subject = %d, want 3", report.Excluded[0].SubjectID)
	}
	if len(report.Excluded[0].Missing) != 1 || report.Excluded[0].Missing[0] != hrv.LeastFavoriteSong {
		t.Errorf("Missing conditions = %v, want [least_favorite_song]", report.Excluded[0].Missing)
	}

	hr := findANOVA(t, report, hrv.MetricMeanHR)
	if hr.NSubjects != 2 {
		t.Errorf("NSubjects = %d, want 2 after exclusion", hr.NSubjects)
	}
	base := findStat(t, report, hrv.MetricMeanHR, hrv.Baseline)
	if math.Abs(base.Mean-69) > 1e-9 {
		t.Errorf("Baseline mean = %v, want 69 (subject 3 excluded)", base.Mean)
	}
}
