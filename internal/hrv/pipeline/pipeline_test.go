package pipeline

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
)

// syntheticPPG builds a plausible raw pulse waveform: gaussian systolic
// pulses around a 72 bpm rhythm with slow and respiratory-band period
// modulation, riding on baseline wander and out-of-band ripple.
func syntheticPPG(durationSec, fs float64) []float64 {
	n := int(durationSec * fs)
	out := make([]float64, n)
	for i := range out {
		ts := float64(i) / fs
		out[i] = 512 + 30*math.Sin(2*math.Pi*0.05*ts) + 2*math.Sin(2*math.Pi*12*ts)
	}

	const basePeriod = 60.0 / 72 // seconds per beat
	for bt := 0.5; bt < durationSec; {
		centre := int(bt * fs)
		for i := centre - 30; i <= centre+30; i++ {
			if i >= 0 && i < n {
				d := (float64(i)/fs - bt) / 0.06
				out[i] += 60 * math.Exp(-0.5*d*d)
			}
		}
		period := basePeriod * (1 + 0.03*math.Sin(2*math.Pi*0.25*bt) + 0.02*math.Sin(2*math.Pi*0.08*bt))
		bt += period
	}
	return out
}

func threeConditions(durationSec, fs float64) Input {
	return Input{
		hrv.Baseline:          syntheticPPG(durationSec, fs),
		hrv.FavoriteSong:      syntheticPPG(durationSec, fs),
		hrv.LeastFavoriteSong: syntheticPPG(durationSec, fs),
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := config.Default()
	fs := cfg.GetSampleRateHz()

	subjects := map[int]Input{
		1: threeConditions(150, fs),
		2: threeConditions(150, fs),
		3: threeConditions(150, fs),
	}

	result := NewRunner(cfg, 4).Run(subjects)

	if len(result.Failures) != 0 {
		t.Fatalf("Unexpected failures: %+v", result.Failures)
	}
	if len(result.Records) != 9 {
		t.Fatalf("Got %d records, want 9", len(result.Records))
	}

	for _, rec := range result.Records {
		if math.Abs(rec.MeanHRBPM-72) > 1.5 {
			t.Errorf("Subject %d %s: mean HR = %v bpm, want ~72",
				rec.SubjectID, rec.Condition, rec.MeanHRBPM)
		}
		if rec.NBeats < 130 || rec.NBeats > 148 {
			t.Errorf("Subject %d %s: NBeats = %d, want ~143",
				rec.SubjectID, rec.Condition, rec.NBeats)
		}
		if rec.SDNNMillis <= 0 || rec.RMSSDMillis <= 0 {
			t.Errorf("Subject %d %s: dispersion metrics not positive: %+v",
				rec.SubjectID, rec.Condition, rec)
		}
		if rec.LFHFRatio <= 0 {
			t.Errorf("Subject %d %s: LFHFRatio = %v", rec.SubjectID, rec.Condition, rec.LFHFRatio)
		}
	}

	if len(result.Classifications) != 3 {
		t.Fatalf("Got %d classifications, want 3", len(result.Classifications))
	}
	// Identical per-condition waveforms cannot move any metric.
	for _, c := range result.Classifications {
		if c.Label != hrv.NonResponsive {
			t.Errorf("Subject %d: label = %s, want %s", c.SubjectID, c.Label, hrv.NonResponsive)
		}
	}

	if len(result.Group.ANOVA) != len(hrv.MetricNames) {
		t.Errorf("Got %d group test results, want %d", len(result.Group.ANOVA), len(hrv.MetricNames))
	}
	for _, a := range result.Group.ANOVA {
		if a.NSubjects != 3 {
			t.Errorf("%s: NSubjects = %d, want 3", a.Metric, a.NSubjects)
		}
	}
}

func TestRunFailureIsolation(t *testing.T) {
	cfg := config.Default()
	fs := cfg.GetSampleRateHz()

	good := threeConditions(150, fs)
	bad := Input{
		hrv.Baseline:          syntheticPPG(150, fs),
		hrv.FavoriteSong:      syntheticPPG(50, fs), // too short to segment
		hrv.LeastFavoriteSong: syntheticPPG(150, fs),
	}
	subjects := map[int]Input{1: good, 2: bad}

	result := NewRunner(cfg, 2).Run(subjects)

	// Subject 2 loses one recording and therefore its classification, but
	// subject 1 must be untouched.
	if len(result.Records) != 5 {
		t.Fatalf("Got %d records, want 5", len(result.Records))
	}
	if len(result.Classifications) != 1 || result.Classifications[0].SubjectID != 1 {
		t.Fatalf("Expected only subject 1 classified, got %+v", result.Classifications)
	}

	var condFailure, classifyFailure bool
	for _, f := range result.Failures {
		if f.SubjectID != 2 {
			t.Errorf("Unexpected failure for subject %d: %+v", f.SubjectID, f)
		}
		switch f.Stage {
		case "condition":
			condFailure = true
		case "classify":
			classifyFailure = true
		}
	}
	if !condFailure || !classifyFailure {
		t.Errorf("Expected condition and classify failures for subject 2, got %+v", result.Failures)
	}

	if len(result.Group.Excluded) != 1 || result.Group.Excluded[0].SubjectID != 2 {
		t.Errorf("Expected subject 2 excluded from group analysis, got %+v", result.Group.Excluded)
	}
}

func TestRunDeterministic(t *testing.T) {
	cfg := config.Default()
	fs := cfg.GetSampleRateHz()
	subjects := map[int]Input{
		1: threeConditions(150, fs),
		2: threeConditions(150, fs),
	}

	first := NewRunner(cfg, 3).Run(subjects)
	second := NewRunner(cfg, 1).Run(subjects)

	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Errorf("Records differ across runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Classifications, second.Classifications); diff != "" {
		t.Errorf("Classifications differ across runs (-first +second):\n%s", diff)
	}
}

func TestRunEmptyBatch(t *testing.T) {
	cfg := config.Default()
	result := NewRunner(cfg, 2).Run(nil)
	if len(result.Records) != 0 || len(result.Classifications) != 0 {
		t.Errorf("Empty batch should produce an empty result, got %+v", result)
	}
}
