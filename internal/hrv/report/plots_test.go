package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/metrics"
)

func TestSavePeakPlot(t *testing.T) {
	const fs = 100.0
	n := int(30 * fs)
	samples := make([]float64, n)
	var peaks hrv.PeakSet
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 1.2 * float64(i) / fs)
	}
	for i := 60; i < n; i += 83 {
		peaks = append(peaks, i)
	}

	dir := t.TempDir()
	sig := hrv.ConditionedSignal{Samples: samples, SampleRate: fs}
	if err := SavePeakPlot(dir, "subject_1_baseline", sig, peaks, 10); err != nil {
		t.Fatalf("SavePeakPlot failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "peaks_subject_1_baseline.png"))
	if err != nil {
		t.Fatalf("Stat plot file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Peak plot file is empty")
	}
}

func TestSavePeriodogramPlot(t *testing.T) {
	psd := metrics.Periodogram{
		Freqs: make([]float64, 100),
		Power: make([]float64, 100),
	}
	for i := range psd.Freqs {
		psd.Freqs[i] = float64(i) * 0.01
		psd.Power[i] = math.Exp(-math.Pow(psd.Freqs[i]-0.25, 2) / 0.005)
	}

	dir := t.TempDir()
	if err := SavePeriodogramPlot(dir, "subject_1_baseline", psd, 0.04, 0.15, 0.4); err != nil {
		t.Fatalf("SavePeriodogramPlot failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "psd_subject_1_baseline.png"))
	if err != nil {
		t.Fatalf("Stat plot file: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Periodogram plot file is empty")
	}
}
