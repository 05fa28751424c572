package units

import (
	"math"
	"testing"
)

func TestBPMFromIBIMillis(t *testing.T) {
	tests := []struct {
		name      string
		ibiMillis float64
		expected  float64
	}{
		{"resting rate", 1000.0, 60.0},
		{"72 bpm", 833.3333333, 72.0},
		{"tachycardic", 500.0, 120.0},
		{"bradycardic", 1500.0, 40.0},
		{"zero interval", 0.0, 0.0},
		{"negative interval", -100.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := BPMFromIBIMillis(tt.ibiMillis)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("BPMFromIBIMillis(%f) = %f, want %f", tt.ibiMillis, result, tt.expected)
			}
		})
	}
}

func TestIBIMillisFromBPM(t *testing.T) {
	tests := []struct {
		name     string
		bpm      float64
		expected float64
	}{
		{"60 bpm", 60.0, 1000.0},
		{"72 bpm", 72.0, 833.333333},
		{"zero rate", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IBIMillisFromBPM(tt.bpm)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("IBIMillisFromBPM(%f) = %f, want %f", tt.bpm, result, tt.expected)
			}
		})
	}
}

func TestBPMConversionsRoundTrip(t *testing.T) {
	for _, bpm := range []float64{40, 60, 72, 100, 180} {
		if got := BPMFromIBIMillis(IBIMillisFromBPM(bpm)); math.Abs(got-bpm) > 1e-9 {
			t.Errorf("Round trip of %f bpm = %f", bpm, got)
		}
	}
}

func TestMillisFromSamples(t *testing.T) {
	tests := []struct {
		name         string
		samples      int
		sampleRateHz float64
		expected     float64
	}{
		{"one second at 100 Hz", 100, 100.0, 1000.0},
		{"83 samples at 100 Hz", 83, 100.0, 830.0},
		{"one sample at 250 Hz", 1, 250.0, 4.0},
		{"zero samples", 0, 100.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MillisFromSamples(tt.samples, tt.sampleRateHz)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("MillisFromSamples(%d, %f) = %f, want %f", tt.samples, tt.sampleRateHz, result, tt.expected)
			}
		})
	}
}

func TestSamplesFromSeconds(t *testing.T) {
	tests := []struct {
		name         string
		seconds      float64
		sampleRateHz float64
		expected     int
	}{
		{"two minutes at 100 Hz", 120.0, 100.0, 12000},
		{"half second at 100 Hz", 0.5, 100.0, 50},
		{"rounds to nearest sample", 0.4, 100.0, 40},
		{"rounds up from half", 0.125, 100.0, 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SamplesFromSeconds(tt.seconds, tt.sampleRateHz)
			if result != tt.expected {
				t.Errorf("SamplesFromSeconds(%f, %f) = %d, want %d", tt.seconds, tt.sampleRateHz, result, tt.expected)
			}
		})
	}
}

func TestSecondsFromMillis(t *testing.T) {
	if got := SecondsFromMillis(833.0); math.Abs(got-0.833) > 1e-12 {
		t.Errorf("SecondsFromMillis(833) = %f, want 0.833", got)
	}
}
