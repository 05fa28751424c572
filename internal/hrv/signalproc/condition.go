// Package signalproc conditions raw PPG waveforms for beat detection:
// it extracts the middle fixed-duration segment, band-limits it with a
// zero-phase Butterworth filter, and z-score normalises the result.
package signalproc

import (
	"fmt"
	"math"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/units"
)

// ExtractSegment returns the middle window of the given duration from the
// raw waveform. Returns hrv.ErrInsufficientData when the waveform is
// shorter than the requested duration.
func ExtractSegment(raw []float64, durationSec, sampleRateHz float64) ([]float64, error) {
	target := units.SamplesFromSeconds(durationSec, sampleRateHz)
	if len(raw) < target {
		return nil, fmt.Errorf("%w: have %d samples, need %d", hrv.ErrInsufficientData, len(raw), target)
	}
	start := (len(raw) - target) / 2
	seg := make([]float64, target)
	copy(seg, raw[start:start+target])
	return seg, nil
}

// Normalize z-scores the signal, returning a new slice with mean 0 and
// unit variance. Returns hrv.ErrDegenerateSignal for flat-line input.
func Normalize(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("%w: empty signal", hrv.ErrDegenerateSignal)
	}
	var sum float64
	for _, v := range signal {
		sum += v
	}
	mean := sum / float64(len(signal))

	var sq float64
	for _, v := range signal {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(signal)))
	if std == 0 {
		return nil, fmt.Errorf("%w: standard deviation is zero", hrv.ErrDegenerateSignal)
	}

	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = (v - mean) / std
	}
	return out, nil
}

// Condition runs the full conditioning chain on a raw waveform: middle
// segment extraction, band-pass filtering, and z-score normalisation.
// The transform is pure; the input slice is not modified.
func Condition(raw []float64, cfg *config.AnalysisConfig) (hrv.ConditionedSignal, error) {
	fs := cfg.GetSampleRateHz()

	segment, err := ExtractSegment(raw, cfg.GetSegmentDurationSec(), fs)
	if err != nil {
		return hrv.ConditionedSignal{}, err
	}

	filter, err := DesignBandPass(cfg.GetFilterOrder(), cfg.GetFilterLowCutHz(), cfg.GetFilterHighCutHz(), fs)
	if err != nil {
		return hrv.ConditionedSignal{}, fmt.Errorf("band-pass design: %w", err)
	}
	filtered, err := filter.FiltFilt(segment)
	if err != nil {
		return hrv.ConditionedSignal{}, fmt.Errorf("band-pass filter: %w", err)
	}

	normalized, err := Normalize(filtered)
	if err != nil {
		return hrv.ConditionedSignal{}, err
	}

	return hrv.ConditionedSignal{Samples: normalized, SampleRate: fs}, nil
}
