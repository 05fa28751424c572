// Package config holds the analysis tuning parameters for the PPG-HRV
// pipeline. All parameters are externally overridable via a JSON file;
// fields omitted from the JSON keep their documented defaults, so
// partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// AnalysisConfig represents the root configuration for the analysis
// pipeline. Pointer fields distinguish "not set" from an explicit zero.
type AnalysisConfig struct {
	// Signal conditioning params
	SampleRateHz       *float64 `json:"sample_rate_hz,omitempty"`
	SegmentDurationSec *float64 `json:"segment_duration_sec,omitempty"`
	FilterLowCutHz     *float64 `json:"filter_low_cut_hz,omitempty"`
	FilterHighCutHz    *float64 `json:"filter_high_cut_hz,omitempty"`
	FilterOrder        *int     `json:"filter_order,omitempty"`

	// Beat detection params
	MinPeakDistanceSec   *float64 `json:"min_peak_distance_sec,omitempty"`
	PeakHeightPercentile *float64 `json:"peak_height_percentile,omitempty"`
	PeakProminence       *float64 `json:"peak_prominence,omitempty"`

	// IBI cleaning params
	MinIBIMillis     *float64 `json:"min_ibi_ms,omitempty"`
	MaxIBIMillis     *float64 `json:"max_ibi_ms,omitempty"`
	MaxIBIChange     *float64 `json:"max_ibi_change,omitempty"` // fraction, e.g. 0.2
	MinValidBeats    *int     `json:"min_valid_beats,omitempty"`
	MinDetectedPeaks *int     `json:"min_detected_peaks,omitempty"`

	// Frequency-domain params
	ResampleRateHz *float64 `json:"resample_rate_hz,omitempty"`
	LFBandLowHz    *float64 `json:"lf_band_low_hz,omitempty"`
	LFBandHighHz   *float64 `json:"lf_band_high_hz,omitempty"`
	HFBandLowHz    *float64 `json:"hf_band_low_hz,omitempty"`
	HFBandHighHz   *float64 `json:"hf_band_high_hz,omitempty"`

	// Statistics params
	Alpha *float64 `json:"alpha,omitempty"`

	// Responsiveness classification params
	ChangePercentThreshold   *float64 `json:"change_percent_threshold,omitempty"`
	HighlyResponsiveMetrics  *int     `json:"highly_responsive_metrics,omitempty"`
	ResponsiveMetrics        *int     `json:"responsive_metrics,omitempty"`
	ArtifactAmplitudeMaximum *float64 `json:"artifact_amplitude_maximum,omitempty"`
}

// Default returns an AnalysisConfig with all fields unset; the Get*
// accessors supply the documented defaults.
func Default() *AnalysisConfig {
	return &AnalysisConfig{}
}

// Load reads an AnalysisConfig from a JSON file and validates it.
func Load(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configured values are usable by the pipeline.
func (c *AnalysisConfig) Validate() error {
	if c.SampleRateHz != nil && *c.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive, got %f", *c.SampleRateHz)
	}
	if c.SegmentDurationSec != nil && *c.SegmentDurationSec <= 0 {
		return fmt.Errorf("segment_duration_sec must be positive, got %f", *c.SegmentDurationSec)
	}
	if c.FilterOrder != nil && *c.FilterOrder < 1 {
		return fmt.Errorf("filter_order must be at least 1, got %d", *c.FilterOrder)
	}

	low, high := c.GetFilterLowCutHz(), c.GetFilterHighCutHz()
	if low <= 0 || high <= low {
		return fmt.Errorf("filter band must satisfy 0 < low < high, got [%f, %f]", low, high)
	}
	if nyquist := c.GetSampleRateHz() / 2; high >= nyquist {
		return fmt.Errorf("filter high cut %f Hz must be below the Nyquist frequency %f Hz", high, nyquist)
	}

	if c.PeakHeightPercentile != nil {
		if *c.PeakHeightPercentile < 0 || *c.PeakHeightPercentile > 100 {
			return fmt.Errorf("peak_height_percentile must be in [0, 100], got %f", *c.PeakHeightPercentile)
		}
	}
	if c.MaxIBIChange != nil {
		if *c.MaxIBIChange <= 0 || *c.MaxIBIChange >= 1 {
			return fmt.Errorf("max_ibi_change must be a fraction in (0, 1), got %f", *c.MaxIBIChange)
		}
	}
	if minIBI, maxIBI := c.GetMinIBIMillis(), c.GetMaxIBIMillis(); maxIBI <= minIBI {
		return fmt.Errorf("IBI bounds must satisfy min < max, got [%f, %f]", minIBI, maxIBI)
	}
	if c.Alpha != nil && (*c.Alpha <= 0 || *c.Alpha >= 1) {
		return fmt.Errorf("alpha must be in (0, 1), got %f", *c.Alpha)
	}
	return nil
}

// GetSampleRateHz returns the waveform sampling rate or the default (100 Hz).
func (c *AnalysisConfig) GetSampleRateHz() float64 {
	if c.SampleRateHz == nil {
		return 100
	}
	return *c.SampleRateHz
}

// GetSegmentDurationSec returns the analysis segment duration or the default (120 s).
func (c *AnalysisConfig) GetSegmentDurationSec() float64 {
	if c.SegmentDurationSec == nil {
		return 120
	}
	return *c.SegmentDurationSec
}

// GetFilterLowCutHz returns the band-pass low cutoff or the default (0.5 Hz).
func (c *AnalysisConfig) GetFilterLowCutHz() float64 {
	if c.FilterLowCutHz == nil {
		return 0.5
	}
	return *c.FilterLowCutHz
}

// GetFilterHighCutHz returns the band-pass high cutoff or the default (8.0 Hz).
func (c *AnalysisConfig) GetFilterHighCutHz() float64 {
	if c.FilterHighCutHz == nil {
		return 8.0
	}
	return *c.FilterHighCutHz
}

// GetFilterOrder returns the Butterworth order or the default (4).
func (c *AnalysisConfig) GetFilterOrder() int {
	if c.FilterOrder == nil {
		return 4
	}
	return *c.FilterOrder
}

// GetMinPeakDistanceSec returns the minimum peak spacing or the default (0.4 s).
func (c *AnalysisConfig) GetMinPeakDistanceSec() float64 {
	if c.MinPeakDistanceSec == nil {
		return 0.4
	}
	return *c.MinPeakDistanceSec
}

// GetPeakHeightPercentile returns the adaptive height percentile or the default (50).
func (c *AnalysisConfig) GetPeakHeightPercentile() float64 {
	if c.PeakHeightPercentile == nil {
		return 50
	}
	return *c.PeakHeightPercentile
}

// GetPeakProminence returns the minimum peak prominence or the default (0.3).
func (c *AnalysisConfig) GetPeakProminence() float64 {
	if c.PeakProminence == nil {
		return 0.3
	}
	return *c.PeakProminence
}

// GetMinIBIMillis returns the lower physiological IBI bound or the default (400 ms).
func (c *AnalysisConfig) GetMinIBIMillis() float64 {
	if c.MinIBIMillis == nil {
		return 400
	}
	return *c.MinIBIMillis
}

// GetMaxIBIMillis returns the upper physiological IBI bound or the default (1500 ms).
func (c *AnalysisConfig) GetMaxIBIMillis() float64 {
	if c.MaxIBIMillis == nil {
		return 1500
	}
	return *c.MaxIBIMillis
}

// GetMaxIBIChange returns the maximum beat-to-beat change fraction or the default (0.2).
func (c *AnalysisConfig) GetMaxIBIChange() float64 {
	if c.MaxIBIChange == nil {
		return 0.2
	}
	return *c.MaxIBIChange
}

// GetMinValidBeats returns the minimum cleaned IBI count or the default (5).
func (c *AnalysisConfig) GetMinValidBeats() int {
	if c.MinValidBeats == nil {
		return 5
	}
	return *c.MinValidBeats
}

// GetMinDetectedPeaks returns the minimum raw peak count or the default (10).
func (c *AnalysisConfig) GetMinDetectedPeaks() int {
	if c.MinDetectedPeaks == nil {
		return 10
	}
	return *c.MinDetectedPeaks
}

// GetResampleRateHz returns the IBI resampling rate for spectral
// estimation or the default (4 Hz).
func (c *AnalysisConfig) GetResampleRateHz() float64 {
	if c.ResampleRateHz == nil {
		return 4
	}
	return *c.ResampleRateHz
}

// GetLFBandLowHz returns the LF band lower edge or the default (0.04 Hz).
func (c *AnalysisConfig) GetLFBandLowHz() float64 {
	if c.LFBandLowHz == nil {
		return 0.04
	}
	return *c.LFBandLowHz
}

// GetLFBandHighHz returns the LF band upper edge or the default (0.15 Hz).
func (c *AnalysisConfig) GetLFBandHighHz() float64 {
	if c.LFBandHighHz == nil {
		return 0.15
	}
	return *c.LFBandHighHz
}

// GetHFBandLowHz returns the HF band lower edge or the default (0.15 Hz).
func (c *AnalysisConfig) GetHFBandLowHz() float64 {
	if c.HFBandLowHz == nil {
		return 0.15
	}
	return *c.HFBandLowHz
}

// GetHFBandHighHz returns the HF band upper edge or the default (0.4 Hz).
func (c *AnalysisConfig) GetHFBandHighHz() float64 {
	if c.HFBandHighHz == nil {
		return 0.4
	}
	return *c.HFBandHighHz
}

// GetAlpha returns the significance threshold or the default (0.05).
func (c *AnalysisConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return 0.05
	}
	return *c.Alpha
}

// GetChangePercentThreshold returns the per-metric percent-change
// threshold for responsiveness or the default (10%).
func (c *AnalysisConfig) GetChangePercentThreshold() float64 {
	if c.ChangePercentThreshold == nil {
		return 10
	}
	return *c.ChangePercentThreshold
}

// GetHighlyResponsiveMetrics returns the changed-metric count for the
// HIGHLY_RESPONSIVE label or the default (3).
func (c *AnalysisConfig) GetHighlyResponsiveMetrics() int {
	if c.HighlyResponsiveMetrics == nil {
		return 3
	}
	return *c.HighlyResponsiveMetrics
}

// GetResponsiveMetrics returns the changed-metric count for the
// RESPONSIVE label or the default (2).
func (c *AnalysisConfig) GetResponsiveMetrics() int {
	if c.ResponsiveMetrics == nil {
		return 2
	}
	return *c.ResponsiveMetrics
}

// GetArtifactAmplitudeMaximum returns the raw-sample amplitude above
// which ingest treats a value as a sensor artifact, or the default (150).
func (c *AnalysisConfig) GetArtifactAmplitudeMaximum() float64 {
	if c.ArtifactAmplitudeMaximum == nil {
		return 150
	}
	return *c.ArtifactAmplitudeMaximum
}
