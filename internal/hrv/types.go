package hrv

// Condition identifies one of the three experimental recordings made for
// every subject.
type Condition string

const (
	Baseline          Condition = "baseline"
	FavoriteSong      Condition = "favorite_song"
	LeastFavoriteSong Condition = "least_favorite_song"
)

// Conditions lists the experimental conditions in protocol order.
var Conditions = []Condition{Baseline, FavoriteSong, LeastFavoriteSong}

// IsValid reports whether c is one of the known experimental conditions.
func (c Condition) IsValid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// ConditionedSignal is a fixed-duration segment after band-pass filtering
// and z-score normalisation. Samples have mean 0 and unit variance.
type ConditionedSignal struct {
	Samples    []float64
	SampleRate float64 // Hz
}

// PeakSet holds the sample indices of detected systolic peaks within a
// conditioned signal. Indices are strictly increasing and at least the
// configured minimum peak distance apart.
type PeakSet []int

// IBISeries holds inter-beat intervals in milliseconds, one per
// consecutive peak pair.
type IBISeries []float64

// Mean returns the arithmetic mean of the series, or 0 for an empty series.
func (s IBISeries) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// DurationSeconds returns the total time spanned by the series.
func (s IBISeries) DurationSeconds() float64 {
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / 1000
}

// MetricName identifies one of the five HRV metrics computed per recording.
type MetricName string

const (
	MetricMeanHR         MetricName = "mean_hr_bpm"
	MetricSDNN           MetricName = "sdnn_ms"
	MetricRMSSD          MetricName = "rmssd_ms"
	MetricLFHFRatio      MetricName = "lf_hf_ratio"
	MetricPulseAmplitude MetricName = "pulse_amplitude"
)

// MetricNames lists the five metrics in reporting order.
var MetricNames = []MetricName{
	MetricMeanHR, MetricSDNN, MetricRMSSD, MetricLFHFRatio, MetricPulseAmplitude,
}

// MetricRecord is the durable per-subject per-condition analysis result
// handed between the analysis and statistics stages. Immutable once
// created by the metric computer.
type MetricRecord struct {
	SubjectID      int       `json:"subject_id"`
	Condition      Condition `json:"condition"`
	NBeats         int       `json:"n_beats"`
	MeanHRBPM      float64   `json:"mean_hr_bpm"`
	SDNNMillis     float64   `json:"sdnn_ms"`
	RMSSDMillis    float64   `json:"rmssd_ms"`
	LFHFRatio      float64   `json:"lf_hf_ratio"`
	PulseAmplitude float64   `json:"pulse_amplitude"`
}

// Metric returns the named metric value from the record.
func (r MetricRecord) Metric(name MetricName) float64 {
	switch name {
	case MetricMeanHR:
		return r.MeanHRBPM
	case MetricSDNN:
		return r.SDNNMillis
	case MetricRMSSD:
		return r.RMSSDMillis
	case MetricLFHFRatio:
		return r.LFHFRatio
	case MetricPulseAmplitude:
		return r.PulseAmplitude
	}
	return 0
}

// GroupStat summarises one metric under one condition across subjects.
type GroupStat struct {
	Metric    MetricName `json:"metric"`
	Condition Condition  `json:"condition"`
	N         int        `json:"n"`
	Mean      float64    `json:"mean"`
	Std       float64    `json:"std"`
	SEM       float64    `json:"sem"`
}

// PairwiseResult is one post-hoc rank-based comparison between two
// conditions. PValue is nil when the test could not be run (for example
// all paired differences were zero).
type PairwiseResult struct {
	A      Condition `json:"a"`
	B      Condition `json:"b"`
	W      float64   `json:"w"`
	PValue *float64  `json:"p_value"`
}

// PairwiseResults holds the post-hoc comparisons for one metric.
type PairwiseResults []PairwiseResult

// ANOVAResult is the repeated-measures test outcome for one metric.
// PValue is nil when the test was skipped (zero variance across all
// subjects and conditions); Significant is then false by definition.
type ANOVAResult struct {
	Metric         MetricName            `json:"metric"`
	NSubjects      int                   `json:"n_subjects"`
	ConditionMeans map[Condition]float64 `json:"condition_means"`
	ChiSquare      float64               `json:"chi_square"`
	PValue         *float64              `json:"p_value"`
	Significant    bool                  `json:"significant"`
	PostHoc        PairwiseResults       `json:"post_hoc,omitempty"`
}

// ResponsivenessLabel classifies how strongly an individual subject's
// metrics moved away from baseline under the music conditions.
type ResponsivenessLabel string

const (
	HighlyResponsive ResponsivenessLabel = "HIGHLY_RESPONSIVE"
	Responsive       ResponsivenessLabel = "RESPONSIVE"
	NonResponsive    ResponsivenessLabel = "NON_RESPONSIVE"
)

// EffectSize tags the magnitude of a per-metric percent change.
type EffectSize string

const (
	EffectLarge      EffectSize = "large"
	EffectMedium     EffectSize = "medium"
	EffectSmall      EffectSize = "small"
	EffectNegligible EffectSize = "negligible"
)

// MetricChange records a subject's per-metric percent changes relative to
// baseline under each music condition.
type MetricChange struct {
	Metric             MetricName `json:"metric"`
	FavoritePercent    float64    `json:"favorite_change_pct"`
	LeastFavPercent    float64    `json:"least_favorite_change_pct"`
	Changed            bool       `json:"changed"`
	Effect             EffectSize `json:"effect"`
	BaselineValue      float64    `json:"baseline_value"`
	FavoriteValue      float64    `json:"favorite_value"`
	LeastFavoriteValue float64    `json:"least_favorite_value"`
}

// Classification is the per-subject responsiveness result.
// ExcludedMetrics lists metrics that could not be assessed for this
// subject (baseline value of exactly zero).
type Classification struct {
	SubjectID           int                 `json:"subject_id"`
	Label               ResponsivenessLabel `json:"label"`
	NSignificantMetrics int                 `json:"n_significant_metrics"`
	Changes             []MetricChange      `json:"changes"`
	ExcludedMetrics     []MetricName        `json:"excluded_metrics,omitempty"`
}
