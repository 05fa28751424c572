// Package metrics derives the five HRV metrics for one recording: mean
// heart rate, SDNN, RMSSD, the LF/HF spectral power ratio, and mean pulse
// amplitude at the detected peaks.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/units"
)

// Compute assembles a MetricRecord for one subject and condition from the
// conditioned signal, detected peaks, and cleaned IBI series. Any
// non-finite metric value is reported as an error rather than coerced;
// a silently-zeroed metric would corrupt the downstream statistics.
func Compute(subjectID int, condition hrv.Condition, sig hrv.ConditionedSignal, peaks hrv.PeakSet, ibis hrv.IBISeries, cfg *config.AnalysisConfig) (hrv.MetricRecord, error) {
	if len(ibis) == 0 {
		return hrv.MetricRecord{}, fmt.Errorf("%w: empty IBI series", hrv.ErrInsufficientBeats)
	}

	meanIBI := ibis.Mean()
	record := hrv.MetricRecord{
		SubjectID: subjectID,
		Condition: condition,
		NBeats:    len(ibis),
		MeanHRBPM: units.BPMFromIBIMillis(meanIBI),
	}

	record.SDNNMillis = math.Sqrt(stat.PopVariance(ibis, nil))
	record.RMSSDMillis = rmssd(ibis)

	ratio, err := LFHFRatio(ibis, SpectralOptions{
		ResampleRateHz: cfg.GetResampleRateHz(),
		LFLowHz:        cfg.GetLFBandLowHz(),
		LFHighHz:       cfg.GetLFBandHighHz(),
		HFLowHz:        cfg.GetHFBandLowHz(),
		HFHighHz:       cfg.GetHFBandHighHz(),
	})
	if err != nil {
		return hrv.MetricRecord{}, err
	}
	record.LFHFRatio = ratio

	record.PulseAmplitude = meanAmplitude(sig.Samples, peaks)

	if err := checkFinite(record); err != nil {
		return hrv.MetricRecord{}, err
	}
	return record, nil
}

// rmssd is the root mean square of successive differences between
// adjacent intervals.
func rmssd(ibis hrv.IBISeries) float64 {
	if len(ibis) < 2 {
		return 0
	}
	var sq float64
	for i := 1; i < len(ibis); i++ {
		d := ibis[i] - ibis[i-1]
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(ibis)-1))
}

// meanAmplitude averages the z-scored signal value at the peak indices.
func meanAmplitude(signal []float64, peaks hrv.PeakSet) float64 {
	if len(peaks) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, p := range peaks {
		sum += signal[p]
	}
	return sum / float64(len(peaks))
}

func checkFinite(r hrv.MetricRecord) error {
	for _, name := range hrv.MetricNames {
		if v := r.Metric(name); math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", hrv.ErrNonFiniteMetric, name, v)
		}
	}
	return nil
}
