// Package beats detects systolic peaks in a conditioned PPG signal and
// derives a cleaned inter-beat-interval series from them.
package beats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/units"
)

// Extract locates systolic peaks in the conditioned signal and converts
// consecutive peak spacings to a cleaned IBI series in milliseconds.
// Returns hrv.ErrInsufficientBeats when too few peaks are found or too
// few intervals survive cleaning.
func Extract(sig hrv.ConditionedSignal, cfg *config.AnalysisConfig) (hrv.PeakSet, hrv.IBISeries, error) {
	minDistance := int(cfg.GetMinPeakDistanceSec() * sig.SampleRate)
	height := percentile(sig.Samples, cfg.GetPeakHeightPercentile())

	peaks := DetectPeaks(sig.Samples, minDistance, height, cfg.GetPeakProminence())
	if len(peaks) < cfg.GetMinDetectedPeaks() {
		return nil, nil, fmt.Errorf("%w: detected %d peaks, need %d",
			hrv.ErrInsufficientBeats, len(peaks), cfg.GetMinDetectedPeaks())
	}

	raw := Intervals(peaks, sig.SampleRate)
	clean := CleanIBI(raw, cfg.GetMinIBIMillis(), cfg.GetMaxIBIMillis(), cfg.GetMaxIBIChange())
	if len(clean) < cfg.GetMinValidBeats() {
		return nil, nil, fmt.Errorf("%w: %d intervals remain after cleaning, need %d",
			hrv.ErrInsufficientBeats, len(clean), cfg.GetMinValidBeats())
	}

	return peaks, clean, nil
}

// DetectPeaks finds local maxima that are at least minDistance samples
// apart, at least height tall, and at least minProminence above the
// higher of their surrounding valleys. The height threshold is supplied
// by the caller (typically a signal percentile) so detection adapts to
// each recording's noise floor.
func DetectPeaks(signal []float64, minDistance int, height, minProminence float64) hrv.PeakSet {
	candidates := localMaxima(signal)

	// Height gate first: it is the cheapest filter.
	kept := candidates[:0]
	for _, p := range candidates {
		if signal[p] >= height {
			kept = append(kept, p)
		}
	}
	candidates = kept

	if minDistance > 1 {
		candidates = enforceDistance(signal, candidates, minDistance)
	}

	if minProminence > 0 {
		kept = candidates[:0]
		for _, p := range candidates {
			if prominence(signal, p) >= minProminence {
				kept = append(kept, p)
			}
		}
		candidates = kept
	}

	return hrv.PeakSet(candidates)
}

// localMaxima returns indices of strict local maxima. Flat peak tops are
// collapsed to their middle sample.
func localMaxima(signal []float64) []int {
	var peaks []int
	i := 1
	for i < len(signal)-1 {
		if signal[i] <= signal[i-1] {
			i++
			continue
		}
		// Walk across a possible plateau.
		j := i
		for j < len(signal)-1 && signal[j+1] == signal[i] {
			j++
		}
		if j < len(signal)-1 && signal[j+1] < signal[i] {
			peaks = append(peaks, (i+j)/2)
		}
		i = j + 1
	}
	return peaks
}

// enforceDistance keeps the tallest peaks when several fall within
// minDistance samples of each other, scanning candidates by descending
// height.
func enforceDistance(signal []float64, peaks []int, minDistance int) []int {
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return signal[peaks[order[a]]] > signal[peaks[order[b]]]
	})

	removed := make([]bool, len(peaks))
	for _, idx := range order {
		if removed[idx] {
			continue
		}
		for j := idx - 1; j >= 0 && peaks[idx]-peaks[j] < minDistance; j-- {
			removed[j] = true
		}
		for j := idx + 1; j < len(peaks) && peaks[j]-peaks[idx] < minDistance; j++ {
			removed[j] = true
		}
	}

	out := peaks[:0]
	for i, p := range peaks {
		if !removed[i] {
			out = append(out, p)
		}
	}
	return out
}

// prominence measures how far a peak rises above the higher of the two
// valleys separating it from taller terrain (or the signal edge).
func prominence(signal []float64, peak int) float64 {
	leftMin := signal[peak]
	for i := peak - 1; i >= 0; i-- {
		if signal[i] > signal[peak] {
			break
		}
		if signal[i] < leftMin {
			leftMin = signal[i]
		}
	}
	rightMin := signal[peak]
	for i := peak + 1; i < len(signal); i++ {
		if signal[i] > signal[peak] {
			break
		}
		if signal[i] < rightMin {
			rightMin = signal[i]
		}
	}
	return signal[peak] - math.Max(leftMin, rightMin)
}

// Intervals converts consecutive peak spacings to milliseconds.
func Intervals(peaks hrv.PeakSet, sampleRateHz float64) hrv.IBISeries {
	if len(peaks) < 2 {
		return nil
	}
	out := make(hrv.IBISeries, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		out = append(out, units.MillisFromSamples(peaks[i]-peaks[i-1], sampleRateHz))
	}
	return out
}

// CleanIBI removes physiologically implausible intervals. The absolute
// bound is applied first; the relative bound then compares each survivor
// against the last value that was retained, so a dropped interval does
// not reset the comparison point.
func CleanIBI(ibis hrv.IBISeries, minMillis, maxMillis, maxChange float64) hrv.IBISeries {
	clean := make(hrv.IBISeries, 0, len(ibis))
	for _, ibi := range ibis {
		if ibi < minMillis || ibi > maxMillis {
			continue
		}
		if len(clean) > 0 {
			prev := clean[len(clean)-1]
			if math.Abs(ibi-prev)/prev > maxChange {
				continue
			}
		}
		clean = append(clean, ibi)
	}
	return clean
}

// percentile returns the p-th percentile (0-100) of the sample
// distribution using linear interpolation of the empirical CDF.
func percentile(samples []float64, p float64) float64 {
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}
