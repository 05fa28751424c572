// Package units provides the shared conversions between the sample,
// time, and heart-rate domains used across the analysis stages.
package units

// MillisPerSecond converts between seconds and milliseconds.
const MillisPerSecond = 1000.0

// BPMFromIBIMillis converts a mean inter-beat interval in milliseconds
// to beats per minute. Returns 0 for a non-positive interval.
func BPMFromIBIMillis(ibiMillis float64) float64 {
	if ibiMillis <= 0 {
		return 0
	}
	return 60 * MillisPerSecond / ibiMillis
}

// IBIMillisFromBPM converts a heart rate in beats per minute to the
// corresponding inter-beat interval in milliseconds. Returns 0 for a
// non-positive rate.
func IBIMillisFromBPM(bpm float64) float64 {
	if bpm <= 0 {
		return 0
	}
	return 60 * MillisPerSecond / bpm
}

// MillisFromSamples converts a sample-count span to milliseconds at the
// given sampling rate.
func MillisFromSamples(samples int, sampleRateHz float64) float64 {
	return float64(samples) / sampleRateHz * MillisPerSecond
}

// SamplesFromSeconds converts a duration in seconds to a sample count at
// the given sampling rate, rounding to the nearest sample.
func SamplesFromSeconds(seconds, sampleRateHz float64) int {
	return int(seconds*sampleRateHz + 0.5)
}

// SecondsFromMillis converts milliseconds to seconds.
func SecondsFromMillis(millis float64) float64 {
	return millis / MillisPerSecond
}
