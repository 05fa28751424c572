// Package hrv defines the shared value types and error kinds for the
// PPG heart-rate-variability analysis pipeline. The pipeline stages live
// in subpackages and communicate only through these types:
//
//	signalproc  raw waveform -> conditioned 120s segment
//	beats       conditioned segment -> peaks + cleaned inter-beat intervals
//	metrics     peaks/IBIs -> per-recording metric record
//	stats       metric records -> group statistics + significance tests
//	classify    one subject's records -> responsiveness label
//	pipeline    batch orchestration across subjects and conditions
//
// All stages are pure transforms over immutable values. Failures are
// reported through the sentinel errors in this package and never coerced
// into placeholder numeric results.
package hrv
