package hrv

import "errors"

// Error kinds surfaced by the pipeline stages. Callers are expected to
// match these with errors.Is; stages wrap them with per-recording context.
var (
	// ErrInsufficientData indicates a raw waveform shorter than the
	// configured segment duration.
	ErrInsufficientData = errors.New("waveform shorter than required segment duration")

	// ErrDegenerateSignal indicates a flat-line input whose standard
	// deviation is zero, which cannot be z-score normalised.
	ErrDegenerateSignal = errors.New("degenerate signal: zero variance")

	// ErrInsufficientBeats indicates too few valid inter-beat intervals
	// survived cleaning for the metrics to be reliable.
	ErrInsufficientBeats = errors.New("insufficient beats after IBI cleaning")

	// ErrInsufficientSpectralResolution indicates the usable IBI duration
	// is too short to resolve the low-frequency band.
	ErrInsufficientSpectralResolution = errors.New("IBI series too short to resolve LF band")

	// ErrNonFiniteMetric indicates a metric evaluated to NaN or infinity.
	ErrNonFiniteMetric = errors.New("non-finite metric value")

	// ErrMissingCondition indicates a subject is missing one of the three
	// condition recordings required for classification.
	ErrMissingCondition = errors.New("missing condition record for subject")
)
