package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/pulse.report/internal/hrv"
)

// SpectralOptions configures the frequency-domain estimation.
type SpectralOptions struct {
	ResampleRateHz float64
	LFLowHz        float64
	LFHighHz       float64
	HFLowHz        float64
	HFHighHz       float64
}

// Periodogram is the one-sided power spectral density of the resampled
// IBI series.
type Periodogram struct {
	Freqs []float64 // Hz
	Power []float64 // ms^2 per Hz
}

// LFHFRatio estimates the ratio of low-frequency to high-frequency
// spectral power in the IBI series. The beat-indexed series is placed on
// its cumulative time axis, resampled to a uniform grid with a natural
// cubic spline, detrended, and transformed with a real FFT; band powers
// are trapezoidal integrals over the PSD.
//
// Returns hrv.ErrInsufficientSpectralResolution when the series spans too
// little time for the frequency resolution (1/duration) to resolve the
// LF band width.
func LFHFRatio(ibis hrv.IBISeries, opts SpectralOptions) (float64, error) {
	psd, err := IBIPeriodogram(ibis, opts)
	if err != nil {
		return 0, err
	}

	lf := BandPower(psd, opts.LFLowHz, opts.LFHighHz)
	hf := BandPower(psd, opts.HFLowHz, opts.HFHighHz)
	if hf <= 0 || math.IsNaN(lf) || math.IsNaN(hf) {
		return 0, fmt.Errorf("%w: lf_hf_ratio with LF=%g HF=%g", hrv.ErrNonFiniteMetric, lf, hf)
	}
	return lf / hf, nil
}

// IBIPeriodogram resamples the IBI series to a uniform time base and
// returns its one-sided periodogram.
func IBIPeriodogram(ibis hrv.IBISeries, opts SpectralOptions) (Periodogram, error) {
	duration := ibis.DurationSeconds()
	lfWidth := opts.LFHighHz - opts.LFLowHz
	if duration <= 0 || 1/duration >= lfWidth {
		return Periodogram{}, fmt.Errorf("%w: %.1fs of usable IBIs, need more than %.1fs",
			hrv.ErrInsufficientSpectralResolution, duration, 1/lfWidth)
	}
	if len(ibis) < 4 {
		return Periodogram{}, fmt.Errorf("%w: %d intervals", hrv.ErrInsufficientSpectralResolution, len(ibis))
	}

	uniform, err := resampleUniform(ibis, opts.ResampleRateHz)
	if err != nil {
		return Periodogram{}, err
	}

	// Detrend: remove the mean so the DC bin does not swamp the bands.
	var mean float64
	for _, v := range uniform {
		mean += v
	}
	mean /= float64(len(uniform))
	for i := range uniform {
		uniform[i] -= mean
	}

	n := len(uniform)
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, uniform)

	psd := Periodogram{
		Freqs: make([]float64, len(coeffs)),
		Power: make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		psd.Freqs[i] = fft.Freq(i) * opts.ResampleRateHz
		re, im := real(c), imag(c)
		psd.Power[i] = (re*re + im*im) / float64(n)
	}
	return psd, nil
}

// resampleUniform interpolates the irregularly time-spaced IBI series
// onto a uniform grid at the given rate. A natural cubic spline is used;
// the grid stays strictly inside the observed time range so the spline is
// never extrapolated.
func resampleUniform(ibis hrv.IBISeries, rateHz float64) ([]float64, error) {
	times := make([]float64, len(ibis))
	var t float64
	for i, ibi := range ibis {
		t += ibi / 1000
		times[i] = t - ibis[0]/1000 // axis starts at the first beat
	}

	var spline interp.NaturalCubic
	if err := spline.Fit(times, ibis); err != nil {
		return nil, fmt.Errorf("IBI spline fit: %w", err)
	}

	step := 1 / rateHz
	end := times[len(times)-1]
	out := make([]float64, 0, int(end/step)+1)
	for x := 0.0; x < end; x += step {
		out = append(out, spline.Predict(x))
	}
	if len(out) < 2 {
		return nil, fmt.Errorf("%w: resampled series has %d points", hrv.ErrInsufficientSpectralResolution, len(out))
	}
	return out, nil
}

// BandPower integrates the periodogram between lo (inclusive) and hi
// (exclusive) using the trapezoidal rule. Returns 0 when fewer than two
// bins fall inside the band.
func BandPower(psd Periodogram, lo, hi float64) float64 {
	var freqs, power []float64
	for i, f := range psd.Freqs {
		if f >= lo && f < hi {
			freqs = append(freqs, f)
			power = append(power, psd.Power[i])
		}
	}
	if len(freqs) < 2 {
		return 0
	}
	return integrate.Trapezoidal(freqs, power)
}
