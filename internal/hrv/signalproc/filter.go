package signalproc

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// BandPass holds the transfer-function coefficients of a digital
// Butterworth band-pass filter. Coefficients are normalised so A[0] == 1.
type BandPass struct {
	B []float64 // numerator
	A []float64 // denominator
}

// DesignBandPass designs an order-N Butterworth band-pass filter with the
// given cutoff frequencies (Hz) at the given sampling rate. The analog
// low-pass prototype is transformed to a band-pass (doubling the pole
// count) and discretised with the bilinear transform, matching the
// conventional digital design so the -3 dB points land on the cutoffs.
func DesignBandPass(order int, lowHz, highHz, sampleRateHz float64) (*BandPass, error) {
	if order < 1 {
		return nil, fmt.Errorf("filter order must be at least 1, got %d", order)
	}
	nyquist := sampleRateHz / 2
	if lowHz <= 0 || highHz <= lowHz || highHz >= nyquist {
		return nil, fmt.Errorf("cutoffs must satisfy 0 < low < high < nyquist, got [%g, %g] at fs=%g", lowHz, highHz, sampleRateHz)
	}

	// Analog low-pass prototype poles on the unit Butterworth circle.
	poles := make([]complex128, order)
	for k := 1; k <= order; k++ {
		theta := math.Pi * float64(2*k+order-1) / float64(2*order)
		poles[k-1] = cmplx.Exp(complex(0, theta))
	}

	// Pre-warp the band edges for the bilinear transform. The internal
	// sampling rate of 2 keeps the algebra in normalised frequency.
	const fs = 2.0
	warpedLow := 2 * fs * math.Tan(math.Pi*(lowHz/nyquist)/fs)
	warpedHigh := 2 * fs * math.Tan(math.Pi*(highHz/nyquist)/fs)
	bw := warpedHigh - warpedLow
	w0 := math.Sqrt(warpedLow * warpedHigh)

	// Low-pass to band-pass: each prototype pole splits into a pair.
	bpPoles := make([]complex128, 0, 2*order)
	for _, p := range poles {
		scaled := p * complex(bw/2, 0)
		root := cmplx.Sqrt(scaled*scaled - complex(w0*w0, 0))
		bpPoles = append(bpPoles, scaled+root, scaled-root)
	}
	// Band-pass zeros sit at the origin, one per prototype pole.
	bpZeros := make([]complex128, order)
	gain := math.Pow(bw, float64(order))

	// Bilinear transform to the z-domain.
	const fs2 = 4.0 // 2 * fs
	zZeros := make([]complex128, 0, 2*order)
	zPoles := make([]complex128, 0, 2*order)
	numScale := complex(1, 0)
	denScale := complex(1, 0)
	for _, z := range bpZeros {
		zZeros = append(zZeros, (complex(fs2, 0)+z)/(complex(fs2, 0)-z))
		numScale *= complex(fs2, 0) - z
	}
	for _, p := range bpPoles {
		zPoles = append(zPoles, (complex(fs2, 0)+p)/(complex(fs2, 0)-p))
		denScale *= complex(fs2, 0) - p
	}
	// Zeros beyond the pole count map to z = -1.
	for len(zZeros) < len(zPoles) {
		zZeros = append(zZeros, complex(-1, 0))
	}
	zGain := gain * real(numScale/denScale)

	b := polyFromRoots(zZeros)
	a := polyFromRoots(zPoles)
	for i := range b {
		b[i] *= zGain
	}
	return &BandPass{B: b, A: a}, nil
}

// polyFromRoots expands a monic polynomial from its roots and returns the
// real coefficients in descending order. Complex roots must appear in
// conjugate pairs for the imaginary parts to cancel.
func polyFromRoots(roots []complex128) []float64 {
	coeffs := make([]complex128, 1, len(roots)+1)
	coeffs[0] = 1
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// lfilter applies the filter in direct form II transposed with the given
// initial state. It returns the filtered signal and the final state.
func (f *BandPass) lfilter(x []float64, zi []float64) ([]float64, []float64) {
	n := len(f.A)
	z := make([]float64, n-1)
	copy(z, zi)
	y := make([]float64, len(x))
	for m, xv := range x {
		yv := f.B[0]*xv + z[0]
		for i := 0; i < n-2; i++ {
			z[i] = f.B[i+1]*xv + z[i+1] - f.A[i+1]*yv
		}
		z[n-2] = f.B[n-1]*xv - f.A[n-1]*yv
		y[m] = yv
	}
	return y, z
}

// steadyState computes the initial filter state that makes the step
// response start from its steady value, so the forward-backward pass does
// not ring at the segment edges. Solves (I - C^T) zi = B where C is the
// companion matrix of A.
func (f *BandPass) steadyState() ([]float64, error) {
	n := len(f.A) - 1
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var companionT float64
			// Transposed companion: first column is -A[1:], superdiagonal is 1.
			if j == 0 {
				companionT = -f.A[i+1]
			}
			if j == i+1 {
				companionT += 1
			}
			v := -companionT
			if i == j {
				v += 1
			}
			m.Set(i, j, v)
		}
	}
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, f.B[i+1]-f.A[i+1]*f.B[0])
	}
	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		return nil, fmt.Errorf("filter steady-state solve failed: %w", err)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// FiltFilt applies the filter forward and backward for zero phase
// distortion. The input is extended at both ends with an odd reflection
// (3x the filter length) so the edges settle before the real samples, and
// each pass starts from the steady-state response to its first sample.
func (f *BandPass) FiltFilt(x []float64) ([]float64, error) {
	padLen := 3 * len(f.A)
	if len(x) <= padLen {
		return nil, fmt.Errorf("signal of %d samples is too short for pad length %d", len(x), padLen)
	}

	zi, err := f.steadyState()
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, padLen)

	scaled := make([]float64, len(zi))
	for i, v := range zi {
		scaled[i] = v * ext[0]
	}
	fwd, _ := f.lfilter(ext, scaled)

	reverse(fwd)
	for i, v := range zi {
		scaled[i] = v * fwd[0]
	}
	bwd, _ := f.lfilter(fwd, scaled)
	reverse(bwd)

	return bwd[padLen : len(bwd)-padLen], nil
}

// oddExtend reflects the signal about its end points, inverting the
// reflected samples so the extension is continuous in value and slope.
func oddExtend(x []float64, padLen int) []float64 {
	n := len(x)
	out := make([]float64, 0, n+2*padLen)
	for i := padLen; i >= 1; i-- {
		out = append(out, 2*x[0]-x[i])
	}
	out = append(out, x...)
	for i := n - 2; i >= n-1-padLen; i-- {
		out = append(out, 2*x[n-1]-x[i])
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
