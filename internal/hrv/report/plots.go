package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/metrics"
)

// SavePeakPlot renders a window of the conditioned signal with the
// detected peaks overlaid, for visual QC of the beat detector.
func SavePeakPlot(dir, name string, sig hrv.ConditionedSignal, peaks hrv.PeakSet, windowSec float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	windowSamples := int(windowSec * sig.SampleRate)
	if windowSamples > len(sig.Samples) {
		windowSamples = len(sig.Samples)
	}

	pts := make(plotter.XYs, windowSamples)
	for i := 0; i < windowSamples; i++ {
		pts[i].X = float64(i) / sig.SampleRate
		pts[i].Y = sig.Samples[i]
	}
	var peakPts plotter.XYs
	for _, p := range peaks {
		if p >= windowSamples {
			break
		}
		peakPts = append(peakPts, plotter.XY{X: float64(p) / sig.SampleRate, Y: sig.Samples[p]})
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("Peak detection: %s", name)
	pl.X.Label.Text = "Time (s)"
	pl.Y.Label.Text = "Amplitude (z-scored)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("signal line: %w", err)
	}
	line.Width = vg.Points(1)

	scatter, err := plotter.NewScatter(peakPts)
	if err != nil {
		return fmt.Errorf("peak scatter: %w", err)
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 220, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(2.5)

	pl.Add(line, scatter)
	pl.Legend.Add("signal", line)
	pl.Legend.Add("peaks", scatter)

	file := filepath.Join(dir, fmt.Sprintf("peaks_%s.png", name))
	if err := pl.Save(14*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save peak plot: %w", err)
	}
	return nil
}

// SavePeriodogramPlot renders the IBI power spectral density with the LF
// and HF integration bands marked.
func SavePeriodogramPlot(dir, name string, psd metrics.Periodogram, lfLow, lfHigh, hfHigh float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	pts := make(plotter.XYs, 0, len(psd.Freqs))
	for i, f := range psd.Freqs {
		if f > hfHigh*1.5 {
			break
		}
		pts = append(pts, plotter.XY{X: f, Y: psd.Power[i]})
	}

	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("IBI periodogram: %s", name)
	pl.X.Label.Text = "Frequency (Hz)"
	pl.Y.Label.Text = "Power (ms²/Hz)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("psd line: %w", err)
	}
	line.Width = vg.Points(1)
	pl.Add(line)

	for _, edge := range []float64{lfLow, lfHigh, hfHigh} {
		marker, err := plotter.NewLine(plotter.XYs{{X: edge, Y: 0}, {X: edge, Y: maxY(pts)}})
		if err != nil {
			return fmt.Errorf("band marker: %w", err)
		}
		marker.LineStyle.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
		marker.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		pl.Add(marker)
	}

	file := filepath.Join(dir, fmt.Sprintf("psd_%s.png", name))
	if err := pl.Save(10*vg.Inch, 6*vg.Inch, file); err != nil {
		return fmt.Errorf("save psd plot: %w", err)
	}
	return nil
}

func maxY(pts plotter.XYs) float64 {
	var m float64
	for _, p := range pts {
		if p.Y > m {
			m = p.Y
		}
	}
	return m
}
