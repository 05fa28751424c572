// Package report renders analysis results for humans: an HTML dashboard
// built with go-echarts and PNG diagnostics built with gonum/plot.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pulse.report/internal/hrv"
	"github.com/banshee-data/pulse.report/internal/hrv/stats"
)

var conditionLabels = map[hrv.Condition]string{
	hrv.Baseline:          "Baseline",
	hrv.FavoriteSong:      "Favorite Song",
	hrv.LeastFavoriteSong: "Least Favorite Song",
}

var metricLabels = map[hrv.MetricName]string{
	hrv.MetricMeanHR:         "Heart Rate (bpm)",
	hrv.MetricSDNN:           "SDNN (ms)",
	hrv.MetricRMSSD:          "RMSSD (ms)",
	hrv.MetricLFHFRatio:      "LF/HF Ratio",
	hrv.MetricPulseAmplitude: "Pulse Amplitude",
}

// RenderDashboard writes the group statistics and classification
// breakdown as a single self-contained HTML page.
func RenderDashboard(w io.Writer, report stats.GroupReport, classifications []hrv.Classification) error {
	page := components.NewPage()
	page.PageTitle = "PPG-HRV Analysis"

	for _, metric := range hrv.MetricNames {
		page.AddCharts(groupBarChart(metric, report))
	}
	page.AddCharts(classificationPie(classifications))

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// WriteDashboardFile renders the dashboard to an HTML file.
func WriteDashboardFile(path string, report stats.GroupReport, classifications []hrv.Classification) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dashboard file: %w", err)
	}
	defer f.Close()
	return RenderDashboard(f, report, classifications)
}

// groupBarChart plots one metric's condition means with the Friedman
// p-value in the subtitle.
func groupBarChart(metric hrv.MetricName, report stats.GroupReport) *charts.Bar {
	subtitle := "significance test skipped"
	for _, a := range report.ANOVA {
		if a.Metric != metric {
			continue
		}
		if a.PValue != nil {
			marker := ""
			if a.Significant {
				marker = " *"
			}
			subtitle = fmt.Sprintf("Friedman p = %.4f%s (n = %d)", *a.PValue, marker, a.NSubjects)
		}
	}

	var labels []string
	var data []opts.BarData
	for _, cond := range hrv.Conditions {
		for _, s := range report.Stats {
			if s.Metric == metric && s.Condition == cond {
				labels = append(labels, conditionLabels[cond])
				data = append(data, opts.BarData{Value: s.Mean})
			}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: metricLabels[metric], Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels)
	bar.AddSeries("mean", data)
	return bar
}

// classificationPie shows the distribution of responsiveness labels
// across the cohort.
func classificationPie(classifications []hrv.Classification) *charts.Pie {
	counts := make(map[hrv.ResponsivenessLabel]int)
	for _, c := range classifications {
		counts[c.Label]++
	}
	labels := make([]hrv.ResponsivenessLabel, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	var data []opts.PieData
	for _, label := range labels {
		data = append(data, opts.PieData{Name: string(label), Value: counts[label]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Subject Responsiveness",
			Subtitle: fmt.Sprintf("%d subjects classified", len(classifications)),
		}),
	)
	pie.AddSeries("subjects", data)
	return pie
}
