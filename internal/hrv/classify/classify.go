// Package classify labels each subject's individual responsiveness by
// comparing their per-condition HRV metrics against baseline.
package classify

import (
	"fmt"
	"math"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/hrv"
)

// Classify derives the responsiveness label for one subject from their
// three condition records. A metric counts as changed when either music
// condition moved it by at least the configured percent threshold
// (inclusive) relative to baseline. Metrics whose baseline value is
// exactly zero cannot be assessed and are excluded, not guessed.
//
// Returns hrv.ErrMissingCondition when any condition record is absent.
func Classify(records map[hrv.Condition]hrv.MetricRecord, cfg *config.AnalysisConfig) (hrv.Classification, error) {
	for _, c := range hrv.Conditions {
		if _, ok := records[c]; !ok {
			return hrv.Classification{}, fmt.Errorf("%w: %s", hrv.ErrMissingCondition, c)
		}
	}

	baseline := records[hrv.Baseline]
	favorite := records[hrv.FavoriteSong]
	leastFav := records[hrv.LeastFavoriteSong]

	out := hrv.Classification{SubjectID: baseline.SubjectID}
	threshold := cfg.GetChangePercentThreshold()

	for _, metric := range hrv.MetricNames {
		base := baseline.Metric(metric)
		if base == 0 {
			out.ExcludedMetrics = append(out.ExcludedMetrics, metric)
			continue
		}

		favPct := percentChange(favorite.Metric(metric), base)
		leastPct := percentChange(leastFav.Metric(metric), base)
		maxAbs := math.Max(math.Abs(favPct), math.Abs(leastPct))

		change := hrv.MetricChange{
			Metric:             metric,
			FavoritePercent:    favPct,
			LeastFavPercent:    leastPct,
			Changed:            maxAbs >= threshold,
			Effect:             effectSize(maxAbs),
			BaselineValue:      base,
			FavoriteValue:      favorite.Metric(metric),
			LeastFavoriteValue: leastFav.Metric(metric),
		}
		if change.Changed {
			out.NSignificantMetrics++
		}
		out.Changes = append(out.Changes, change)
	}

	switch {
	case out.NSignificantMetrics >= cfg.GetHighlyResponsiveMetrics():
		out.Label = hrv.HighlyResponsive
	case out.NSignificantMetrics >= cfg.GetResponsiveMetrics():
		out.Label = hrv.Responsive
	default:
		out.Label = hrv.NonResponsive
	}
	return out, nil
}

// percentChange is (value - base) / |base| * 100, preserving the sign of
// the movement regardless of the baseline's sign.
func percentChange(value, base float64) float64 {
	return (value - base) / math.Abs(base) * 100
}

// effectSize tags the larger absolute percent change across the two music
// conditions.
func effectSize(maxAbsPct float64) hrv.EffectSize {
	switch {
	case maxAbsPct > 20:
		return hrv.EffectLarge
	case maxAbsPct >= 10:
		return hrv.EffectMedium
	case maxAbsPct >= 5:
		return hrv.EffectSmall
	default:
		return hrv.EffectNegligible
	}
}
