package regime

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"DivPulse/internal/domain/models"
)

// PercentileFallback labels volatility against its own history: strictly
// above the percentile threshold is High, at or below is Low. A percentile
// outside (0, 100) falls back to the median. It is deterministic and never
// fails, making it the safety net when the switching model cannot fit.
func PercentileFallback(vols []VolPoint, percentile float64) ([]models.RegimePoint, float64) {
	if len(vols) == 0 {
		return nil, 0
	}
	if percentile <= 0 || percentile >= 100 {
		percentile = 50
	}
	vals := make([]float64, len(vols))
	for i, v := range vols {
		vals[i] = v.Value
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	threshold := stat.Quantile(percentile/100, stat.LinInterp, sorted, nil)

	out := make([]models.RegimePoint, len(vols))
	for i, v := range vols {
		label := models.RegimeLow
		if v.Value > threshold {
			label = models.RegimeHigh
		}
		out[i] = models.RegimePoint{
			Timestamp:  v.Timestamp,
			Volatility: v.Value,
			Label:      label,
		}
	}
	return out, threshold
}
