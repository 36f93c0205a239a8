package regime

import (
	"math"

	"DivPulse/internal/domain/models"
)

const tradingDaysPerYear = 252

// VolPoint is one day's annualized volatility estimate.
type VolPoint struct {
	Timestamp int64
	Value     float64
}

// GarmanKlass estimates per-day volatility from OHLC ranges and annualizes
// it in percent. Bars with non-positive prices, high below low, or a
// negative estimator term produce no estimate and are skipped.
func GarmanKlass(points []models.TimePoint) []VolPoint {
	out := make([]VolPoint, 0, len(points))
	k := 2*math.Ln2 - 1
	for _, p := range points {
		if p.Open == nil || p.High == nil || p.Low == nil || p.Close == nil {
			continue
		}
		o, h, l, c := *p.Open, *p.High, *p.Low, *p.Close
		if o <= 0 || h <= 0 || l <= 0 || c <= 0 || h < l {
			continue
		}
		hl := math.Log(h / l)
		co := math.Log(c / o)
		term := 0.5*hl*hl - k*co*co
		if term < 0 || math.IsNaN(term) {
			continue
		}
		daily := math.Sqrt(term)
		out = append(out, VolPoint{
			Timestamp: p.Timestamp,
			Value:     daily * math.Sqrt(tradingDaysPerYear) * 100,
		})
	}
	return out
}
