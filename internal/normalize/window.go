package normalize

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"DivPulse/internal/domain/models"
)

// minValidPairs is the smallest number of usable observations a regression
// window must contain before a score is emitted.
const minValidPairs = 10

// alignForwardFill pairs each target point with the most recent benchmark
// value at or before its timestamp. Days before the first benchmark
// observation stay invalid: history is never filled backwards. Invalid
// entries are NaN.
func alignForwardFill(target, benchmark *models.Dataset) (ts []int64, y, x []float64) {
	n := target.Len()
	ts = make([]int64, n)
	y = make([]float64, n)
	x = make([]float64, n)

	bi := 0
	bVal := math.NaN()
	bPoints := benchmark.Points

	for i, p := range target.Points {
		ts[i] = p.Timestamp
		for bi < len(bPoints) && bPoints[bi].Timestamp <= p.Timestamp {
			if v, ok := bPoints[bi].CloseValue(benchmark.Shape); ok {
				bVal = v
			}
			bi++
		}
		x[i] = bVal
		if v, ok := p.CloseValue(target.Shape); ok {
			y[i] = v
		} else {
			y[i] = math.NaN()
		}
	}
	return ts, y, x
}

// rollingZScores walks the aligned arrays and scores each point against a
// regression fitted over the trailing window, the current point excluded.
// Scoring starts only once a full window of history precedes the point;
// within the window, points that cannot be scored (too few valid pairs,
// degenerate variance, invalid pair) are skipped, never emitted as nulls.
func rollingZScores(ts []int64, y, x []float64, window int) []models.NormalizedPoint {
	out := make([]models.NormalizedPoint, 0, len(ts))
	wx := make([]float64, 0, window)
	wy := make([]float64, 0, window)

	for i := window; i < len(ts); i++ {
		if math.IsNaN(y[i]) || math.IsNaN(x[i]) {
			continue
		}
		lo := i - window
		wx = wx[:0]
		wy = wy[:0]
		for j := lo; j < i; j++ {
			if math.IsNaN(y[j]) || math.IsNaN(x[j]) {
				continue
			}
			wx = append(wx, x[j])
			wy = append(wy, y[j])
		}
		if len(wx) < minValidPairs {
			continue
		}
		if stat.PopVariance(wx, nil) == 0 || stat.PopVariance(wy, nil) == 0 {
			continue
		}

		alpha, beta := stat.LinearRegression(wx, wy, nil, false)
		if math.IsNaN(alpha) || math.IsNaN(beta) {
			continue
		}

		residuals := make([]float64, len(wx))
		for j := range wx {
			residuals[j] = wy[j] - (alpha + beta*wx[j])
		}
		sigma := stat.PopStdDev(residuals, nil)
		if sigma == 0 || math.IsNaN(sigma) {
			continue
		}

		z := (y[i] - (alpha + beta*x[i])) / sigma
		out = append(out, models.NormalizedPoint{Timestamp: ts[i], Value: z})
	}
	return out
}

// logVelocity converts a value sequence to log returns. Entry i holds
// ln(v[i]/v[i-1]); the first entry and any step touching an invalid or
// non-positive value come out NaN.
func logVelocity(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = math.NaN()
	}
	for i := 1; i < len(vals); i++ {
		prev, cur := vals[i-1], vals[i]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev <= 0 || cur <= 0 {
			continue
		}
		out[i] = math.Log(cur / prev)
	}
	return out
}
