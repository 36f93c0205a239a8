package regime

import (
	"testing"

	"DivPulse/internal/domain/models"
)

func volSeries(vals ...float64) []VolPoint {
	out := make([]VolPoint, len(vals))
	for i, v := range vals {
		out[i] = VolPoint{Timestamp: day(i), Value: v}
	}
	return out
}

func TestPercentileFallbackMedianSplit(t *testing.T) {
	points, threshold := PercentileFallback(volSeries(1, 2, 3, 4, 5), 50)
	if threshold != 3 {
		t.Fatalf("median wrong: %v", threshold)
	}
	wantHigh := map[int]bool{3: true, 4: true}
	for i, p := range points {
		isHigh := p.Label == models.RegimeHigh
		if isHigh != wantHigh[i] {
			t.Fatalf("point %d labeled %s", i, p.Label)
		}
	}
}

func TestPercentileFallbackThresholdIsLow(t *testing.T) {
	// A value exactly at the threshold stays Low; only strictly above is High.
	points, threshold := PercentileFallback(volSeries(2, 2, 2, 8, 9), 50)
	if threshold != 2 {
		t.Fatalf("median wrong: %v", threshold)
	}
	if points[2].Label != models.RegimeLow {
		t.Fatalf("threshold value must label Low")
	}
}

func TestPercentileFallbackHighPercentile(t *testing.T) {
	points, threshold := PercentileFallback(volSeries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), 80)
	if threshold < 8 || threshold > 9 {
		t.Fatalf("80th percentile threshold out of range: %v", threshold)
	}
	high := 0
	for _, p := range points {
		if p.Label == models.RegimeHigh {
			high++
		}
	}
	if high != 2 {
		t.Fatalf("want only the top two values High, got %d", high)
	}
}

func TestPercentileFallbackBadPercentileDefaultsToMedian(t *testing.T) {
	points, threshold := PercentileFallback(volSeries(1, 2, 3, 4, 5), 0)
	if threshold != 3 {
		t.Fatalf("zero percentile must fall back to the median: %v", threshold)
	}
	if points[4].Label != models.RegimeHigh {
		t.Fatalf("top value must label High")
	}
}

func TestPercentileFallbackScaleInvariant(t *testing.T) {
	base, _ := PercentileFallback(volSeries(1, 5, 2, 9, 3, 8, 4, 7), 50)
	scaled, _ := PercentileFallback(volSeries(10, 50, 20, 90, 30, 80, 40, 70), 50)
	for i := range base {
		if base[i].Label != scaled[i].Label {
			t.Fatalf("labels changed under scaling at %d", i)
		}
	}
}

func TestPercentileFallbackEmpty(t *testing.T) {
	points, _ := PercentileFallback(nil, 50)
	if points != nil {
		t.Fatalf("empty input must return nil")
	}
}
