package normalize

import (
	"context"
	"math"
	"testing"
	"time"

	"DivPulse/internal/domain/models"
)

func day(i int) int64 {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli() + int64(i)*models.DayMS
}

func simpleDataset(name string, vals []float64) *models.Dataset {
	points := make([]models.TimePoint, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			points = append(points, models.Gap(day(i)))
			continue
		}
		points = append(points, models.SimplePoint(day(i), v))
	}
	return &models.Dataset{Name: name, Shape: models.ShapeSimple, Points: points}
}

func TestPerfectLinearRelationScoresNearZero(t *testing.T) {
	n := 60
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		// Noise around the line keeps window variance alive; the noise is
		// identical inside and outside the fit so residuals stay tiny.
		noise := 0.001 * math.Sin(float64(i))
		bench[i] = 100 + float64(i)
		target[i] = 3*bench[i] + 7 + noise
	}

	series, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 30)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(series.Points) == 0 {
		t.Fatalf("no points emitted")
	}
	for _, p := range series.Points {
		if math.Abs(p.Value) > 3.5 {
			t.Fatalf("z-score %v too large for near-linear relation", p.Value)
		}
	}
}

func TestDivergenceSpikeScoresHigh(t *testing.T) {
	n := 60
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		noise := 0.01 * math.Sin(float64(i)*1.7)
		bench[i] = 100 + float64(i)
		target[i] = 2*bench[i] + noise
	}
	target[n-1] += 5 // break away from the fit on the last day

	series, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 30)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	last := series.Points[len(series.Points)-1]
	if last.Timestamp != day(n-1) {
		t.Fatalf("last point missing")
	}
	if last.Value < 10 {
		t.Fatalf("divergence not detected: z=%v", last.Value)
	}
}

func TestNoLookahead(t *testing.T) {
	n := 50
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		noise := 0.01 * math.Cos(float64(i)*0.9)
		bench[i] = 50 + float64(i)
		target[i] = bench[i] + noise
	}

	base, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 14)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	// Perturbing only the final observation must not change earlier scores.
	target[n-1] += 100
	bumped, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 14)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if len(base.Points) != len(bumped.Points) {
		t.Fatalf("point count changed: %d vs %d", len(base.Points), len(bumped.Points))
	}
	for i := 0; i < len(base.Points)-1; i++ {
		if base.Points[i].Value != bumped.Points[i].Value {
			t.Fatalf("score at %d depends on a future observation", i)
		}
	}
}

func TestScoringStartsAtFullWindow(t *testing.T) {
	n := 60
	window := 30
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		noise := 0.01 * math.Sin(float64(i)*1.1)
		bench[i] = 100 + float64(i)
		target[i] = 2*bench[i] + noise
	}

	levels, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), window)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(levels.Points) == 0 {
		t.Fatalf("no points emitted")
	}
	if got, want := levels.Points[0].Timestamp, day(window); got != want {
		t.Fatalf("first levels score at %d, want day %d (%d)", got, window, want)
	}

	// Velocity consumes one extra day to form the first return, so its
	// scoring starts one day later still.
	velocity, err := NewVelocity().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), window)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(velocity.Points) == 0 {
		t.Fatalf("no velocity points emitted")
	}
	if got, want := velocity.Points[0].Timestamp, day(window+1); got != want {
		t.Fatalf("first velocity score at %d, want day %d (%d)", got, window+1, want)
	}
}

func TestShorterThanWindowEmitsNothing(t *testing.T) {
	n := 25
	window := 30
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		bench[i] = 100 + float64(i)
		target[i] = 2*bench[i] + 0.01*math.Sin(float64(i))
	}

	series, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), window)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(series.Points) != 0 {
		t.Fatalf("scored %d points with less history than the window", len(series.Points))
	}
}

func TestZeroVarianceWindowSkipped(t *testing.T) {
	n := 40
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		bench[i] = 100 // flat benchmark, zero variance everywhere
		target[i] = float64(i)
	}

	series, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 14)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(series.Points) != 0 {
		t.Fatalf("degenerate windows must be skipped, got %d points", len(series.Points))
	}
}

func TestThinWindowSkipped(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	series, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", vals), simpleDataset("b", vals), 30)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(series.Points) != 0 {
		t.Fatalf("windows under the valid-pair floor must emit nothing")
	}
}

func TestGapsDoNotEmit(t *testing.T) {
	n := 50
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		noise := 0.01 * math.Sin(float64(i)*1.3)
		bench[i] = 10 + float64(i)
		target[i] = bench[i] + noise
	}
	target[40] = math.NaN() // gap day

	series, err := NewLevels().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 14)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for _, p := range series.Points {
		if p.Timestamp == day(40) {
			t.Fatalf("gap day must not be scored")
		}
	}
}

func TestForwardFillNeverBackfills(t *testing.T) {
	// Benchmark starts 20 days after the target. Target days before the
	// first benchmark observation must never be scored.
	target := simpleDataset("t", make([]float64, 60))
	for i := range target.Points {
		v := 5 + float64(i)
		target.Points[i] = models.SimplePoint(day(i), v)
	}
	benchPoints := make([]models.TimePoint, 0, 40)
	for i := 20; i < 60; i++ {
		benchPoints = append(benchPoints, models.SimplePoint(day(i), 100+float64(i)+0.01*math.Sin(float64(i))))
	}
	bench := &models.Dataset{Name: "b", Shape: models.ShapeSimple, Points: benchPoints}

	series, err := NewLevels().Normalize(context.Background(), target, bench, 14)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	for _, p := range series.Points {
		if p.Timestamp < day(20) {
			t.Fatalf("scored %d before benchmark history begins", p.Timestamp)
		}
	}
}

func TestVelocityGuardsNonPositive(t *testing.T) {
	vals := []float64{1, 2, 4, 8, -1, 16, 32, 64, 128, 256, 512, 1024}
	out := logVelocity(vals)
	if !math.IsNaN(out[0]) {
		t.Fatalf("first return must be invalid")
	}
	if !math.IsNaN(out[4]) || !math.IsNaN(out[5]) {
		t.Fatalf("steps touching a non-positive value must be invalid")
	}
	want := math.Log(2)
	if math.Abs(out[1]-want) > 1e-12 {
		t.Fatalf("log return wrong: %v", out[1])
	}
}

func TestVelocityTimestampOffset(t *testing.T) {
	n := 60
	bench := make([]float64, n)
	target := make([]float64, n)
	for i := 0; i < n; i++ {
		bench[i] = 100 * math.Exp(0.01*float64(i)+0.002*math.Sin(float64(i)))
		target[i] = 50 * math.Exp(0.01*float64(i)+0.002*math.Cos(float64(i)))
	}

	series, err := NewVelocity().Normalize(context.Background(),
		simpleDataset("t", target), simpleDataset("b", bench), 30)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(series.Points) == 0 {
		t.Fatalf("no points emitted")
	}
	// A return exists only from the second day on, so nothing may carry
	// the first day's timestamp.
	for _, p := range series.Points {
		if p.Timestamp == day(0) {
			t.Fatalf("return assigned to the earlier source day")
		}
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := DefaultRegistry()
	for _, variant := range []string{"levels", "velocity"} {
		n, err := r.Get(variant)
		if err != nil {
			t.Fatalf("get %s: %v", variant, err)
		}
		if n.Variant() != variant {
			t.Fatalf("variant mismatch: %s", n.Variant())
		}
	}
	if _, err := r.Get("nope"); err == nil {
		t.Fatalf("unknown variant must error")
	}
}
