package composite

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

func series(name string, startDay int, vals ...float64) models.NormalizedSeries {
	s := models.NormalizedSeries{Name: name}
	for i, v := range vals {
		s.Points = append(s.Points, models.NormalizedPoint{Timestamp: day(startDay + i), Value: v})
	}
	return s
}

func equalSpec(names ...string) models.CompositeSpec {
	spec := models.CompositeSpec{EqualWeights: true}
	for _, n := range names {
		spec.Inputs = append(spec.Inputs, models.CompositeInput{Name: n})
	}
	return spec
}

func TestComposeEqualWeightIdentity(t *testing.T) {
	a := series("a", 0, 1, 2, 3)
	got, err := New().Compose(context.Background(), equalSpec("a"), []models.NormalizedSeries{a})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(got.Composite.Points) != 3 {
		t.Fatalf("want 3 points, got %d", len(got.Composite.Points))
	}
	for i, p := range got.Composite.Points {
		if p.Value != a.Points[i].Value {
			t.Fatalf("single-input composite must equal the input")
		}
	}
}

func TestComposeIntersectionOnly(t *testing.T) {
	a := series("a", 0, 1, 2, 3, 4) // days 0-3
	b := series("b", 2, 10, 20, 30) // days 2-4
	got, err := New().Compose(context.Background(), equalSpec("a", "b"), []models.NormalizedSeries{a, b})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if len(got.Composite.Points) != 2 {
		t.Fatalf("want days 2 and 3 only, got %d points", len(got.Composite.Points))
	}
	if got.Composite.Points[0].Timestamp != day(2) {
		t.Fatalf("intersection start wrong")
	}
	if got.Composite.Points[0].Value != (3.0+10.0)/2 {
		t.Fatalf("average wrong: %v", got.Composite.Points[0].Value)
	}
}

func TestComposeNoOverlap(t *testing.T) {
	a := series("a", 0, 1, 2)
	b := series("b", 10, 1, 2)
	_, err := New().Compose(context.Background(), equalSpec("a", "b"), []models.NormalizedSeries{a, b})
	if err != ErrNoOverlap {
		t.Fatalf("want ErrNoOverlap, got %v", err)
	}
}

func TestComposeWeightsRenormalize(t *testing.T) {
	a := series("a", 0, 1)
	b := series("b", 0, 3)
	spec := models.CompositeSpec{Inputs: []models.CompositeInput{
		{Name: "a", Weight: 0.2},
		{Name: "b", Weight: 0.6},
	}}
	got, err := New().Compose(context.Background(), spec, []models.NormalizedSeries{a, b})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	want := (0.2*1 + 0.6*3) / 0.8
	if math.Abs(got.Composite.Points[0].Value-want) > 1e-12 {
		t.Fatalf("weights not renormalized: %v want %v", got.Composite.Points[0].Value, want)
	}
}

func TestComposeInvertAffectsCompositeOnly(t *testing.T) {
	a := series("a", 0, 2)
	b := series("b", 0, 4)
	spec := models.CompositeSpec{
		EqualWeights: true,
		Inputs: []models.CompositeInput{
			{Name: "a"},
			{Name: "b", Invert: true},
		},
	}
	got, err := New().Compose(context.Background(), spec, []models.NormalizedSeries{a, b})
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if got.Composite.Points[0].Value != (2.0-4.0)/2 {
		t.Fatalf("invert not applied in composite: %v", got.Composite.Points[0].Value)
	}
	for _, s := range got.Breakdown {
		if s.Name == "b" && s.Points[0].Value != 4 {
			t.Fatalf("breakdown must stay un-inverted: %v", s.Points[0].Value)
		}
	}
}

func TestComposeMissingInput(t *testing.T) {
	a := series("a", 0, 1)
	_, err := New().Compose(context.Background(), equalSpec("a", "ghost"), []models.NormalizedSeries{a})
	if err == nil {
		t.Fatalf("missing input must error")
	}
}

func TestTrimAnchorsToLastPoint(t *testing.T) {
	s := series("a", 0, make([]float64, 100)...)
	got := TrimTrailingDays(s, 10)
	if len(got.Points) != 11 {
		t.Fatalf("want 11 trailing points, got %d", len(got.Points))
	}
	if got.Points[len(got.Points)-1].Timestamp != day(99) {
		t.Fatalf("anchor must be the last stored point")
	}
	if got.Points[0].Timestamp != day(89) {
		t.Fatalf("window start wrong: %d", got.Points[0].Timestamp)
	}
}

func TestTrimResultSharedWindow(t *testing.T) {
	a := series("a", 0, make([]float64, 50)...)
	r := &models.CompositeResult{
		Composite: a,
		Breakdown: []models.NormalizedSeries{series("b", 0, make([]float64, 50)...)},
	}
	got := TrimResult(r, 5)
	if len(got.Composite.Points) != 6 || len(got.Breakdown[0].Points) != 6 {
		t.Fatalf("breakdown must share the composite window: %d %d",
			len(got.Composite.Points), len(got.Breakdown[0].Points))
	}
}
