package series

import (
	"testing"

	"DivPulse/internal/domain/models"
)

func simpleSeries(start int64, vals ...float64) []models.TimePoint {
	out := make([]models.TimePoint, 0, len(vals))
	for i, v := range vals {
		out = append(out, models.SimplePoint(start+int64(i)*models.DayMS, v))
	}
	return out
}

func TestMergeFreshWinsInsideOverlap(t *testing.T) {
	start := dayMS(2024, 3, 1)
	stored := simpleSeries(start, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	// Overlap 3: cutoff at day 6. Fresh covers days 7..10 and wins there;
	// day 6 stays stored because fresh missed it.
	fresh := simpleSeries(start+7*models.DayMS, 80, 90, 100, 110)

	merged, violations := Merge(stored, fresh, 3)
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	if len(merged) != 11 {
		t.Fatalf("want 11 points, got %d", len(merged))
	}
	if *merged[6].Value != 7 {
		t.Fatalf("pre-cutoff point replaced: %v", *merged[6].Value)
	}
	for i, want := range []float64{80, 90, 100, 110} {
		got := merged[7+i]
		if got.Value == nil || *got.Value != want {
			t.Fatalf("overlap day %d not replaced by fresh", i)
		}
	}
}

func TestMergeKeepsStoredDaysFreshMissed(t *testing.T) {
	start := dayMS(2024, 3, 1)
	stored := simpleSeries(start, 1, 2, 3, 4, 5)
	// Fresh covers only the last day of the 2-day overlap window.
	fresh := []models.TimePoint{models.SimplePoint(start+4*models.DayMS, 50)}

	merged, _ := Merge(stored, fresh, 2)
	if len(merged) != 5 {
		t.Fatalf("want 5 points, got %d", len(merged))
	}
	if merged[3].Value == nil || *merged[3].Value != 4 {
		t.Fatalf("uncovered stored day lost")
	}
	if *merged[4].Value != 50 {
		t.Fatalf("fresh day not applied")
	}
}

func TestMergeIdempotent(t *testing.T) {
	start := dayMS(2024, 3, 1)
	stored := simpleSeries(start, 1, 2, 3, 4, 5)
	fresh := simpleSeries(start+3*models.DayMS, 4, 5)

	once, _ := Merge(stored, fresh, 2)
	twice, _ := Merge(once, fresh, 2)
	if len(once) != len(twice) {
		t.Fatalf("length changed on re-merge: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Timestamp != twice[i].Timestamp {
			t.Fatalf("timestamp drift at %d", i)
		}
		a, b := once[i].Value, twice[i].Value
		if (a == nil) != (b == nil) || (a != nil && *a != *b) {
			t.Fatalf("value drift at %d", i)
		}
	}
}

func TestMergeEmptyStored(t *testing.T) {
	start := dayMS(2024, 3, 1)
	fresh := simpleSeries(start, 1, 2, 3)
	merged, violations := Merge(nil, fresh, 5)
	if len(merged) != 3 || len(violations) != 0 {
		t.Fatalf("got %d points, %d violations", len(merged), len(violations))
	}
}

func TestMergeEmptyStoredUnsortedFresh(t *testing.T) {
	start := dayMS(2024, 3, 1)
	fresh := []models.TimePoint{
		models.SimplePoint(start+2*models.DayMS, 3),
		models.SimplePoint(start, 1),
		models.SimplePoint(start+models.DayMS, 2),
	}

	merged, _ := Merge(nil, fresh, 3)
	if len(merged) != 3 {
		t.Fatalf("want 3 sorted points, got %d: %v", len(merged), merged)
	}
	for i, want := range []float64{1, 2, 3} {
		p := merged[i]
		if p.Timestamp != start+int64(i)*models.DayMS {
			t.Fatalf("point %d out of order: %d", i, p.Timestamp)
		}
		if p.Value == nil || *p.Value != want {
			t.Fatalf("point %d value wrong", i)
		}
	}
}

func TestMergeDisjointSegmentsRefilled(t *testing.T) {
	start := dayMS(2024, 3, 1)
	stored := simpleSeries(start, 1, 2)
	// Fresh starts 3 days after stored ends, leaving a hole to refill.
	fresh := simpleSeries(start+5*models.DayMS, 6, 7)

	merged, _ := Merge(stored, fresh, 1)
	if len(merged) != 7 {
		t.Fatalf("want continuous 7-day grid, got %d", len(merged))
	}
	for _, i := range []int{2, 3, 4} {
		if !merged[i].IsGap(models.ShapeSimple) {
			t.Fatalf("day %d should be a gap", i)
		}
	}
}
