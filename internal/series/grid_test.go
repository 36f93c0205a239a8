package series

import (
	"testing"
	"time"

	"DivPulse/internal/domain/models"
)

func dayMS(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func rec(vals ...float64) models.RawRecord {
	r := make(models.RawRecord, len(vals))
	for i := range vals {
		v := vals[i]
		r[i] = &v
	}
	return r
}

func TestNormalizeDailyContinuity(t *testing.T) {
	d1 := dayMS(2024, 3, 1)
	d4 := dayMS(2024, 3, 4)
	raw := []models.RawRecord{
		rec(float64(d1), 10),
		rec(float64(d4), 40),
	}
	points, dropped := NormalizeDaily(raw, models.ShapeSimple, TiebreakFirst)
	if dropped != 0 {
		t.Fatalf("unexpected drops: %d", dropped)
	}
	if len(points) != 4 {
		t.Fatalf("want 4 grid days, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp-points[i-1].Timestamp != models.DayMS {
			t.Fatalf("grid not continuous at %d", i)
		}
	}
	if !points[1].IsGap(models.ShapeSimple) || !points[2].IsGap(models.ShapeSimple) {
		t.Fatalf("missing days must be gaps")
	}
	if *points[0].Value != 10 || *points[3].Value != 40 {
		t.Fatalf("values misplaced")
	}
}

func TestNormalizeDailySecondsHeuristic(t *testing.T) {
	d := dayMS(2024, 3, 1)
	raw := []models.RawRecord{rec(float64(d/1000), 7)}
	points, _ := NormalizeDaily(raw, models.ShapeSimple, TiebreakFirst)
	if len(points) != 1 || points[0].Timestamp != d {
		t.Fatalf("seconds timestamp not normalized: %+v", points)
	}
}

func TestNormalizeDailyTiebreak(t *testing.T) {
	d := dayMS(2024, 3, 1)
	raw := []models.RawRecord{
		rec(float64(d+3_600_000), 1), // 01:00
		rec(float64(d+7_200_000), 2), // 02:00
	}

	first, _ := NormalizeDaily(raw, models.ShapeSimple, TiebreakFirst)
	if len(first) != 1 || *first[0].Value != 1 {
		t.Fatalf("first tiebreak: got %+v", first)
	}

	last, _ := NormalizeDaily(raw, models.ShapeSimple, TiebreakLast)
	if len(last) != 1 || *last[0].Value != 2 {
		t.Fatalf("last tiebreak: got %+v", last)
	}
}

func TestNormalizeDailyDropsMalformed(t *testing.T) {
	d := dayMS(2024, 3, 1)
	badHL := rec(float64(d), 10, 5, 8, 9, 100) // high < low
	okBar := rec(float64(d+models.DayMS), 10, 12, 9, 11, 100)
	noTS := models.RawRecord{nil, rec(1)[0]}
	shortRec := rec(float64(d + 2*models.DayMS))

	points, dropped := NormalizeDaily(
		[]models.RawRecord{badHL, okBar, noTS, shortRec},
		models.ShapeOHLCV, TiebreakFirst,
	)
	if dropped != 3 {
		t.Fatalf("want 3 drops, got %d", dropped)
	}
	if len(points) != 1 || points[0].IsGap(models.ShapeOHLCV) {
		t.Fatalf("valid bar lost: %+v", points)
	}
}

func TestRefillRestoresGaps(t *testing.T) {
	d1 := dayMS(2024, 3, 1)
	points := []models.TimePoint{
		models.SimplePoint(d1, 1),
		models.SimplePoint(d1+3*models.DayMS, 4),
	}
	out := Refill(points)
	if len(out) != 4 {
		t.Fatalf("want 4 days, got %d", len(out))
	}
	if !out[1].IsGap(models.ShapeSimple) || !out[2].IsGap(models.ShapeSimple) {
		t.Fatalf("gaps not restored")
	}
}
