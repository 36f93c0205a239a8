package series

import (
	"sort"

	"DivPulse/internal/domain/models"
	"DivPulse/pkg/util"
)

// Tiebreak selects the winner among multiple intraday records that land on
// the same calendar day.
type Tiebreak int

const (
	// TiebreakFirst keeps the earliest record seen for the day.
	TiebreakFirst Tiebreak = iota
	// TiebreakLast keeps the latest record seen for the day.
	TiebreakLast
)

// ParseTiebreak maps a config string to a Tiebreak, defaulting to first.
func ParseTiebreak(s string) Tiebreak {
	if s == "last" {
		return TiebreakLast
	}
	return TiebreakFirst
}

type dayCandidate struct {
	point models.TimePoint
	rawTS int64
}

// NormalizeDaily projects raw provider records onto a continuous daily UTC
// grid. Timestamps of second resolution are scaled to milliseconds, each
// record is floored to UTC midnight, same-day duplicates resolve by the
// tiebreak, and days without data become explicit gaps. Malformed records
// (missing timestamp, wrong arity, OHLCV with high below low) are dropped
// and counted, never fatal.
func NormalizeDaily(raw []models.RawRecord, shape models.Shape, tb Tiebreak) ([]models.TimePoint, int) {
	byDay := make(map[int64]dayCandidate, len(raw))
	dropped := 0

	for _, rec := range raw {
		ts, ok := rec.Timestamp()
		if !ok {
			dropped++
			continue
		}
		rawTS := util.NormalizeEpochMS(ts)

		p, err := rec.Point(shape)
		if err != nil {
			dropped++
			continue
		}
		if shape == models.ShapeOHLCV && p.High != nil && p.Low != nil && *p.High < *p.Low {
			dropped++
			continue
		}

		day := util.TruncateDayMS(rawTS)
		p.Timestamp = day

		prev, exists := byDay[day]
		if !exists {
			byDay[day] = dayCandidate{point: p, rawTS: rawTS}
			continue
		}
		switch tb {
		case TiebreakLast:
			if rawTS >= prev.rawTS {
				byDay[day] = dayCandidate{point: p, rawTS: rawTS}
			}
		default:
			if rawTS < prev.rawTS {
				byDay[day] = dayCandidate{point: p, rawTS: rawTS}
			}
		}
	}

	if len(byDay) == 0 {
		return nil, dropped
	}

	days := make([]int64, 0, len(byDay))
	points := make(map[int64]models.TimePoint, len(byDay))
	for day, c := range byDay {
		days = append(days, day)
		points[day] = c.point
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	return fillGrid(points, days[0], days[len(days)-1]), dropped
}

// fillGrid expands sparse day-keyed points into a continuous grid between
// first and last inclusive, inserting gap points for missing days.
func fillGrid(points map[int64]models.TimePoint, first, last int64) []models.TimePoint {
	n := int((last-first)/models.DayMS) + 1
	out := make([]models.TimePoint, 0, n)
	for day := first; day <= last; day += models.DayMS {
		if p, ok := points[day]; ok {
			out = append(out, p)
		} else {
			out = append(out, models.Gap(day))
		}
	}
	return out
}

// Refill rebuilds grid continuity over a daily-aligned point slice,
// reinserting gap days lost when disjoint segments merge. Input order does
// not matter; the grid endpoints come from the extreme timestamps, so the
// result is always sorted.
func Refill(points []models.TimePoint) []models.TimePoint {
	if len(points) == 0 {
		return points
	}
	byDay := make(map[int64]models.TimePoint, len(points))
	first, last := points[0].Timestamp, points[0].Timestamp
	for _, p := range points {
		byDay[p.Timestamp] = p
		if p.Timestamp < first {
			first = p.Timestamp
		}
		if p.Timestamp > last {
			last = p.Timestamp
		}
	}
	return fillGrid(byDay, first, last)
}
