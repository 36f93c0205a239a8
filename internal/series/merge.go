package series

import (
	"sort"

	"DivPulse/internal/domain/models"
)

// Merge folds freshly fetched points into the stored series using the
// overlap-window rule: stored points strictly older than the overlap cutoff
// are kept as-is, everything from the cutoff on is rebuilt from the fresh
// fetch, and a fresh point wins any timestamp collision. The returned
// violations list carries timestamps where ordering broke; callers log them
// as a data-quality warning, the merge itself never fails on disorder.
func Merge(stored, fresh []models.TimePoint, overlapDays int) ([]models.TimePoint, []int64) {
	if len(stored) == 0 {
		return Refill(fresh), checkOrder(fresh)
	}
	if len(fresh) == 0 {
		return stored, nil
	}

	cutoff := stored[len(stored)-1].Timestamp - int64(overlapDays)*models.DayMS

	merged := make([]models.TimePoint, 0, len(stored)+len(fresh))
	for _, p := range stored {
		if p.Timestamp < cutoff {
			merged = append(merged, p)
		}
	}

	freshByDay := make(map[int64]bool, len(fresh))
	for _, p := range fresh {
		freshByDay[p.Timestamp] = true
	}
	// Stored points inside the window survive only if the fresh fetch did
	// not cover their day; otherwise the fresh copy replaces them below.
	for _, p := range stored {
		if p.Timestamp >= cutoff && !freshByDay[p.Timestamp] {
			merged = append(merged, p)
		}
	}
	for _, p := range fresh {
		merged = append(merged, p)
	}

	// Disorder in the raw concatenation is reported, then repaired.
	violations := checkOrder(merged)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return Refill(merged), violations
}

// checkOrder returns the timestamps at which the slice is not strictly
// increasing.
func checkOrder(points []models.TimePoint) []int64 {
	var violations []int64
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp <= points[i-1].Timestamp {
			violations = append(violations, points[i].Timestamp)
		}
	}
	return violations
}
