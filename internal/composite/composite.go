package composite

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"DivPulse/internal/domain/models"
)

// ErrNoOverlap is returned when the input series share no timestamps.
var ErrNoOverlap = errors.New("composite: input series share no timestamps")

// Compositor combines normalized series on their shared timestamp grid.
type Compositor struct{}

func New() *Compositor { return &Compositor{} }

// Compose averages the inputs over the intersection of their timestamps.
// Weights renormalize over the series actually present in the spec, and
// inverted inputs flip sign inside the average only: the returned breakdown
// always carries the original values.
func (c *Compositor) Compose(_ context.Context, spec models.CompositeSpec, inputs []models.NormalizedSeries) (*models.CompositeResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	byName := make(map[string]map[int64]float64, len(inputs))
	for _, s := range inputs {
		m := make(map[int64]float64, len(s.Points))
		for _, p := range s.Points {
			m[p.Timestamp] = p.Value
		}
		byName[s.Name] = m
	}
	for _, in := range spec.Inputs {
		if _, ok := byName[in.Name]; !ok {
			return nil, fmt.Errorf("composite: missing input series %q", in.Name)
		}
	}

	shared := intersectTimestamps(spec, byName)
	if len(shared) == 0 {
		return nil, ErrNoOverlap
	}

	weightTotal := 0.0
	weights := make(map[string]float64, len(spec.Inputs))
	for _, in := range spec.Inputs {
		w := in.Weight
		if spec.EqualWeights {
			w = 1
		}
		weights[in.Name] = w
		weightTotal += w
	}

	composite := models.NormalizedSeries{Name: "composite", Points: make([]models.NormalizedPoint, 0, len(shared))}
	breakdown := make([]models.NormalizedSeries, len(spec.Inputs))
	for i, in := range spec.Inputs {
		breakdown[i] = models.NormalizedSeries{Name: in.Name, Points: make([]models.NormalizedPoint, 0, len(shared))}
	}

	for _, ts := range shared {
		sum := 0.0
		for i, in := range spec.Inputs {
			v := byName[in.Name][ts]
			breakdown[i].Points = append(breakdown[i].Points, models.NormalizedPoint{Timestamp: ts, Value: v})
			if in.Invert {
				v = -v
			}
			sum += weights[in.Name] * v
		}
		composite.Points = append(composite.Points, models.NormalizedPoint{Timestamp: ts, Value: sum / weightTotal})
	}

	return &models.CompositeResult{Composite: composite, Breakdown: breakdown}, nil
}

// intersectTimestamps returns the sorted timestamps present in every spec
// input.
func intersectTimestamps(spec models.CompositeSpec, byName map[string]map[int64]float64) []int64 {
	var shared []int64
	first := byName[spec.Inputs[0].Name]
	for ts := range first {
		inAll := true
		for _, in := range spec.Inputs[1:] {
			if _, ok := byName[in.Name][ts]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			shared = append(shared, ts)
		}
	}
	sort.Slice(shared, func(i, j int) bool { return shared[i] < shared[j] })
	return shared
}

// TrimTrailingDays cuts a series to the trailing day window anchored at its
// own last point, not the wall clock, so a stale series keeps its full tail.
func TrimTrailingDays(s models.NormalizedSeries, days int) models.NormalizedSeries {
	if len(s.Points) == 0 || days <= 0 {
		return s
	}
	cutoff := s.Points[len(s.Points)-1].Timestamp - int64(days)*models.DayMS
	for i, p := range s.Points {
		if p.Timestamp >= cutoff {
			return models.NormalizedSeries{Name: s.Name, Points: s.Points[i:]}
		}
	}
	return models.NormalizedSeries{Name: s.Name}
}

// TrimResult applies TrimTrailingDays to a composite result, anchoring the
// breakdown to the composite's window.
func TrimResult(r *models.CompositeResult, days int) *models.CompositeResult {
	if r == nil || len(r.Composite.Points) == 0 || days <= 0 {
		return r
	}
	cutoff := r.Composite.Points[len(r.Composite.Points)-1].Timestamp - int64(days)*models.DayMS
	out := &models.CompositeResult{
		Composite: trimAt(r.Composite, cutoff),
		Breakdown: make([]models.NormalizedSeries, len(r.Breakdown)),
	}
	for i, s := range r.Breakdown {
		out.Breakdown[i] = trimAt(s, cutoff)
	}
	return out
}

func trimAt(s models.NormalizedSeries, cutoff int64) models.NormalizedSeries {
	for i, p := range s.Points {
		if p.Timestamp >= cutoff {
			return models.NormalizedSeries{Name: s.Name, Points: s.Points[i:]}
		}
	}
	return models.NormalizedSeries{Name: s.Name}
}
