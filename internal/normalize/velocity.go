package normalize

import (
	"context"
	"fmt"

	"DivPulse/internal/domain/models"
)

// Velocity scores divergence in rates of change instead of raw levels:
// both series become daily log returns before the rolling regression runs.
// Each return carries the timestamp of the later of its two source days.
// Non-positive values cannot produce a log return and invalidate the step.
type Velocity struct{}

func NewVelocity() *Velocity { return &Velocity{} }

func (n *Velocity) Variant() string { return "velocity" }

func (n *Velocity) Normalize(_ context.Context, target, benchmark *models.Dataset, window int) (models.NormalizedSeries, error) {
	if target.Len() == 0 || benchmark.Len() == 0 {
		return models.NormalizedSeries{}, fmt.Errorf("velocity: empty input series")
	}
	if window <= 0 {
		return models.NormalizedSeries{}, fmt.Errorf("velocity: window must be positive")
	}

	ts, y, x := alignForwardFill(target, benchmark)
	// Index 0 of the return arrays is structurally empty (no prior day), so
	// it is cut rather than counted against the regression window. The first
	// scorable day is therefore one later than in the levels variant.
	points := rollingZScores(ts[1:], logVelocity(y)[1:], logVelocity(x)[1:], window)
	return models.NormalizedSeries{Name: target.Name, Points: points}, nil
}
