package normalize

import (
	"context"
	"fmt"

	"DivPulse/internal/domain/models"
)

// Levels scores how far a dataset's raw level sits from where its rolling
// regression against the benchmark predicts it should be, in units of the
// window's residual spread.
type Levels struct{}

func NewLevels() *Levels { return &Levels{} }

func (n *Levels) Variant() string { return "levels" }

func (n *Levels) Normalize(_ context.Context, target, benchmark *models.Dataset, window int) (models.NormalizedSeries, error) {
	if target.Len() == 0 || benchmark.Len() == 0 {
		return models.NormalizedSeries{}, fmt.Errorf("levels: empty input series")
	}
	if window <= 0 {
		return models.NormalizedSeries{}, fmt.Errorf("levels: window must be positive")
	}

	ts, y, x := alignForwardFill(target, benchmark)
	points := rollingZScores(ts, y, x, window)
	return models.NormalizedSeries{Name: target.Name, Points: points}, nil
}
