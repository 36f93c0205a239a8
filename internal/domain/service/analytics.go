package service

import (
	"context"

	"DivPulse/internal/domain/models"
)

// Normalizer scores one dataset against a benchmark on the shared daily grid.
type Normalizer interface {
	Normalize(ctx context.Context, target, benchmark *models.Dataset, window int) (models.NormalizedSeries, error)
	Variant() string
}

// Compositor combines normalized series into a weighted average with a
// per-input breakdown.
type Compositor interface {
	Compose(ctx context.Context, spec models.CompositeSpec, inputs []models.NormalizedSeries) (*models.CompositeResult, error)
}

// RegimeClassifier labels daily volatility states for one asset window.
type RegimeClassifier interface {
	Classify(ctx context.Context, asset string, days int, forceRefresh bool) (*models.RegimeResult, error)
}
