package repository

import (
	"context"

	"DivPulse/internal/domain/models"
)

// DatasetStore persists daily datasets between refresh cycles.
type DatasetStore interface {
	Load(ctx context.Context, name string) (*models.Dataset, error)
	Save(ctx context.Context, ds *models.Dataset) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Fetcher pulls raw records for one dataset from its upstream source.
type Fetcher interface {
	// Fetch returns records covering [start, end] in epoch milliseconds.
	// Records may arrive unordered, duplicated, or partially null.
	Fetch(ctx context.Context, start, end int64) ([]models.RawRecord, error)
	Shape() models.Shape
}

// Publisher emits domain events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

// Metrics records operational counters for the refresh and scoring paths.
type Metrics interface {
	RecordFetch(dataset, outcome string)
	RecordMergedPoints(dataset string, n int)
	RecordCache(op, outcome string)
	RecordFitDuration(asset string, seconds float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
