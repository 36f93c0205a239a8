package provider

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/repository"
	applogger "DivPulse/pkg/logger"
)

// RetryConfig tunes upstream retry behavior.
type RetryConfig struct {
	MaxRetries int
	BackoffMin time.Duration
	BackoffMax time.Duration
}

// RetryingFetcher wraps a fetcher with exponential backoff. Context
// cancellation stops the retry loop immediately.
type RetryingFetcher struct {
	inner repository.Fetcher
	cfg   RetryConfig
	log   *applogger.Logger
	name  string
}

func WithRetry(name string, inner repository.Fetcher, cfg RetryConfig, log *applogger.Logger) *RetryingFetcher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 500 * time.Millisecond
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	return &RetryingFetcher{inner: inner, cfg: cfg, log: log, name: name}
}

func (f *RetryingFetcher) Shape() models.Shape { return f.inner.Shape() }

func (f *RetryingFetcher) Fetch(ctx context.Context, start, end int64) ([]models.RawRecord, error) {
	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = f.cfg.BackoffMin
	strategy.MaxInterval = f.cfg.BackoffMax

	var out []models.RawRecord
	attempt := 0
	operation := func() error {
		attempt++
		records, err := f.inner.Fetch(ctx, start, end)
		if err != nil {
			f.log.Warn("fetch attempt failed",
				applogger.String("dataset", f.name),
				applogger.Int("attempt", attempt),
				applogger.Error(err),
			)
			return err
		}
		out = records
		return nil
	}

	wrapped := backoff.WithContext(
		backoff.WithMaxRetries(strategy, uint64(f.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(operation, wrapped); err != nil {
		return nil, err
	}
	return out, nil
}
