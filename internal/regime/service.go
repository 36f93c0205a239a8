package regime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/repository"
	"DivPulse/internal/series"
	"DivPulse/pkg/cache"
	applogger "DivPulse/pkg/logger"
)

// ServiceConfig tunes the classifier service.
type ServiceConfig struct {
	FitCacheTTL time.Duration
	// FallbackPercentile is the volatility percentile splitting Low from
	// High when the percentile fallback labels the window. Zero means 50.
	FallbackPercentile float64
	Markov             MarkovConfig
}

// Service classifies daily volatility regimes for managed OHLCV datasets.
// Converged fits are cached per (asset, days) so repeated reads within the
// TTL reuse the model instead of refitting.
type Service struct {
	manager *series.Manager
	cache   cache.Service
	cfg     ServiceConfig
	log     *applogger.Logger
	metrics repository.Metrics
}

func NewService(
	manager *series.Manager,
	fitCache cache.Service,
	cfg ServiceConfig,
	log *applogger.Logger,
	metrics repository.Metrics,
) *Service {
	if cfg.FitCacheTTL <= 0 {
		cfg.FitCacheTTL = time.Hour
	}
	if cfg.FallbackPercentile <= 0 {
		cfg.FallbackPercentile = 50
	}
	return &Service{
		manager: manager,
		cache:   fitCache,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
}

// Classify labels each day of the asset's trailing volatility window. The
// switching model is preferred; when it cannot fit, the percentile fallback
// labels the same window instead.
func (s *Service) Classify(ctx context.Context, asset string, days int, forceRefresh bool) (*models.RegimeResult, error) {
	key := cache.GenerateKeyWithParams("regime", asset, days)
	if !forceRefresh {
		var cached models.RegimeResult
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCache("regime_fit", "hit")
			return &cached, nil
		}
		s.metrics.RecordCache("regime_fit", "miss")
	}

	ds, err := s.manager.Get(ctx, asset, days, forceRefresh)
	if err != nil {
		return nil, err
	}
	if ds.Shape != models.ShapeOHLCV {
		return nil, fmt.Errorf("regime: dataset %q has no OHLC bars", asset)
	}

	vols := GarmanKlass(ds.Points)
	if len(vols) == 0 {
		return nil, fmt.Errorf("regime: no usable bars for %q", asset)
	}

	result := s.classifyVols(asset, days, vols)

	if err := s.cache.Set(ctx, key, result, s.cfg.FitCacheTTL); err != nil {
		s.log.Warn("regime fit cache set failed",
			applogger.String("asset", asset),
			applogger.Error(err),
		)
	}
	return result, nil
}

func (s *Service) classifyVols(asset string, days int, vols []VolPoint) *models.RegimeResult {
	vals := make([]float64, len(vols))
	for i, v := range vols {
		vals[i] = v.Value
	}

	start := time.Now()
	fit, err := FitMarkov(vals, s.cfg.Markov)
	s.metrics.RecordFitDuration(asset, time.Since(start).Seconds())

	if err != nil {
		if !errors.Is(err, ErrTooFewObservations) {
			s.metrics.RecordError("regime_fit")
		}
		s.log.Warn("switching model unavailable, using percentile fallback",
			applogger.String("asset", asset),
			applogger.Error(err),
		)
		points, threshold := PercentileFallback(vols, s.cfg.FallbackPercentile)
		return &models.RegimeResult{
			Asset:     asset,
			Days:      days,
			Method:    models.RegimeMethodPercentile,
			Points:    points,
			Threshold: threshold,
		}
	}

	// The first volatility value only seeds the AR lag, so labels start at
	// the second one.
	points := make([]models.RegimePoint, len(fit.SmoothedHigh))
	for t, p := range fit.SmoothedHigh {
		label := models.RegimeLow
		if p > 0.5 {
			label = models.RegimeHigh
		}
		points[t] = models.RegimePoint{
			Timestamp:  vols[t+1].Timestamp,
			Volatility: vols[t+1].Value,
			Label:      label,
			ProbHigh:   p,
		}
	}
	s.log.Info("regime model converged",
		applogger.String("asset", asset),
		applogger.Int("iterations", fit.Iterations),
		applogger.Float64("loglik", fit.LogLik),
	)
	return &models.RegimeResult{
		Asset:  asset,
		Days:   days,
		Method: models.RegimeMethodMarkov,
		Points: points,
	}
}

// Invalidate drops cached fits for one asset across all day windows.
func (s *Service) Invalidate(ctx context.Context, asset string) error {
	return s.cache.DeleteByPattern(ctx, cache.BuildPattern(cache.GenerateKey("regime", asset)))
}
