package usecase

import (
	"context"
	"math"
	"time"

	"DivPulse/internal/composite"
	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/repository"
	"DivPulse/internal/events"
	"DivPulse/internal/normalize"
	"DivPulse/internal/series"
	"DivPulse/internal/service/ratelimit"
	pkgcache "DivPulse/pkg/cache"
	xhttp "DivPulse/pkg/http"
	applogger "DivPulse/pkg/logger"
)

// divergenceAlertThreshold is the absolute score past which the latest
// point triggers an alert event.
const divergenceAlertThreshold = 2.0

// NormalizedResponse is the /api/normalized payload.
type NormalizedResponse struct {
	Series  models.NormalizedSeries `json:"series"`
	Against string                  `json:"against"`
	Variant string                  `json:"variant"`
	Window  int                     `json:"window"`
	Days    int                     `json:"days"`
	Cached  bool                    `json:"cached"`
}

// NormalizeUsecase scores one dataset against a benchmark via the variant
// registry. Emitted windows include a warm-up margin before the requested
// range so the first requested day already has a full regression window.
type NormalizeUsecase struct {
	manager   *series.Manager
	registry  *normalize.Registry
	respCache pkgcache.Service
	limiter   *ratelimit.Limiter
	rl        RateLimitConfig
	cacheTTL  time.Duration
	pub       repository.Publisher
	log       *applogger.Logger
}

func NewNormalizeUsecase(
	manager *series.Manager,
	registry *normalize.Registry,
	respCache pkgcache.Service,
	limiter *ratelimit.Limiter,
	rl RateLimitConfig,
	cacheTTL time.Duration,
	pub repository.Publisher,
	log *applogger.Logger,
) *NormalizeUsecase {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &NormalizeUsecase{
		manager:   manager,
		registry:  registry,
		respCache: respCache,
		limiter:   limiter,
		rl:        rl,
		cacheTTL:  cacheTTL,
		pub:       pub,
		log:       log,
	}
}

func (u *NormalizeUsecase) GetNormalized(ctx context.Context, req *models.NormalizedRequest) (*NormalizedResponse, error) {
	if !u.manager.Has(req.Dataset) {
		return nil, xhttp.NotFoundErrorf("unknown dataset %q", req.Dataset)
	}
	if !u.manager.Has(req.Against) {
		return nil, xhttp.NotFoundErrorf("unknown benchmark %q", req.Against)
	}
	if err := checkLimit(u.limiter, u.rl, "normalized:"+req.Dataset); err != nil {
		return nil, err
	}

	key := pkgcache.GenerateKeyWithParams("normalized", req.Dataset, req.Against, req.Days, req.Window, req.Variant)
	var cached NormalizedResponse
	if err := u.respCache.Get(ctx, key, &cached); err == nil {
		cached.Cached = true
		return &cached, nil
	}

	seriesOut, err := u.compute(ctx, req.Dataset, req.Against, req.Days, req.Window, req.Variant)
	if err != nil {
		return nil, err
	}

	resp := &NormalizedResponse{
		Series:  seriesOut,
		Against: req.Against,
		Variant: req.Variant,
		Window:  req.Window,
		Days:    req.Days,
	}
	if err := u.respCache.Set(ctx, key, resp, u.cacheTTL); err != nil {
		u.log.Warn("response cache set failed", applogger.Error(err))
	}

	u.maybeAlert(ctx, req.Dataset, req.Against, req.Variant, seriesOut)
	return resp, nil
}

// compute fetches both datasets with the warm-up margin, runs the variant,
// and trims the score series back to the requested day window.
func (u *NormalizeUsecase) compute(ctx context.Context, dataset, against string, days, window int, variant string) (models.NormalizedSeries, error) {
	norm, err := u.registry.Get(variant)
	if err != nil {
		return models.NormalizedSeries{}, xhttp.BadRequestError(err.Error())
	}

	fetchDays := days + window + 1
	target, err := u.manager.Get(ctx, dataset, fetchDays, false)
	if err != nil {
		return models.NormalizedSeries{}, xhttp.UnavailableErrorf("dataset %q unavailable", dataset).WithError(err)
	}
	benchmark, err := u.manager.Get(ctx, against, fetchDays, false)
	if err != nil {
		return models.NormalizedSeries{}, xhttp.UnavailableErrorf("benchmark %q unavailable", against).WithError(err)
	}

	out, err := norm.Normalize(ctx, target, benchmark, window)
	if err != nil {
		return models.NormalizedSeries{}, xhttp.InternalErrorf("normalize %q: %v", dataset, err)
	}
	return composite.TrimTrailingDays(out, days), nil
}

// maybeAlert publishes a divergence event when the latest score crosses the
// alert threshold. Alerting is best effort and never fails the request.
func (u *NormalizeUsecase) maybeAlert(ctx context.Context, dataset, against, variant string, s models.NormalizedSeries) {
	if u.pub == nil {
		return
	}
	last, ok := s.Last()
	if !ok || math.Abs(last.Value) < divergenceAlertThreshold {
		return
	}
	alert := events.DivergenceAlert{
		Type:      "divergence.alert",
		Dataset:   dataset,
		Against:   against,
		Variant:   variant,
		Score:     last.Value,
		Timestamp: last.Timestamp,
	}
	if err := u.pub.Publish(ctx, dataset, alert); err != nil {
		u.log.Warn("divergence alert publish failed",
			applogger.String("dataset", dataset),
			applogger.Error(err),
		)
	}
}
