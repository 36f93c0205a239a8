package usecase

import (
	"context"
	"time"

	"DivPulse/internal/domain/models"
	"DivPulse/internal/series"
	"DivPulse/internal/service/ratelimit"
	pkgcache "DivPulse/pkg/cache"
	xhttp "DivPulse/pkg/http"
	applogger "DivPulse/pkg/logger"
)

// RateLimitConfig is the per-dataset request budget on read endpoints.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

func (c RateLimitConfig) refillPerSec() float64 {
	if c.Window <= 0 {
		return 1
	}
	return float64(c.Requests) / c.Window.Seconds()
}

// DatasetResponse is the /api/data payload.
type DatasetResponse struct {
	Dataset *models.Dataset `json:"dataset"`
	Days    int             `json:"days"`
	Cached  bool            `json:"cached"`
}

// DataUsecase serves raw daily datasets with a TTL response cache and a
// per-dataset rate limit in front of the series manager.
type DataUsecase struct {
	manager   *series.Manager
	respCache pkgcache.Service
	limiter   *ratelimit.Limiter
	rl        RateLimitConfig
	cacheTTL  time.Duration
	log       *applogger.Logger
}

func NewDataUsecase(
	manager *series.Manager,
	respCache pkgcache.Service,
	limiter *ratelimit.Limiter,
	rl RateLimitConfig,
	cacheTTL time.Duration,
	log *applogger.Logger,
) *DataUsecase {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DataUsecase{
		manager:   manager,
		respCache: respCache,
		limiter:   limiter,
		rl:        rl,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// checkLimit enforces the per-dataset budget shared by all usecases.
func checkLimit(limiter *ratelimit.Limiter, rl RateLimitConfig, key string) error {
	if !rl.Enabled {
		return nil
	}
	if limiter.Allow(key, float64(rl.Requests), rl.refillPerSec()) {
		return nil
	}
	return xhttp.TooManyRequestsError("rate limit exceeded for " + key)
}

func (u *DataUsecase) GetData(ctx context.Context, req *models.DataRequest) (*DatasetResponse, error) {
	if !u.manager.Has(req.Dataset) {
		return nil, xhttp.NotFoundErrorf("unknown dataset %q", req.Dataset)
	}
	if err := checkLimit(u.limiter, u.rl, "data:"+req.Dataset); err != nil {
		return nil, err
	}

	key := pkgcache.GenerateKeyWithParams("data", req.Dataset, req.Days)
	if !req.Refresh {
		var cached DatasetResponse
		if err := u.respCache.Get(ctx, key, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
	}

	ds, err := u.manager.Get(ctx, req.Dataset, req.Days, req.Refresh)
	if err != nil {
		return nil, xhttp.UnavailableErrorf("dataset %q unavailable", req.Dataset).WithError(err)
	}

	resp := &DatasetResponse{Dataset: ds, Days: req.Days}
	if err := u.respCache.Set(ctx, key, resp, u.cacheTTL); err != nil {
		u.log.Warn("response cache set failed", applogger.Error(err))
	}
	return resp, nil
}

// InvalidateCache drops cached responses, either for one dataset or all.
func (u *DataUsecase) InvalidateCache(ctx context.Context, dataset string) error {
	if dataset == "" {
		return u.respCache.DeleteByPattern(ctx, pkgcache.BuildPattern("data"))
	}
	return u.respCache.DeleteByPattern(ctx,
		pkgcache.BuildPattern(pkgcache.GenerateKey("data", dataset)))
}
