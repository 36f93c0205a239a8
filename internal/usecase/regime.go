package usecase

import (
	"context"

	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/service"
	"DivPulse/internal/series"
	"DivPulse/internal/service/ratelimit"
	xhttp "DivPulse/pkg/http"
)

// RegimeResponse is the /api/regime payload.
type RegimeResponse struct {
	Result  *models.RegimeResult `json:"result"`
	Current *models.RegimePoint  `json:"current,omitempty"`
}

// RegimeUsecase fronts the regime classifier with rate limiting. Response
// caching lives inside the classifier's fit cache, keyed (asset, days).
type RegimeUsecase struct {
	manager    *series.Manager
	classifier service.RegimeClassifier
	limiter    *ratelimit.Limiter
	rl         RateLimitConfig
}

func NewRegimeUsecase(
	manager *series.Manager,
	classifier service.RegimeClassifier,
	limiter *ratelimit.Limiter,
	rl RateLimitConfig,
) *RegimeUsecase {
	return &RegimeUsecase{
		manager:    manager,
		classifier: classifier,
		limiter:    limiter,
		rl:         rl,
	}
}

func (u *RegimeUsecase) GetRegime(ctx context.Context, req *models.RegimeRequest) (*RegimeResponse, error) {
	if !u.manager.Has(req.Asset) {
		return nil, xhttp.NotFoundErrorf("unknown dataset %q", req.Asset)
	}
	if err := checkLimit(u.limiter, u.rl, "regime:"+req.Asset); err != nil {
		return nil, err
	}

	result, err := u.classifier.Classify(ctx, req.Asset, req.Days, req.ForceRefresh)
	if err != nil {
		return nil, xhttp.UnavailableErrorf("regime for %q unavailable", req.Asset).WithError(err)
	}

	resp := &RegimeResponse{Result: result}
	if current, ok := result.Current(); ok {
		resp.Current = &current
	}
	return resp, nil
}
