package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"DivPulse/internal/composite"
	"DivPulse/internal/domain/models"
	"DivPulse/internal/normalize"
	"DivPulse/internal/series"
	"DivPulse/internal/service/ratelimit"
	pkgcache "DivPulse/pkg/cache"
	"DivPulse/pkg/config"
	xhttp "DivPulse/pkg/http"
	applogger "DivPulse/pkg/logger"
)

// SkippedInput explains why one configured input was left out of a
// composite instead of failing the whole request.
type SkippedInput struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CompositeResponse is the /api/composite payload.
type CompositeResponse struct {
	Result  *models.CompositeResult `json:"result"`
	Skipped []SkippedInput          `json:"skipped,omitempty"`
	Against string                  `json:"against"`
	Variant string                  `json:"variant"`
	Window  int                     `json:"window"`
	Days    int                     `json:"days"`
	Cached  bool                    `json:"cached"`
}

// CompositeUsecase normalizes every configured input against the benchmark
// and averages the survivors. Inputs that cannot be scored are reported as
// skipped; a structural problem (no inputs left, no shared timestamps)
// fails the request.
type CompositeUsecase struct {
	manager    *series.Manager
	registry   *normalize.Registry
	compositor *composite.Compositor
	items      []config.CompositeItem
	respCache  pkgcache.Service
	limiter    *ratelimit.Limiter
	rl         RateLimitConfig
	cacheTTL   time.Duration
	normalizer *NormalizeUsecase
	log        *applogger.Logger
}

func NewCompositeUsecase(
	manager *series.Manager,
	registry *normalize.Registry,
	compositor *composite.Compositor,
	items []config.CompositeItem,
	respCache pkgcache.Service,
	limiter *ratelimit.Limiter,
	rl RateLimitConfig,
	cacheTTL time.Duration,
	normalizer *NormalizeUsecase,
	log *applogger.Logger,
) *CompositeUsecase {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &CompositeUsecase{
		manager:    manager,
		registry:   registry,
		compositor: compositor,
		items:      items,
		respCache:  respCache,
		limiter:    limiter,
		rl:         rl,
		cacheTTL:   cacheTTL,
		normalizer: normalizer,
		log:        log,
	}
}

func (u *CompositeUsecase) GetComposite(ctx context.Context, req *models.CompositeRequest) (*CompositeResponse, error) {
	if !u.manager.Has(req.Against) {
		return nil, xhttp.NotFoundErrorf("unknown benchmark %q", req.Against)
	}
	if err := checkLimit(u.limiter, u.rl, "composite:"+req.Against); err != nil {
		return nil, err
	}

	items, err := u.selectItems(req.Datasets)
	if err != nil {
		return nil, err
	}

	key := pkgcache.GenerateKeyWithParams("composite", req.Against, req.Days, req.Window, req.Variant, req.Datasets, req.Weighted)
	var cached CompositeResponse
	if err := u.respCache.Get(ctx, key, &cached); err == nil {
		cached.Cached = true
		return &cached, nil
	}

	var (
		inputs  []models.NormalizedSeries
		spec    models.CompositeSpec
		skipped []SkippedInput
	)
	spec.EqualWeights = !req.Weighted

	for _, item := range items {
		if item.Name == req.Against {
			continue
		}
		s, err := u.normalizer.compute(ctx, item.Name, req.Against, req.Days, req.Window, req.Variant)
		if err != nil {
			skipped = append(skipped, SkippedInput{Name: item.Name, Reason: reason(err)})
			continue
		}
		if len(s.Points) == 0 {
			skipped = append(skipped, SkippedInput{Name: item.Name, Reason: "no scorable points"})
			continue
		}
		inputs = append(inputs, s)
		spec.Inputs = append(spec.Inputs, models.CompositeInput{
			Name:   item.Name,
			Weight: item.Weight,
			Invert: item.Invert,
		})
	}

	if len(inputs) == 0 {
		return nil, xhttp.UnavailableError("no composite inputs could be scored")
	}

	result, err := u.compositor.Compose(ctx, spec, inputs)
	if err != nil {
		if errors.Is(err, composite.ErrNoOverlap) {
			return nil, xhttp.UnavailableError("composite inputs share no timestamps")
		}
		return nil, xhttp.InternalErrorf("compose: %v", err)
	}
	result = composite.TrimResult(result, req.Days)

	resp := &CompositeResponse{
		Result:  result,
		Skipped: skipped,
		Against: req.Against,
		Variant: req.Variant,
		Window:  req.Window,
		Days:    req.Days,
	}
	if err := u.respCache.Set(ctx, key, resp, u.cacheTTL); err != nil {
		u.log.Warn("response cache set failed", applogger.Error(err))
	}
	return resp, nil
}

// selectItems narrows the configured inputs to the requested subset.
func (u *CompositeUsecase) selectItems(subset string) ([]config.CompositeItem, error) {
	if len(u.items) == 0 {
		return nil, xhttp.BadRequestError("no composite inputs configured")
	}
	if subset == "" {
		return u.items, nil
	}
	byName := make(map[string]config.CompositeItem, len(u.items))
	for _, item := range u.items {
		byName[item.Name] = item
	}
	var out []config.CompositeItem
	for _, name := range strings.Split(subset, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		item, ok := byName[name]
		if !ok {
			return nil, xhttp.BadRequestErrorf("dataset %q is not a composite input", name)
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, xhttp.BadRequestError("empty dataset selection")
	}
	return out, nil
}

func reason(err error) string {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
