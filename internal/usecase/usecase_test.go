package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"DivPulse/internal/composite"
	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/repository"
	"DivPulse/internal/normalize"
	"DivPulse/internal/series"
	"DivPulse/internal/service/ratelimit"
	pkgcache "DivPulse/pkg/cache"
	"DivPulse/pkg/config"
	xhttp "DivPulse/pkg/http"
	applogger "DivPulse/pkg/logger"
)

type fakeFetcher struct {
	shape   models.Shape
	records []models.RawRecord
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, start, end int64) ([]models.RawRecord, error) {
	f.calls++
	out := make([]models.RawRecord, 0, len(f.records))
	for _, r := range f.records {
		ts, _ := r.Timestamp()
		if ts >= start && ts <= end {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFetcher) Shape() models.Shape { return f.shape }

type noMetrics struct{}

func (noMetrics) RecordFetch(string, string)        {}
func (noMetrics) RecordMergedPoints(string, int)    {}
func (noMetrics) RecordCache(string, string)        {}
func (noMetrics) RecordFitDuration(string, float64) {}
func (noMetrics) RecordError(string)                {}
func (noMetrics) RecordLatency(string, float64)     {}

// simpleRecords builds n daily values ending today from f(day index).
func simpleRecords(n int, f func(i int) float64) []models.RawRecord {
	end := time.Now().UTC().Truncate(24 * time.Hour).UnixMilli()
	out := make([]models.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		ts := float64(end - int64(n-1-i)*models.DayMS)
		v := f(i)
		out = append(out, models.RawRecord{&ts, &v})
	}
	return out
}

func quietLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newManager(t *testing.T, fetchers map[string]repository.Fetcher) *series.Manager {
	t.Helper()
	store, err := series.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return series.NewManager(store, fetchers,
		series.ManagerConfig{OverlapDays: 3, DefaultDays: 400, Tiebreak: series.TiebreakFirst},
		quietLogger(t), noMetrics{}, nil,
	)
}

func TestDataUsecaseUnknownDataset(t *testing.T) {
	u := NewDataUsecase(newManager(t, nil), pkgcache.NewMemoryCache(),
		ratelimit.New(), RateLimitConfig{}, time.Minute, quietLogger(t))

	_, err := u.GetData(context.Background(), &models.DataRequest{Dataset: "ghost", Days: 30})
	appErr, ok := err.(*xhttp.AppError)
	if !ok || appErr.Status != 404 {
		t.Fatalf("want 404 AppError, got %v", err)
	}
}

func TestDataUsecaseCachesResponse(t *testing.T) {
	fetcher := &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(40, func(i int) float64 { return float64(i) })}
	u := NewDataUsecase(newManager(t, map[string]repository.Fetcher{"gold": fetcher}),
		pkgcache.NewMemoryCache(), ratelimit.New(), RateLimitConfig{}, time.Minute, quietLogger(t))
	ctx := context.Background()
	req := &models.DataRequest{Dataset: "gold", Days: 30}

	first, err := u.GetData(ctx, req)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	if first.Cached {
		t.Fatalf("first response must not be cached")
	}
	calls := fetcher.calls

	second, err := u.GetData(ctx, req)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second response must come from cache")
	}
	if fetcher.calls != calls {
		t.Fatalf("cached response must not refetch")
	}
	if second.Dataset.Len() != first.Dataset.Len() {
		t.Fatalf("cache roundtrip changed the dataset: %d vs %d",
			second.Dataset.Len(), first.Dataset.Len())
	}
}

func TestDataUsecaseRefreshBypassesCache(t *testing.T) {
	fetcher := &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(40, func(i int) float64 { return float64(i) })}
	u := NewDataUsecase(newManager(t, map[string]repository.Fetcher{"gold": fetcher}),
		pkgcache.NewMemoryCache(), ratelimit.New(), RateLimitConfig{}, time.Minute, quietLogger(t))
	ctx := context.Background()

	if _, err := u.GetData(ctx, &models.DataRequest{Dataset: "gold", Days: 30}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	calls := fetcher.calls

	res, err := u.GetData(ctx, &models.DataRequest{Dataset: "gold", Days: 30, Refresh: true})
	if err != nil {
		t.Fatalf("refresh get: %v", err)
	}
	if res.Cached {
		t.Fatalf("refresh must not serve the cached response")
	}
	if fetcher.calls == calls {
		t.Fatalf("refresh must hit the upstream")
	}
}

func TestDataUsecaseRateLimit(t *testing.T) {
	fetcher := &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(40, func(i int) float64 { return float64(i) })}
	rl := RateLimitConfig{Enabled: true, Requests: 2, Window: time.Hour}
	u := NewDataUsecase(newManager(t, map[string]repository.Fetcher{"gold": fetcher}),
		pkgcache.NewMemoryCache(), ratelimit.New(), rl, time.Minute, quietLogger(t))
	ctx := context.Background()
	req := &models.DataRequest{Dataset: "gold", Days: 30}

	for i := 0; i < 2; i++ {
		if _, err := u.GetData(ctx, req); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	_, err := u.GetData(ctx, req)
	appErr, ok := err.(*xhttp.AppError)
	if !ok || appErr.Status != 429 {
		t.Fatalf("want 429 AppError, got %v", err)
	}
}

func TestDataUsecaseInvalidateCache(t *testing.T) {
	fetcher := &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(40, func(i int) float64 { return float64(i) })}
	u := NewDataUsecase(newManager(t, map[string]repository.Fetcher{"gold": fetcher}),
		pkgcache.NewMemoryCache(), ratelimit.New(), RateLimitConfig{}, time.Minute, quietLogger(t))
	ctx := context.Background()
	req := &models.DataRequest{Dataset: "gold", Days: 30}

	if _, err := u.GetData(ctx, req); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := u.InvalidateCache(ctx, "gold"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	res, err := u.GetData(ctx, req)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if res.Cached {
		t.Fatalf("invalidated entry must not be served")
	}
}

func compositeUnderTest(t *testing.T, fetchers map[string]repository.Fetcher, items []config.CompositeItem) *CompositeUsecase {
	t.Helper()
	mgr := newManager(t, fetchers)
	registry := normalize.DefaultRegistry()
	limiter := ratelimit.New()
	cacheSvc := pkgcache.NewMemoryCache()
	log := quietLogger(t)
	norm := NewNormalizeUsecase(mgr, registry, cacheSvc, limiter, RateLimitConfig{}, time.Minute, nil, log)
	return NewCompositeUsecase(mgr, registry, composite.New(), items,
		cacheSvc, limiter, RateLimitConfig{}, time.Minute, norm, log)
}

func TestCompositeUsecaseSkipsUnservableInput(t *testing.T) {
	n := 120
	fetchers := map[string]repository.Fetcher{
		"btc": &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(n, func(i int) float64 {
			return 100 + float64(i)
		})},
		"gold": &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(n, func(i int) float64 {
			return 2*(100+float64(i)) + 0.01*math.Sin(float64(i))
		})},
	}
	items := []config.CompositeItem{
		{Name: "gold", Weight: 0.5},
		{Name: "dxy", Weight: 0.5},
	}
	u := compositeUnderTest(t, fetchers, items)

	res, err := u.GetComposite(context.Background(), &models.CompositeRequest{
		Against: "btc",
		Days:    60,
		Window:  14,
		Variant: "levels",
	})
	if err != nil {
		t.Fatalf("composite: %v", err)
	}
	if len(res.Result.Composite.Points) == 0 {
		t.Fatalf("no composite points")
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Name != "dxy" {
		t.Fatalf("dxy must be reported as skipped: %+v", res.Skipped)
	}
	foundGold := false
	for _, b := range res.Result.Breakdown {
		if b.Name == "gold" {
			foundGold = true
		}
	}
	if !foundGold {
		t.Fatalf("breakdown must carry the surviving input")
	}
}

func TestCompositeUsecaseRejectsUnknownSubset(t *testing.T) {
	fetchers := map[string]repository.Fetcher{
		"btc": &fakeFetcher{shape: models.ShapeSimple, records: simpleRecords(60, func(i int) float64 { return float64(i) })},
	}
	items := []config.CompositeItem{{Name: "btc", Weight: 1}}
	u := compositeUnderTest(t, fetchers, items)

	_, err := u.GetComposite(context.Background(), &models.CompositeRequest{
		Against:  "btc",
		Days:     30,
		Window:   14,
		Variant:  "levels",
		Datasets: "silver",
	})
	appErr, ok := err.(*xhttp.AppError)
	if !ok || appErr.Status != 400 {
		t.Fatalf("want 400 AppError, got %v", err)
	}
}
