package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"DivPulse/internal/domain/models"
	"DivPulse/internal/domain/repository"
	applogger "DivPulse/pkg/logger"
	"DivPulse/pkg/util"
)

// ErrShapeMismatch is returned when a fetch produces records whose shape
// disagrees with the dataset's stored history. Mixing shapes inside one
// dataset is never repaired silently; the refresh fails instead.
var ErrShapeMismatch = errors.New("series: record shape mismatch")

// ManagerConfig tunes the incremental refresh behavior.
type ManagerConfig struct {
	// OverlapDays is how far back from the stored tail each refresh
	// re-fetches, so late upstream revisions get absorbed.
	OverlapDays int
	// DefaultDays is the initial fetch window for a dataset with no
	// stored history.
	DefaultDays int
	Tiebreak    Tiebreak
}

// Manager owns dataset lifecycle: incremental refresh with an overlap
// window, backfill when a request reaches before stored history, and
// stale-data fallback when the upstream is down.
type Manager struct {
	store    repository.DatasetStore
	fetchers map[string]repository.Fetcher
	cfg      ManagerConfig
	log      *applogger.Logger
	metrics  repository.Metrics
	pub      repository.Publisher
	now      func() time.Time
}

// NewManager wires the manager. Publisher may be nil when events are
// disabled.
func NewManager(
	store repository.DatasetStore,
	fetchers map[string]repository.Fetcher,
	cfg ManagerConfig,
	log *applogger.Logger,
	metrics repository.Metrics,
	pub repository.Publisher,
) *Manager {
	if cfg.OverlapDays <= 0 {
		cfg.OverlapDays = 5
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = 365
	}
	return &Manager{
		store:    store,
		fetchers: fetchers,
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		pub:      pub,
		now:      time.Now,
	}
}

// Names returns the managed dataset names.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.fetchers))
	for name := range m.fetchers {
		names = append(names, name)
	}
	return names
}

// Has reports whether the dataset is managed.
func (m *Manager) Has(name string) bool {
	_, ok := m.fetchers[name]
	return ok
}

// Get returns the dataset trimmed to the trailing day window, refreshing
// and backfilling as needed. When the upstream fetch fails but stored data
// exists, the stored copy is served and the error is only logged.
func (m *Manager) Get(ctx context.Context, name string, days int, refresh bool) (*models.Dataset, error) {
	fetcher, ok := m.fetchers[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}

	stored, err := m.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	if refresh || stored.Len() == 0 {
		stored, err = m.refresh(ctx, name, fetcher, stored)
		if err != nil {
			return nil, err
		}
	}

	stored, err = m.backfill(ctx, name, fetcher, stored, days)
	if err != nil {
		return nil, err
	}

	out := &models.Dataset{Name: name, Shape: stored.Shape, Points: stored.TailDays(days)}
	return out, nil
}

// Refresh fetches the incremental window for one dataset and merges it into
// the stored copy.
func (m *Manager) Refresh(ctx context.Context, name string) (*models.Dataset, error) {
	fetcher, ok := m.fetchers[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	stored, err := m.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return m.refresh(ctx, name, fetcher, stored)
}

// RefreshAll refreshes every managed dataset, collecting per-dataset
// failures instead of stopping at the first one.
func (m *Manager) RefreshAll(ctx context.Context) map[string]error {
	failures := make(map[string]error)
	for name := range m.fetchers {
		if _, err := m.Refresh(ctx, name); err != nil {
			failures[name] = err
		}
	}
	return failures
}

func (m *Manager) refresh(ctx context.Context, name string, fetcher repository.Fetcher, stored *models.Dataset) (*models.Dataset, error) {
	nowMS := m.now().UnixMilli()
	start := nowMS - int64(m.cfg.DefaultDays)*models.DayMS
	if last, ok := stored.Last(); ok {
		start = last.Timestamp - int64(m.cfg.OverlapDays)*models.DayMS
	}

	raw, err := fetcher.Fetch(ctx, start, nowMS)
	if err != nil {
		m.metrics.RecordFetch(name, "error")
		m.metrics.RecordError("fetch")
		if stored.Len() > 0 {
			m.log.Warn("fetch failed, serving stored data",
				applogger.String("dataset", name),
				applogger.Error(err),
			)
			return stored, nil
		}
		return nil, fmt.Errorf("fetch %q: %w", name, err)
	}
	m.metrics.RecordFetch(name, "ok")

	return m.mergeAndSave(ctx, name, fetcher.Shape(), stored, raw)
}

// backfill extends stored history when the requested window starts before
// the oldest stored point.
func (m *Manager) backfill(ctx context.Context, name string, fetcher repository.Fetcher, stored *models.Dataset, days int) (*models.Dataset, error) {
	first, ok := stored.First()
	if !ok {
		return stored, nil
	}
	last, _ := stored.Last()
	wantStart := util.TruncateDayMS(last.Timestamp - int64(days)*models.DayMS)
	if wantStart >= first.Timestamp {
		return stored, nil
	}

	raw, err := fetcher.Fetch(ctx, wantStart, first.Timestamp)
	if err != nil {
		m.metrics.RecordFetch(name, "error")
		m.log.Warn("backfill failed, serving stored range",
			applogger.String("dataset", name),
			applogger.Error(err),
		)
		return stored, nil
	}
	m.metrics.RecordFetch(name, "ok")
	if len(raw) == 0 {
		return stored, nil
	}

	return m.mergeAndSave(ctx, name, fetcher.Shape(), stored, raw)
}

func (m *Manager) mergeAndSave(ctx context.Context, name string, shape models.Shape, stored *models.Dataset, raw []models.RawRecord) (*models.Dataset, error) {
	if stored != nil && stored.Len() > 0 && stored.Shape != shape {
		m.metrics.RecordError("shape_mismatch")
		return nil, fmt.Errorf("dataset %q: stored shape %s, fetched shape %s: %w",
			name, stored.Shape, shape, ErrShapeMismatch)
	}

	fresh, dropped := NormalizeDaily(raw, shape, m.cfg.Tiebreak)
	if dropped > 0 {
		m.log.Warn("dropped malformed records",
			applogger.String("dataset", name),
			applogger.Int("dropped", dropped),
		)
		m.metrics.RecordError("malformed_record")
	}
	if len(fresh) == 0 && stored.Len() == 0 {
		return nil, fmt.Errorf("fetch %q: no usable records", name)
	}

	var storedPoints []models.TimePoint
	if stored != nil {
		storedPoints = stored.Points
	}
	merged, violations := Merge(storedPoints, fresh, m.cfg.OverlapDays)
	for _, ts := range violations {
		m.log.Warn("timestamp ordering violation",
			applogger.String("dataset", name),
			applogger.Int64("timestamp", ts),
		)
	}

	ds := &models.Dataset{Name: name, Shape: shape, Points: merged}
	if err := m.store.Save(ctx, ds); err != nil {
		return nil, err
	}
	added := len(merged) - len(storedPoints)
	if added < 0 {
		added = 0
	}
	m.metrics.RecordMergedPoints(name, added)
	m.log.Info("dataset refreshed",
		applogger.String("dataset", name),
		applogger.Int("points", len(merged)),
		applogger.Int("new_points", added),
	)

	if m.pub != nil {
		event := map[string]interface{}{
			"type":       "dataset.refreshed",
			"dataset":    name,
			"points":     len(merged),
			"new_points": added,
			"ts":         m.now().UnixMilli(),
		}
		if err := m.pub.Publish(ctx, name, event); err != nil {
			m.log.Warn("publish refresh event failed",
				applogger.String("dataset", name),
				applogger.Error(err),
			)
		}
	}
	return ds, nil
}
