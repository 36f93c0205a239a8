package usecase

import (
	"context"
	"time"

	"DivPulse/internal/domain/repository"
	"DivPulse/internal/series"
	"DivPulse/pkg/config"
	applogger "DivPulse/pkg/logger"
	"DivPulse/pkg/util"
)

// DatasetInfo describes one managed dataset for the registry endpoint.
type DatasetInfo struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Shape       string `json:"shape"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points"`
	FirstTS     int64  `json:"first_ts,omitempty"`
	LastTS      int64  `json:"last_ts,omitempty"`
	FirstDay    string `json:"first_day,omitempty"`
	LastDay     string `json:"last_day,omitempty"`
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Environment  string                         `json:"environment"`
	StoreHealthy bool                           `json:"store_healthy"`
	Datasets     int                            `json:"datasets"`
	Uptime       string                         `json:"uptime"`
	RecentErrors []applogger.AggregatedLogEntry `json:"recent_errors"`
}

// StatusUsecase reports the dataset registry and service health.
type StatusUsecase struct {
	cfg       *config.Config
	manager   *series.Manager
	store     repository.DatasetStore
	log       *applogger.Logger
	startedAt time.Time
}

func NewStatusUsecase(
	cfg *config.Config,
	manager *series.Manager,
	store repository.DatasetStore,
	log *applogger.Logger,
) *StatusUsecase {
	return &StatusUsecase{
		cfg:       cfg,
		manager:   manager,
		store:     store,
		log:       log,
		startedAt: time.Now(),
	}
}

// ListDatasets returns configured datasets with their stored coverage.
func (u *StatusUsecase) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	out := make([]DatasetInfo, 0, len(u.cfg.Datasets))
	for _, d := range u.cfg.Datasets {
		info := DatasetInfo{
			Name:        d.Name,
			Source:      d.Source,
			Description: d.Description,
		}
		ds, err := u.store.Load(ctx, d.Name)
		if err != nil {
			u.log.Warn("load dataset for registry failed",
				applogger.String("dataset", d.Name),
				applogger.Error(err),
			)
		}
		if ds != nil {
			info.Shape = ds.Shape.String()
			info.Points = ds.Len()
			if first, ok := ds.First(); ok {
				info.FirstTS = first.Timestamp
				info.FirstDay = util.DayMSToTime(first.Timestamp).Format("2006-01-02")
			}
			if last, ok := ds.Last(); ok {
				info.LastTS = last.Timestamp
				info.LastDay = util.DayMSToTime(last.Timestamp).Format("2006-01-02")
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// Status summarizes service health for monitoring.
func (u *StatusUsecase) Status(ctx context.Context) *StatusResponse {
	resp := &StatusResponse{
		Environment:  u.cfg.Environment,
		Datasets:     len(u.cfg.Datasets),
		StoreHealthy: u.store.Health(ctx) == nil,
		Uptime:       time.Since(u.startedAt).Round(time.Second).String(),
		RecentErrors: u.log.RecentErrors(),
	}
	if resp.RecentErrors == nil {
		resp.RecentErrors = []applogger.AggregatedLogEntry{}
	}
	return resp
}
