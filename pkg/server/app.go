package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"DivPulse/internal/domain/repository"
	"DivPulse/internal/scheduler"
	"DivPulse/internal/series"
	"DivPulse/pkg/config"
	xhttp "DivPulse/pkg/http"
	applogger "DivPulse/pkg/logger"
)

// App owns the application lifecycle: startup refresh, the scheduler, the
// HTTP server, and ordered shutdown of everything behind them.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	manager    *series.Manager
	sched      *scheduler.Scheduler
	httpServer *xhttp.Server
	store      repository.DatasetStore
	pub        repository.Publisher
}

func New(
	cfg *config.Config,
	log *applogger.Logger,
	manager *series.Manager,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
	store repository.DatasetStore,
	pub repository.Publisher,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		manager:    manager,
		sched:      sched,
		httpServer: httpServer,
		store:      store,
		pub:        pub,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.cfg.Scheduler.Enabled {
		a.sched.Start(ctx)
		a.log.Info("scheduler started",
			applogger.Duration("interval_ms", a.cfg.Scheduler.Interval),
			applogger.Int("datasets", len(a.manager.Names())),
		)
	} else {
		a.log.Info("scheduler disabled, datasets refresh on demand")
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server listening", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown stops intake first so nothing writes to the store while it closes.
func (a *App) shutdown(ctx context.Context) error {
	if a.cfg.Scheduler.Enabled {
		a.sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
