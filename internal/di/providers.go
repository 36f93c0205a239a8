package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"DivPulse/internal/composite"
	"DivPulse/internal/domain/repository"
	"DivPulse/internal/domain/service"
	"DivPulse/internal/events"
	"DivPulse/internal/handler/api"
	"DivPulse/internal/normalize"
	"DivPulse/internal/provider"
	"DivPulse/internal/regime"
	internalrepo "DivPulse/internal/repository"
	"DivPulse/internal/scheduler"
	"DivPulse/internal/series"
	"DivPulse/internal/service/ratelimit"
	"DivPulse/internal/usecase"
	pkgcache "DivPulse/pkg/cache"
	pkgch "DivPulse/pkg/clickhouse"
	"DivPulse/pkg/config"
	xhttp "DivPulse/pkg/http"
	pkgkafka "DivPulse/pkg/kafka"
	applogger "DivPulse/pkg/logger"
	"DivPulse/pkg/metrics"
	"DivPulse/pkg/server"
)

// ProvideLogger builds the application logger with the in-memory error
// collector that backs /api/status.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.AddCollector(&applogger.CollectionConfig{
		MaxEntries: 100,
		Retention:  time.Hour,
	})
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHTTPClient creates the outbound HTTP client shared by all fetchers.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Binance.Timeout))
}

// ProvideFetchers builds retry-wrapped fetchers for every configured dataset.
func ProvideFetchers(cfg *config.Config, client *xhttp.Client, log *applogger.Logger) (map[string]repository.Fetcher, error) {
	return provider.Build(cfg, client, log)
}

// ProvideDatasetStore selects the persistence backend. The file store is the
// default; ClickHouse is opted into per deployment.
func ProvideDatasetStore(cfg *config.Config, log *applogger.Logger) (repository.DatasetStore, error) {
	switch cfg.Store.Backend {
	case "", "file":
		store, err := series.NewFileStore(cfg.Store.Dir)
		if err != nil {
			return nil, fmt.Errorf("file store: %w", err)
		}
		return store, nil
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, internalrepo.SchemaStatements); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		return internalrepo.NewCHDatasetStore(client, log), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ProvideCache builds the response and fit cache. With Redis enabled the
// memory layer fronts it; otherwise a standalone memory cache serves alone.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, port := splitAddr(cfg.Cache.Redis.Addr)
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvidePublisher creates the Kafka event publisher, or nil when events are
// disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return events.NewKafkaPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideManager builds the dataset manager.
func ProvideManager(
	store repository.DatasetStore,
	fetchers map[string]repository.Fetcher,
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
	pub repository.Publisher,
) *series.Manager {
	return series.NewManager(store, fetchers, series.ManagerConfig{
		OverlapDays: cfg.Store.OverlapDays,
		DefaultDays: cfg.Store.DefaultDays,
		Tiebreak:    series.ParseTiebreak(cfg.Store.Tiebreak),
	}, log, m, pub)
}

// ProvideLimiter creates the shared token-bucket limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideRateLimit maps the YAML rate-limit block onto the usecase config.
func ProvideRateLimit(cfg *config.Config) usecase.RateLimitConfig {
	return usecase.RateLimitConfig{
		Enabled:  cfg.RateLimit.Enabled,
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
	}
}

// ProvideRegistry creates the normalizer registry with the built-in variants.
func ProvideRegistry() *normalize.Registry {
	return normalize.DefaultRegistry()
}

// ProvideCompositor creates the composite scorer.
func ProvideCompositor() *composite.Compositor {
	return composite.New()
}

// ProvideClassifier builds the volatility regime service.
func ProvideClassifier(
	manager *series.Manager,
	cache pkgcache.Service,
	cfg *config.Config,
	log *applogger.Logger,
	m repository.Metrics,
) service.RegimeClassifier {
	return regime.NewService(manager, cache, regime.ServiceConfig{
		FitCacheTTL:        cfg.Regime.FitCacheTTL,
		FallbackPercentile: cfg.Regime.FallbackPercentile,
		Markov: regime.MarkovConfig{
			MaxIter:   cfg.Regime.MaxIter,
			Tolerance: cfg.Regime.Tolerance,
		},
	}, log, m)
}

// ProvideDataUsecase wires the raw data endpoint.
func ProvideDataUsecase(
	manager *series.Manager,
	cache pkgcache.Service,
	limiter *ratelimit.Limiter,
	rl usecase.RateLimitConfig,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.DataUsecase {
	return usecase.NewDataUsecase(manager, cache, limiter, rl, cfg.Cache.TTL, log)
}

// ProvideNormalizeUsecase wires the divergence scoring endpoint.
func ProvideNormalizeUsecase(
	manager *series.Manager,
	registry *normalize.Registry,
	cache pkgcache.Service,
	limiter *ratelimit.Limiter,
	rl usecase.RateLimitConfig,
	cfg *config.Config,
	pub repository.Publisher,
	log *applogger.Logger,
) *usecase.NormalizeUsecase {
	return usecase.NewNormalizeUsecase(manager, registry, cache, limiter, rl, cfg.Cache.TTL, pub, log)
}

// ProvideCompositeUsecase wires the composite endpoint.
func ProvideCompositeUsecase(
	manager *series.Manager,
	registry *normalize.Registry,
	compositor *composite.Compositor,
	cache pkgcache.Service,
	limiter *ratelimit.Limiter,
	rl usecase.RateLimitConfig,
	cfg *config.Config,
	normalizer *usecase.NormalizeUsecase,
	log *applogger.Logger,
) *usecase.CompositeUsecase {
	return usecase.NewCompositeUsecase(
		manager, registry, compositor, cfg.Composite.Inputs,
		cache, limiter, rl, cfg.Cache.TTL, normalizer, log,
	)
}

// ProvideRegimeUsecase wires the regime endpoint.
func ProvideRegimeUsecase(
	manager *series.Manager,
	classifier service.RegimeClassifier,
	limiter *ratelimit.Limiter,
	rl usecase.RateLimitConfig,
) *usecase.RegimeUsecase {
	return usecase.NewRegimeUsecase(manager, classifier, limiter, rl)
}

// ProvideStatusUsecase wires the status and dataset listing endpoints.
func ProvideStatusUsecase(
	cfg *config.Config,
	manager *series.Manager,
	store repository.DatasetStore,
	log *applogger.Logger,
) *usecase.StatusUsecase {
	return usecase.NewStatusUsecase(cfg, manager, store, log)
}

// ProvideHandler wires all usecases into the Echo handler.
func ProvideHandler(
	log *applogger.Logger,
	data *usecase.DataUsecase,
	normalizeUC *usecase.NormalizeUsecase,
	compositeUC *usecase.CompositeUsecase,
	regimeUC *usecase.RegimeUsecase,
	status *usecase.StatusUsecase,
) *api.Handler {
	return api.NewHandler(log, data, normalizeUC, compositeUC, regimeUC, status)
}

// ProvideScheduler wires the periodic refresher.
func ProvideScheduler(manager *series.Manager, cfg *config.Config, log *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(manager, cfg.Scheduler.Interval, log)
}

// ProvideHTTPServer creates the Echo server with routes registered.
func ProvideHTTPServer(handler *api.Handler, cfg *config.Config) *xhttp.Server {
	return xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	manager *series.Manager,
	sched *scheduler.Scheduler,
	httpServer *xhttp.Server,
	store repository.DatasetStore,
	pub repository.Publisher,
) *server.App {
	return server.New(cfg, log, manager, sched, httpServer, store, pub)
}
