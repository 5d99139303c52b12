package di

import (
	"context"
	"fmt"
	"time"

	"CreditRisk/internal/domain/repository"
	domsvc "CreditRisk/internal/domain/service"
	"CreditRisk/internal/handler/api"
	internalrepo "CreditRisk/internal/repository"
	icache "CreditRisk/internal/service/cache"
	apimetrics "CreditRisk/internal/service/metrics"
	"CreditRisk/internal/service/ratelimit"
	"CreditRisk/internal/services/credit"
	"CreditRisk/internal/services/provider"
	"CreditRisk/internal/usecase"
	pkgch "CreditRisk/pkg/clickhouse"
	"CreditRisk/pkg/config"
	xhttp "CreditRisk/pkg/http"
	pkgkafka "CreditRisk/pkg/kafka"
	applogger "CreditRisk/pkg/logger"
	"CreditRisk/pkg/metrics"
	"CreditRisk/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the process logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideRegistry returns the registry every collector of the process uses.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	apimetrics.Register(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.NewWithRegistry(reg)
}

// ProvideClickHouseClient connects and creates the database. It returns nil
// when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(p.BatchSize, p.BatchBytes, p.Linger),
		pkgkafka.WithTimeouts(p.WriteTimeout, p.ReadTimeout),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithAsync(p.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAssessmentPublisher publishes decision records, or nil without Kafka.
func ProvideAssessmentPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.DecisionTopic)
}

// ProvideAssessmentStorage creates the assessments table, or returns nil
// without ClickHouse.
func ProvideAssessmentStorage(ch *pkgch.Client, cfg *config.Config) (repository.Storage, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseStorage(ch.DB(), ch.Table(cfg.ClickHouse.AssessmentTable))
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("assessment storage: %w", err)
	}
	return store, nil
}

// ProvideSnapshotStore creates the snapshots table, or returns nil without
// ClickHouse.
func ProvideSnapshotStore(ch *pkgch.Client, cfg *config.Config, log *applogger.Logger) (*internalrepo.CHSnapshotStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHSnapshotStore(ch.DB(), ch.Table(cfg.ClickHouse.SnapshotTable), log)
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	return store, nil
}

// ProvideRedisCache connects to Redis, or returns nil when it is disabled.
func ProvideRedisCache(cfg *config.Config) (*icache.RedisCache, error) {
	r := cfg.Cache.Redis
	if !r.Enabled {
		return nil, nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB, Prefix: "creditrisk:"})
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideSnapshotCache puts an in-process cache in front of Redis, or uses the
// in-process cache alone when Redis is disabled.
func ProvideSnapshotCache(redis *icache.RedisCache) icache.BytesCache {
	if redis == nil {
		return icache.NewTTLCache()
	}
	return icache.NewLayered(icache.NewTTLCache(), redis, time.Minute)
}

// ProvideSnapshotProvider selects where GET /api/credit reads snapshots from.
// Remote lookups go through the snapshot cache.
func ProvideSnapshotProvider(
	cfg *config.Config,
	store *internalrepo.CHSnapshotStore,
	c icache.BytesCache,
	log *applogger.Logger,
) (domsvc.SnapshotProvider, error) {
	switch cfg.Provider.Type {
	case "http":
		opts := []provider.Option{provider.WithRetries(cfg.Provider.Retries)}
		if cfg.Provider.APIKey != "" {
			opts = append(opts, provider.WithAPIKey(cfg.Provider.APIKey))
		}
		hp, err := provider.NewHTTPProvider(cfg.Provider.URL, cfg.Provider.Timeout, opts...)
		if err != nil {
			return nil, err
		}
		return provider.NewCached(hp, c, cfg.Provider.CacheTTL, log), nil
	case "clickhouse":
		if store == nil {
			return nil, fmt.Errorf("provider clickhouse: snapshot store unavailable")
		}
		return store, nil
	default:
		return nil, nil
	}
}

// AnalyzerConfigFrom maps the risk and analysis sections.
func AnalyzerConfigFrom(cfg *config.Config) usecase.AnalyzerConfig {
	s := cfg.Risk.Solver
	return usecase.AnalyzerConfig{
		Thresholds: credit.Thresholds{
			ZSafe:                 cfg.Risk.ZSafe,
			ZDistress:             cfg.Risk.ZDistress,
			MaxDefaultProbability: cfg.Risk.MaxDefaultProbability,
		},
		Horizon:            s.Horizon,
		Tolerance:          s.Tolerance,
		MaxIterations:      s.MaxIterations,
		ScaleTolerance:     s.ScaleTolerance,
		RequireConvergence: s.RequireConvergence,
		Workers:            cfg.Analysis.Workers,
	}
}

func ProvideCreditAnalyzer(cfg *config.Config, m repository.Metrics, log *applogger.Logger) (*usecase.CreditAnalyzer, error) {
	return usecase.NewCreditAnalyzer(AnalyzerConfigFrom(cfg),
		usecase.WithAnalyzerMetrics(m),
		usecase.WithAnalyzerLogger(log),
	)
}

// ProvideAssessmentProcessor routes records to the configured backend. It
// returns nil when that backend is not enabled.
func ProvideAssessmentProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
	log *applogger.Logger,
) *usecase.AssessmentProcessor {
	backend := repository.NormalizeBackend(cfg.Backend.Type)
	if (backend == repository.BackendKafka && pub == nil) || (backend == repository.BackendClickHouse && store == nil) {
		log.Warn("assessment backend not enabled, results are not recorded", applogger.String("backend", string(backend)))
		return nil
	}
	return usecase.NewAssessmentProcessor(pub, store, m, backend, cfg.Backend.BatchSize)
}

// ProvideKafkaConsumer creates the snapshot consumer, or nil when Kafka is
// disabled.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
		pkgkafka.WithConsumerLogger(log),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewLoggingHook(log))
	return consumer, nil
}

// ProvideKafkaSnapshotHandler analyzes snapshots from the snapshot topic. It
// needs a processor to send decisions to.
func ProvideKafkaSnapshotHandler(
	cfg *config.Config,
	analyzer *usecase.CreditAnalyzer,
	processor *usecase.AssessmentProcessor,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.KafkaSnapshotHandler {
	if processor == nil {
		return nil
	}
	return usecase.NewKafkaSnapshotHandler(cfg.Kafka.SnapshotTopic, analyzer, processor, m, log)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideCreditHandler enables each optional route when its backing
// component exists.
func ProvideCreditHandler(
	cfg *config.Config,
	log *applogger.Logger,
	analyzer *usecase.CreditAnalyzer,
	prov domsvc.SnapshotProvider,
	processor *usecase.AssessmentProcessor,
	snapshots *internalrepo.CHSnapshotStore,
	history repository.Storage,
	limiter *ratelimit.Limiter,
) *api.CreditHandler {
	opts := []api.HandlerOption{api.WithRateLimiter(limiter)}
	if prov != nil {
		opts = append(opts, api.WithTickerLookup(usecase.NewCreditAssessmentUseCase(analyzer, prov, cfg.Analysis.Timeout)))
	}
	if processor != nil {
		opts = append(opts, api.WithRecorder(processor))
	}
	if snapshots != nil {
		opts = append(opts, api.WithSnapshotStore(snapshots))
	}
	if history != nil {
		opts = append(opts, api.WithHistory(history))
	}
	return api.NewCreditHandler(log, analyzer, opts...)
}

// ProvideHealth registers a readiness check per enabled dependency.
func ProvideHealth(ch *pkgch.Client, redis *icache.RedisCache) *server.Health {
	h := server.NewHealth(2 * time.Second)
	if ch != nil {
		h.Add("clickhouse", ch.Health)
	}
	if redis != nil {
		h.Add("redis", redis.Ping)
	}
	return h
}

func ProvideHTTPServer(
	cfg *config.Config,
	credit *api.CreditHandler,
	health *server.Health,
	log *applogger.Logger,
	reg *prometheus.Registry,
) *xhttp.Server {
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	s := cfg.Server
	return xhttp.NewServer(server.Routes{health, credit}, log,
		xhttp.WithPort(s.Port),
		xhttp.WithTimeouts(s.ReadTimeout, s.WriteTimeout, s.ShutdownTimeout),
		xhttp.WithBodyLimit(s.BodyLimit),
		xhttp.WithCORSOrigins(s.CORSOrigins),
		xhttp.WithMetrics(reg, path),
	)
}

// ProvideApp assembles the lifecycle. Close order matters: the log collector
// flushes through the producer, which the processor closes.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotHandler,
	producer *pkgkafka.Producer,
	processor *usecase.AssessmentProcessor,
	limiter *ratelimit.Limiter,
	redis *icache.RedisCache,
	ch *pkgch.Client,
) *server.App {
	opts := []server.Option{server.WithPruner(limiter, time.Minute, 10*time.Minute)}
	if consumer != nil && kh != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}

	var closers []server.Closer
	if producer != nil && cfg.Logging.Collector.Enabled {
		col := cfg.Logging.Collector
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   col.Interval,
			CountThreshold: col.Threshold,
			Topic:          col.Topic,
			Publisher:      producer,
		})
		closers = append(closers, server.Closer{Name: "log collector", Close: func() error {
			log.RemoveCollector()
			return nil
		}})
	}
	switch {
	case processor != nil:
		// closes the publisher, and with it the producer, and the storage
		closers = append(closers, server.Closer{Name: "assessment processor", Close: func() error {
			processor.Close()
			return nil
		}})
	case producer != nil:
		closers = append(closers, server.CloserOf("kafka producer", producer))
	}
	if redis != nil {
		closers = append(closers, server.CloserOf("redis", redis))
	}
	if ch != nil {
		closers = append(closers, server.CloserOf("clickhouse", ch))
	}
	return server.New(log, srv, append(opts, server.WithClosers(closers...))...)
}
