package di

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/domain/repository"
	"catalytics/internal/domain/service"
	"catalytics/internal/handler/api"
	internalrepo "catalytics/internal/repository"
	"catalytics/internal/scheduler"
	"catalytics/internal/service/coingecko"
	"catalytics/internal/service/ratelimit"
	"catalytics/internal/services/feeds"
	"catalytics/internal/usecase"
	"catalytics/pkg/breaker"
	"catalytics/pkg/cache"
	pkgch "catalytics/pkg/clickhouse"
	"catalytics/pkg/config"
	xhttp "catalytics/pkg/http"
	pkgkafka "catalytics/pkg/kafka"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/metrics"
	pkgpg "catalytics/pkg/postgres"
	"catalytics/pkg/queue"
	"catalytics/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSnapshotStore opens the configured store and initializes its schema.
func ProvideSnapshotStore(cfg *config.Config, l *applogger.Logger) (repository.SnapshotStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var store repository.SnapshotStore
	switch cfg.Store.Type {
	case "postgres":
		db, err := pkgpg.NewDB(ctx, cfg.Postgres.DSN,
			pkgpg.WithMaxConnections(cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns),
			pkgpg.WithConnMaxLifetime(30*time.Minute),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		pg := internalrepo.NewPGSnapshotStore(db)
		pg.SetLogger(l.With(applogger.String("store", "postgres")))
		store = pg
	default:
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ch := internalrepo.NewCHSnapshotStore(client)
		ch.SetLogger(l.With(applogger.String("store", "clickhouse")))
		store = ch
	}

	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("%s schema: %w", cfg.Store.Type, err)
	}
	l.Info("snapshot store ready", applogger.String("type", cfg.Store.Type))

	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("snapshot store close error", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka ingest backend is selected.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Ingest.Backend != usecase.BackendKafka {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideSnapshotPublisher creates the Kafka publisher; nil without a producer.
func ProvideSnapshotPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SnapshotPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.Topic, cfg.Ingest.BatchSize)
}

// ProvideHTTPClient creates the outbound HTTP client shared by upstream feeds.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Feeds.Timeout))
}

func breakerSettings(cfg *config.Config, l *applogger.Logger) breaker.Settings {
	return breaker.Settings{
		ConsecutiveFailures: cfg.Feeds.Breaker.ConsecutiveFailures,
		Interval:            cfg.Feeds.Breaker.Interval,
		Timeout:             cfg.Feeds.Breaker.Timeout,
		OnStateChange: func(name, from, to string) {
			l.Warn("circuit breaker state change",
				applogger.String("breaker", name),
				applogger.String("from", from),
				applogger.String("to", to),
			)
		},
	}
}

// ProvideMarketData creates the rate-limited CoinGecko markets client.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketData {
	httpClient := xhttp.NewClient(xhttp.WithTimeout(cfg.CoinGecko.Timeout))
	return coingecko.New(httpClient,
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithPaging(cfg.CoinGecko.PerPage, cfg.CoinGecko.MaxPages),
		coingecko.WithLimiter(ratelimit.New(cfg.CoinGecko.RPS, cfg.CoinGecko.Burst)),
		coingecko.WithBreaker(breaker.New("coingecko", breakerSettings(cfg, l))),
		coingecko.WithLogger(l.With(applogger.String("upstream", "coingecko"))),
	)
}

// ProvideRedisClient creates the shared redis client used by the job queue
// and the benchmark cache; nil when redis is disabled.
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideBenchmarkCache builds the benchmark response cache: memory only, or
// memory in front of redis when a client is available. Nil when disabled.
func ProvideBenchmarkCache(cfg *config.Config, client *redis.Client) cache.Store {
	if !cfg.Cache.Enabled {
		return nil
	}
	mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	if client == nil {
		return mem
	}
	return cache.NewLayeredCache(mem, cache.NewRedisCache(client, cfg.Cache.KeyPrefix), cfg.Cache.MemoryTTL)
}

// ProvideBenchmarkSource routes benchmark ids to store-backed and HTTP feed
// families, behind the response cache when one is configured.
func ProvideBenchmarkSource(
	cfg *config.Config,
	store repository.SnapshotStore,
	client *xhttp.Client,
	c cache.Store,
	l *applogger.Logger,
) service.BenchmarkSource {
	settings := breakerSettings(cfg, l)
	router := feeds.NewRouter(
		feeds.NewTradingView(store),
		feeds.NewCoinGeckoPrice(store),
		feeds.NewTLX(cfg.Feeds.TLX.BaseURL, cfg.Feeds.TLX.IDs, client, breaker.New("tlx", settings)),
		feeds.NewToros(cfg.Feeds.Toros.BaseURL, cfg.Feeds.Toros.IDs, client, breaker.New("toros", settings)),
	)
	if c == nil {
		return router
	}
	return feeds.NewCachedSource(router, c, cfg.Cache.TTL, l.With(applogger.String("component", "benchmark_cache")))
}

// ProvideIngestProcessor creates the ingestion use case.
func ProvideIngestProcessor(
	market repository.MarketData,
	store repository.SnapshotStore,
	pub repository.SnapshotPublisher,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.IngestProcessor {
	return usecase.NewIngestProcessor(market, store, pub, m, cfg.Ingest.Backend, l.With(applogger.String("component", "ingest")))
}

func ProvideIndexUseCase(
	store repository.SnapshotStore,
	bench service.BenchmarkSource,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.IndexUseCase {
	return usecase.NewIndexUseCase(store, store, bench, m, cfg.Analytics.CorrelationWindows, l)
}

func ProvideRSPSUseCase(
	store repository.SnapshotStore,
	bench service.BenchmarkSource,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.RSPSUseCase {
	benchmarks := make([]models.Benchmark, 0, len(cfg.Analytics.RSPSBenchmarks))
	for _, b := range cfg.Analytics.RSPSBenchmarks {
		benchmarks = append(benchmarks, models.Benchmark{ID: b.ID, Label: b.Label})
	}
	return usecase.NewRSPSUseCase(store, bench, m, benchmarks, l)
}

func ProvideCorrelationUseCase() *usecase.CorrelationUseCase {
	return usecase.NewCorrelationUseCase()
}

func ProvideMarketUseCase(store repository.SnapshotStore) *usecase.MarketUseCase {
	return usecase.NewMarketUseCase(store, store)
}

// ProvideHandlers builds every Echo route group.
func ProvideHandlers(
	l *applogger.Logger,
	idx *usecase.IndexUseCase,
	rsps *usecase.RSPSUseCase,
	corr *usecase.CorrelationUseCase,
	market *usecase.MarketUseCase,
	store repository.SnapshotStore,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewAnalyticsEchoHandler(l, idx, rsps, corr),
		api.NewMarketEchoHandler(l, market, store),
	}
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML; nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka-consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook(l))
	return consumer, nil
}

// ProvideKafkaSnapshotsHandler registers handler for the snapshots topic.
func ProvideKafkaSnapshotsHandler(store repository.SnapshotStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaSnapshotsHandler {
	return usecase.NewKafkaSnapshotsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideJobQueue creates the Redis job queue with the ingest job registered; nil when disabled.
func ProvideJobQueue(client *redis.Client, cfg *config.Config, proc *usecase.IngestProcessor, l *applogger.Logger) *queue.RedisQueue {
	if client == nil {
		return nil
	}
	q := queue.NewRedisQueue(client, queue.Config{
		Workers:    cfg.Redis.Workers,
		RetryLimit: cfg.Redis.RetryLimit,
		RetryDelay: cfg.Redis.RetryDelay,
	}, queue.WithKeyPrefix(cfg.Redis.KeyPrefix), queue.WithLogger(l.With(applogger.String("component", "queue"))))
	q.RegisterJob(usecase.NewIngestCategoryJob(proc))
	return q
}

// ProvideScheduler creates the daily ingest scheduler. Runs go through the
// job queue when one is configured.
func ProvideScheduler(cfg *config.Config, proc *usecase.IngestProcessor, q *queue.RedisQueue, l *applogger.Logger) (*scheduler.IngestScheduler, error) {
	categories := make([]models.Category, 0, len(cfg.Ingest.Categories))
	for _, raw := range cfg.Ingest.Categories {
		c, err := models.ParseCategory(raw)
		if err != nil {
			return nil, fmt.Errorf("ingest categories: %w", err)
		}
		categories = append(categories, c)
	}
	opts := []scheduler.Option{scheduler.WithLogger(l.With(applogger.String("component", "scheduler")))}
	if q != nil {
		opts = append(opts, scheduler.WithPublisher(q))
	}
	return scheduler.NewIngestScheduler(cfg.Ingest.Schedule, categories, proc, opts...), nil
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handlers []xhttp.Handler,
	proc *usecase.IngestProcessor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaSnapshotsHandler,
	q *queue.RedisQueue,
	sched *scheduler.IngestScheduler,
) *server.App {
	c := server.Components{
		Handlers:  handlers,
		Ingest:    proc,
		Queue:     q,
		Scheduler: sched,
	}
	if consumer != nil {
		c.Consumer = consumer
		c.Snapshots = kh
	}
	return server.New(cfg, l, c)
}
