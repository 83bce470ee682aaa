package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	domrepo "SqueezeWatch/internal/domain/repository"
	domsvc "SqueezeWatch/internal/domain/service"
	"SqueezeWatch/internal/handler/api"
	mid "SqueezeWatch/internal/middleware"
	internalrepo "SqueezeWatch/internal/repository"
	icache "SqueezeWatch/internal/service/cache"
	"SqueezeWatch/internal/scheduler"
	engine "SqueezeWatch/internal/services/engine"
	"SqueezeWatch/internal/usecase"
	"SqueezeWatch/pkg/cache"
	pkgch "SqueezeWatch/pkg/clickhouse"
	"SqueezeWatch/pkg/config"
	xhttp "SqueezeWatch/pkg/http"
	pkgkafka "SqueezeWatch/pkg/kafka"
	applogger "SqueezeWatch/pkg/logger"
	"SqueezeWatch/pkg/metrics"
	"SqueezeWatch/pkg/queue"
	"SqueezeWatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
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
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisCache creates the Redis cache used for response caching, the
// pipeline lock, and the backfill queue. Redis is required for the app tier.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	host, port := splitAddr(cfg.Redis.Addr)
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

// ProvideLayeredCache puts an in-process LRU layer in front of Redis for
// response caching. Locks and queue state still go to Redis directly.
func ProvideLayeredCache(rc *cache.RedisCache) *cache.LayeredCache {
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(500))
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideMetricStore creates the daily metric store.
func ProvideMetricStore(ch *pkgch.Client, l *applogger.Logger) domrepo.MetricStore {
	s := internalrepo.NewCHMetricStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideWarrantStore creates the warrant quote store.
func ProvideWarrantStore(ch *pkgch.Client, l *applogger.Logger) domrepo.WarrantStore {
	s := internalrepo.NewCHWarrantStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideSignalStore creates the squeeze signal store.
func ProvideSignalStore(ch *pkgch.Client, l *applogger.Logger) domrepo.SignalStore {
	s := internalrepo.NewCHSignalStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideCBStore creates the convertible bond store.
func ProvideCBStore(ch *pkgch.Client, l *applogger.Logger) domrepo.CBStore {
	s := internalrepo.NewCHCBStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideTickerStore creates the tracked ticker registry.
func ProvideTickerStore(ch *pkgch.Client) domrepo.TickerStore {
	return internalrepo.NewCHTickerStore(ch)
}

// ProvideConfigStore creates the runtime config store.
func ProvideConfigStore(ch *pkgch.Client) domrepo.ConfigStore {
	return internalrepo.NewCHConfigStore(ch)
}

// ProvideAlertPublisher creates the Kafka alert publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.SignalTopic, cfg.Kafka.CBTopic)
}

// ProvideConfigService creates the runtime config service, loading stored
// overrides on top of defaults.
func ProvideConfigService(store domrepo.ConfigStore, l *applogger.Logger) *usecase.ConfigService {
	svc := usecase.NewConfigService(store, l)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Reload(ctx); err != nil {
		// defaults stay active until the next reload
		l.Warn("initial config reload failed", applogger.Error(err))
	}
	return svc
}

// ProvideEngineClient creates the resilient scoring engine client.
func ProvideEngineClient(cfg *config.Config, rec domrepo.Metrics, l *applogger.Logger) *engine.Client {
	return engine.NewClient(
		cfg.Engine.BaseURL,
		cfg.Engine.Timeout,
		engine.WithRecoveryWindow(cfg.Engine.RecoveryWindow),
		engine.WithMetrics(rec),
		engine.WithLogger(l),
	)
}

// ProvideSignalEngine exposes the engine client behind the domain interface.
func ProvideSignalEngine(client *engine.Client) domsvc.SignalEngine {
	return client
}

// ProvideCBTracking creates the CB trigger tracking use case.
func ProvideCBTracking(
	cb domrepo.CBStore,
	ms domrepo.MetricStore,
	cfgSvc *usecase.ConfigService,
	alerts domrepo.AlertPublisher,
	rec domrepo.Metrics,
	l *applogger.Logger,
) *usecase.CBTrackingUseCase {
	return usecase.NewCBTrackingUseCase(cb, ms, cfgSvc, alerts, rec, l)
}

// ProvideDailyPipeline creates the nightly pipeline.
func ProvideDailyPipeline(
	tickers domrepo.TickerStore,
	signals domrepo.SignalStore,
	ms domrepo.MetricStore,
	eng domsvc.SignalEngine,
	cbUC *usecase.CBTrackingUseCase,
	alerts domrepo.AlertPublisher,
	rc *cache.RedisCache,
	rec domrepo.Metrics,
	l *applogger.Logger,
) *usecase.DailyPipeline {
	return usecase.NewDailyPipeline(tickers, signals, ms, eng, cbUC, alerts, rc, rec, l)
}

// ProvideBackfill creates the backfill use case.
func ProvideBackfill(pipeline *usecase.DailyPipeline, l *applogger.Logger) *usecase.BackfillUseCase {
	return usecase.NewBackfillUseCase(pipeline, l)
}

// ProvideSignalQuery creates the caller-facing signal query service.
func ProvideSignalQuery(eng domsvc.SignalEngine, signals domrepo.SignalStore, rec domrepo.Metrics, l *applogger.Logger) *usecase.SignalQueryService {
	return usecase.NewSignalQueryService(eng, signals, rec, l)
}

// ProvideBackfillQueue creates the Redis-backed backfill queue with its
// worker registered.
func ProvideBackfillQueue(cfg *config.Config, rc *cache.RedisCache, backfill *usecase.BackfillUseCase, l *applogger.Logger) *queue.RedisQueue {
	qcfg := &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}
	q := queue.NewRedisQueue(l, qcfg, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewBackfillJob(backfill))
	return q
}

// ProvideLiveHub creates the websocket fanout hub.
func ProvideLiveHub(l *applogger.Logger) *api.LiveHub {
	return api.NewLiveHub(l)
}

// ProvideBroadcastPipeline puts the throttling buffer in front of the hub and
// attaches it to the daily pipeline.
func ProvideBroadcastPipeline(hub *api.LiveHub, rec domrepo.Metrics, pipeline *usecase.DailyPipeline) *mid.BroadcastPipeline {
	fanout := mid.NewBroadcastPipeline(hub, rec, mid.WithMaxRPS(50), mid.WithBufferSize(2000))
	pipeline.SetBroadcaster(fanout)
	return fanout
}

// ProvideMetricsIngestHandler registers the daily metrics topic handler.
func ProvideMetricsIngestHandler(store domrepo.MetricStore, rec domrepo.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.DailyMetricsHandler {
	return usecase.NewDailyMetricsHandler(cfg.Kafka.MetricsTopic, store, rec, l)
}

// ProvideWarrantIngestHandler registers the warrant quotes topic handler.
func ProvideWarrantIngestHandler(store domrepo.WarrantStore, rec domrepo.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.WarrantQuotesHandler {
	return usecase.NewWarrantQuotesHandler(cfg.Kafka.WarrantTopic, store, rec, l)
}

// ProvideScheduler creates the nightly cron scheduler.
func ProvideScheduler(pipeline *usecase.DailyPipeline, cfg *config.Config, l *applogger.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(pipeline, cfg.Pipeline.CronSpec, cfg.Pipeline.Timezone, l)
}

// ProvideHTTPHandler assembles the caller-facing route set.
func ProvideHTTPHandler(
	l *applogger.Logger,
	query *usecase.SignalQueryService,
	cbUC *usecase.CBTrackingUseCase,
	cfgSvc *usecase.ConfigService,
	client *engine.Client,
	q *queue.RedisQueue,
	hub *api.LiveHub,
	layered *cache.LayeredCache,
) xhttp.Handler {
	bytesCache := icache.NewServiceAdapter(layered)

	signals := api.NewSignalsEchoHandler(l, query)
	signals.SetCache(bytesCache)

	cb := api.NewCBEchoHandler(l, cbUC)
	cb.SetCache(bytesCache)

	admin := api.NewAdminEchoHandler(l, cfgSvc, client, q)

	return server.Routes(signals, cb, admin, hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	mh *usecase.DailyMetricsHandler,
	wh *usecase.WarrantQuotesHandler,
	q *queue.RedisQueue,
	sched *scheduler.Scheduler,
	fanout *mid.BroadcastPipeline,
	hub *api.LiveHub,
	alerts domrepo.AlertPublisher,
	chClient *pkgch.Client,
	layered *cache.LayeredCache,
) *server.App {
	consumer.RegisterHandler(mh)
	consumer.RegisterHandler(wh)
	consumer.WithConsumerHook(pkgkafka.NoopHook{})

	return server.New(cfg, l,
		server.WithHTTPHandler(handler),
		server.WithConsumer(consumer),
		server.WithQueue(q),
		server.WithScheduler(sched),
		server.WithFanout(fanout),
		server.WithHub(hub),
		server.WithCloser("alert publisher", alerts.Close),
		server.WithCloser("clickhouse", chClient.Close),
		server.WithCloser("cache", layered.Close),
	)
}
