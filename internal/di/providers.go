package di

import (
	"context"
	"fmt"
	"time"

	"SignalDesk/internal/channel"
	"SignalDesk/internal/domain/repository"
	"SignalDesk/internal/handler/api"
	internalrepo "SignalDesk/internal/repository"
	"SignalDesk/internal/scheduler"
	"SignalDesk/internal/service/marketdata"
	"SignalDesk/internal/usecase"
	"SignalDesk/pkg/cache"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
	"SignalDesk/pkg/metrics"
	"SignalDesk/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: format,
		Output: "stdout",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes the
// schema. Returns nil when ClickHouse is disabled; persistence then runs
// against the noop store.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS " + db,
		`CREATE TABLE IF NOT EXISTS ` + db + `.signals (
			id String, ts DateTime64(3), symbol LowCardinality(String),
			action LowCardinality(String), price Float64, confidence UInt8,
			technical_score Float64, risk_level LowCardinality(String),
			target_price Float64, stop_loss Float64, reasoning String,
			rsi Float64, macd_value Float64, macd_signal Float64, macd_histogram Float64,
			sma20 Float64, sma50 Float64, ema12 Float64, ema26 Float64,
			bb_upper Float64, bb_middle Float64, bb_lower Float64
		) ENGINE=MergeTree ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.briefings (
			signal_id String, ts DateTime64(3), symbol LowCardinality(String), briefing String
		) ENGINE=MergeTree ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.workflow_steps (
			ts DateTime64(3), symbol LowCardinality(String), status LowCardinality(String),
			step LowCardinality(String), message String, signal_id String, config String
		) ENGINE=MergeTree ORDER BY (symbol, ts)`,
		`CREATE TABLE IF NOT EXISTS ` + db + `.signal_performance (
			symbol LowCardinality(String), ts DateTime64(3),
			action LowCardinality(String), technical_score Float64, confidence UInt8
		) ENGINE=MergeTree ORDER BY (symbol, ts)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideSignalStore creates the signal store backed by ClickHouse, or a
// noop store when no client is available.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config) repository.SignalStore {
	if chClient == nil {
		return internalrepo.NewNoopStore()
	}
	return internalrepo.NewClickHouseStore(chClient.DB(), cfg.ClickHouse.Database)
}

// ProvideKafkaProducer creates a Kafka producer. Returns nil when Kafka
// is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

	return producer, nil
}

// ProvideEventPublisher creates the Kafka signal publisher, or nil when
// Kafka is disabled (signal events are then skipped).
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache creates the result cache holding latest workflow results.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	switch cfg.Cache.Backend {
	case "redis", "layered":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 5*time.Second),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if cfg.Cache.Backend == "layered" {
			return cache.NewLayeredCache(rc,
				cache.WithLayeredMemorySize(cfg.Cache.Memory.MaxSize),
			), nil
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(
			cache.WithMemoryMaxSize(cfg.Cache.Memory.MaxSize),
			cache.WithMemoryCleanup(cfg.Cache.Memory.CleanupInterval),
		), nil
	}
}

// ProvideMarketData creates the throttled, cached market data fetcher.
func ProvideMarketData(cfg *config.Config, log *applogger.Logger, m repository.Metrics) repository.MarketData {
	provider := marketdata.NewYahooProvider(cfg.MarketData.BaseURL, cfg.MarketData.Timeout)
	return marketdata.NewFetcher(provider,
		cfg.MarketData.CacheTTL,
		cfg.MarketData.MinRequestInterval,
		log, m)
}

// ProvideChannels creates the configured notification channels. A channel
// without configuration is simply absent; the workflow reports it as not
// configured when a run requests it.
func ProvideChannels(cfg *config.Config) []repository.Channel {
	var out []repository.Channel
	timeout := cfg.Channels.Timeout

	if c := cfg.Channels.Email; c.BaseURL != "" {
		out = append(out, channel.NewEmail(c.BaseURL, c.Token, c.From, c.Recipients, timeout))
	}
	if c := cfg.Channels.Document; c.BaseURL != "" {
		out = append(out, channel.NewDocument(c.BaseURL, c.Token, c.DocumentID, timeout))
	}
	if c := cfg.Channels.TaskTracker; c.BaseURL != "" {
		out = append(out, channel.NewTaskTracker(c.BaseURL, c.Token, c.Project, timeout))
	}
	if c := cfg.Channels.Chat; c.WebhookURL != "" {
		out = append(out, channel.NewChat(c.WebhookURL, timeout))
	}
	return out
}

// ProvideWorkflowService creates the workflow orchestrator.
func ProvideWorkflowService(
	market repository.MarketData,
	store repository.SignalStore,
	events repository.EventPublisher,
	channels []repository.Channel,
	m repository.Metrics,
	latest cache.Service,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.WorkflowService {
	return usecase.NewWorkflowService(market, store, events, channels, m, latest, log,
		usecase.WithHistoryWindow(cfg.MarketData.HistoryInterval, cfg.MarketData.HistoryPeriods),
		usecase.WithChannelTimeout(cfg.Channels.Timeout),
		usecase.WithLatestTTL(cfg.Cache.TTL),
	)
}

// ProvideScheduler creates the cron scheduler for configured jobs.
func ProvideScheduler(workflow *usecase.WorkflowService, cfg *config.Config, log *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(workflow, cfg.Scheduler.Jobs, cfg.Scheduler.Timezone, log)
}

// ProvideHandler creates the HTTP handler for the workflow API.
func ProvideHandler(log *applogger.Logger, workflow *usecase.WorkflowService) xhttp.Handler {
	return api.NewWorkflowEchoHandler(log, workflow)
}

// kafkaLogSink adapts the producer to the log collector publisher.
type kafkaLogSink struct {
	producer *pkgkafka.Producer
}

func (s kafkaLogSink) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return s.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	sched *scheduler.Scheduler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	store repository.SignalStore,
	events repository.EventPublisher,
) *server.App {
	// Aggregate warn/error logs into Kafka alongside signal events.
	if producer != nil {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".logs",
			Publisher:      kafkaLogSink{producer: producer},
		})
	}
	return server.New(cfg, log, handler, sched, chClient, producer, store, events)
}
