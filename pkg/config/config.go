package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	MarketData struct {
		BaseURL            string        `yaml:"base_url"`
		Timeout            time.Duration `yaml:"timeout"`
		CacheTTL           time.Duration `yaml:"cache_ttl"`
		MinRequestInterval time.Duration `yaml:"min_request_interval"`
		HistoryInterval    string        `yaml:"history_interval"`
		HistoryPeriods     int           `yaml:"history_periods"`
	} `yaml:"market_data"`
	Cache struct {
		Backend string        `yaml:"backend"`
		TTL     time.Duration `yaml:"ttl"`
		Memory  struct {
			MaxSize         int           `yaml:"max_size"`
			CleanupInterval time.Duration `yaml:"cleanup_interval"`
		} `yaml:"memory"`
		Redis struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	Channels struct {
		Timeout time.Duration `yaml:"timeout"`
		Email   struct {
			BaseURL    string   `yaml:"base_url"`
			Token      string   `yaml:"token"`
			From       string   `yaml:"from"`
			Recipients []string `yaml:"recipients"`
		} `yaml:"email"`
		Document struct {
			BaseURL    string `yaml:"base_url"`
			Token      string `yaml:"token"`
			DocumentID string `yaml:"document_id"`
		} `yaml:"document"`
		TaskTracker struct {
			BaseURL string `yaml:"base_url"`
			Token   string `yaml:"token"`
			Project string `yaml:"project"`
		} `yaml:"task_tracker"`
		Chat struct {
			WebhookURL string `yaml:"webhook_url"`
		} `yaml:"chat"`
	} `yaml:"channels"`
	Scheduler struct {
		Enabled    bool   `yaml:"enabled"`
		RunOnStart bool   `yaml:"run_on_start"`
		Jobs       []Job  `yaml:"jobs"`
		Timezone   string `yaml:"timezone"`
	} `yaml:"scheduler"`
}

// Job is one scheduled workflow run.
type Job struct {
	Spec          string `yaml:"spec"`
	Symbol        string `yaml:"symbol"`
	SendEmail     bool   `yaml:"send_email"`
	LogToDocument bool   `yaml:"log_to_document"`
	CreateTask    bool   `yaml:"create_task"`
	SendChatAlert bool   `yaml:"send_chat_alert"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("MARKET_DATA_BASE_URL"); v != "" {
		c.MarketData.BaseURL = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("EMAIL_TOKEN"); v != "" {
		c.Channels.Email.Token = v
	}
	if v := os.Getenv("DOCUMENT_TOKEN"); v != "" {
		c.Channels.Document.Token = v
	}
	if v := os.Getenv("TASK_TRACKER_TOKEN"); v != "" {
		c.Channels.TaskTracker.Token = v
	}
	if v := os.Getenv("CHAT_WEBHOOK_URL"); v != "" {
		c.Channels.Chat.WebhookURL = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.MarketData.Timeout == 0 {
		c.MarketData.Timeout = 15 * time.Second
	}
	if c.MarketData.CacheTTL == 0 {
		c.MarketData.CacheTTL = 5 * time.Minute
	}
	if c.MarketData.MinRequestInterval == 0 {
		c.MarketData.MinRequestInterval = 2 * time.Second
	}
	if c.MarketData.HistoryInterval == "" {
		c.MarketData.HistoryInterval = "1d"
	}
	if c.MarketData.HistoryPeriods == 0 {
		c.MarketData.HistoryPeriods = 120
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Channels.Timeout == 0 {
		c.Channels.Timeout = 15 * time.Second
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Cache.Backend != "memory" && c.Cache.Redis.Host == "" {
		return fmt.Errorf("cache.redis.host is required for backend '%s'", c.Cache.Backend)
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}
	for i, j := range c.Scheduler.Jobs {
		if j.Spec == "" {
			return fmt.Errorf("scheduler.jobs[%d].spec is required", i)
		}
		if j.Symbol == "" {
			return fmt.Errorf("scheduler.jobs[%d].symbol is required", i)
		}
	}
	return nil
}
