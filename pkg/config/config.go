package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Benchmark struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Log         struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Store struct {
		Type string `yaml:"type" default:"clickhouse"`
	} `yaml:"store"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"catalytics"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Postgres struct {
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns" default:"10"`
		MaxIdleConns int    `yaml:"max_idle_conns" default:"5"`
	} `yaml:"postgres"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"catalytics.snapshots"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"250"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled    bool          `yaml:"enabled"`
			GroupID    string        `yaml:"group_id" default:"catalytics-snapshots"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled    bool          `yaml:"enabled"`
		Addr       string        `yaml:"addr" default:"localhost:6379"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		KeyPrefix  string        `yaml:"key_prefix" default:"catalytics:queue"`
		Workers    int           `yaml:"workers" default:"1"`
		RetryLimit int           `yaml:"retry_limit" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"1m"`
	} `yaml:"redis"`
	Cache struct {
		Enabled       bool          `yaml:"enabled"`
		TTL           time.Duration `yaml:"ttl" default:"10m"`
		MemoryTTL     time.Duration `yaml:"memory_ttl" default:"1m"`
		MemoryMaxSize int           `yaml:"memory_max_size" default:"1000"`
		KeyPrefix     string        `yaml:"key_prefix" default:"catalytics:cache"`
	} `yaml:"cache"`
	CoinGecko struct {
		BaseURL  string        `yaml:"base_url" default:"https://api.coingecko.com/api/v3"`
		APIKey   string        `yaml:"api_key"`
		PerPage  int           `yaml:"per_page" default:"250"`
		MaxPages int           `yaml:"max_pages" default:"40"`
		RPS      float64       `yaml:"rps" default:"0.5"`
		Burst    int           `yaml:"burst" default:"1"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"coingecko"`
	Feeds struct {
		Timeout time.Duration `yaml:"timeout" default:"15s"`
		TLX     struct {
			BaseURL string   `yaml:"base_url" default:"https://np40nkw6be.execute-api.us-east-1.amazonaws.com/Prod/hello/"`
			IDs     []string `yaml:"ids"`
		} `yaml:"tlx"`
		Toros struct {
			BaseURL string   `yaml:"base_url" default:"https://np40nkw6be.execute-api.us-east-1.amazonaws.com/Prod/toros/"`
			IDs     []string `yaml:"ids"`
		} `yaml:"toros"`
		Breaker struct {
			ConsecutiveFailures uint32        `yaml:"consecutive_failures" default:"3"`
			Interval            time.Duration `yaml:"interval" default:"60s"`
			Timeout             time.Duration `yaml:"timeout" default:"60s"`
		} `yaml:"breaker"`
	} `yaml:"feeds"`
	Ingest struct {
		Backend    string   `yaml:"backend" default:"direct"`
		Schedule   string   `yaml:"schedule" default:"0 1 * * *"`
		Categories []string `yaml:"categories"`
		BatchSize  int      `yaml:"batch_size" default:"500"`
	} `yaml:"ingest"`
	Analytics struct {
		CorrelationWindows []int       `yaml:"correlation_windows"`
		RSPSCategory       string      `yaml:"rsps_category" default:"coingecko-memes"`
		RSPSBenchmarks     []Benchmark `yaml:"rsps_benchmarks"`
	} `yaml:"analytics"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("config defaults: %w", err)
	}
	if len(c.Ingest.Categories) == 0 {
		c.Ingest.Categories = []string{"coingecko", "coingecko-sol-memes", "coingecko-memes"}
	}
	if len(c.Analytics.CorrelationWindows) == 0 {
		c.Analytics.CorrelationWindows = []int{15, 30, 60, 90, 120}
	}
	if len(c.Analytics.RSPSBenchmarks) == 0 {
		c.Analytics.RSPSBenchmarks = []Benchmark{
			{ID: "total", Label: "total"},
			{ID: "total2", Label: "total2"},
			{ID: "total3", Label: "total3"},
			{ID: "others.d", Label: "others"},
			{ID: "btc", Label: "btc"},
			{ID: "eth", Label: "eth"},
		}
	}
	if len(c.Feeds.TLX.IDs) == 0 {
		c.Feeds.TLX.IDs = []string{
			"BTC1L", "BTC2L", "BTC3L", "BTC4L", "BTC5L", "BTC7L",
			"ETH1L", "ETH2L", "ETH3L", "ETH4L", "ETH5L", "ETH7L",
			"SOL1L", "SOL2L", "SOL3L", "SOL4L", "SOL5L", "DOGE2L", "DOGE5L",
		}
	}
	if len(c.Feeds.Toros.IDs) == 0 {
		c.Feeds.Toros.IDs = []string{
			"BTC2XOPT", "BTC3XOPT", "BTC4XOPT", "BTC3XPOL", "BTC2XARB", "BTC3XARB",
			"ETH2XOPT", "ETH3XOPT", "ETH3XPOL", "ETH2XARB", "ETH3XARB",
			"STETH2X", "STETH3X", "STETH4X", "SOL2XOPT", "SOL3XOPT",
		}
	}
	return nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return c, nil
}

// ApplyEnv overrides selected fields from the environment and re-validates.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("COINGECKO_API_KEY"); v != "" {
		c.CoinGecko.APIKey = v
	}
	if v := getenv("STORE_TYPE"); v != "" {
		c.Store.Type = v
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("INGEST_BACKEND"); v != "" {
		c.Ingest.Backend = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return c.Validate()
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Store.Type {
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required")
		}
	default:
		return fmt.Errorf("store.type must be 'clickhouse' or 'postgres', got '%s'", c.Store.Type)
	}
	switch c.Ingest.Backend {
	case "direct":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when ingest.backend is kafka")
		}
	default:
		return fmt.Errorf("ingest.backend must be 'direct' or 'kafka', got '%s'", c.Ingest.Backend)
	}
	if c.Kafka.Consumer.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka.consumer.enabled")
	}
	for _, w := range c.Analytics.CorrelationWindows {
		if w < 2 {
			return fmt.Errorf("analytics.correlation_windows must be >= 2, got %d", w)
		}
	}
	for _, b := range c.Analytics.RSPSBenchmarks {
		if b.ID == "" || b.Label == "" {
			return fmt.Errorf("analytics.rsps_benchmarks entries need id and label")
		}
	}
	return nil
}
