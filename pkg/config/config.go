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
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Store struct {
		// Backend selects where merged datasets persist: "file" or "clickhouse".
		Backend     string `yaml:"backend"`
		Dir         string `yaml:"dir"`
		OverlapDays int    `yaml:"overlap_days"`
		DefaultDays int    `yaml:"default_days"`
		// Tiebreak picks the winner among same-day intraday records:
		// "first" or "last".
		Tiebreak string `yaml:"tiebreak"`
	} `yaml:"store"`
	Datasets []DatasetConfig `yaml:"datasets"`
	Binance  struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"binance"`
	Fetch struct {
		RetryMax   int           `yaml:"retry_max"`
		BackoffMin time.Duration `yaml:"backoff_min"`
		BackoffMax time.Duration `yaml:"backoff_max"`
	} `yaml:"fetch"`
	Composite struct {
		Anchor string          `yaml:"anchor"`
		Inputs []CompositeItem `yaml:"inputs"`
	} `yaml:"composite"`
	Regime struct {
		FitCacheTTL time.Duration `yaml:"fit_cache_ttl"`
		MaxIter     int           `yaml:"max_iter"`
		Tolerance   float64       `yaml:"tolerance"`
		// FallbackPercentile splits Low from High when the percentile
		// fallback labels the window instead of the switching model.
		FallbackPercentile float64 `yaml:"fallback_percentile"`
	} `yaml:"regime"`
	Scheduler struct {
		Enabled  bool          `yaml:"enabled"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"scheduler"`
	Cache struct {
		TTL   time.Duration `yaml:"ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled  bool          `yaml:"enabled"`
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
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
	ClickHouse struct {
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
}

// DatasetConfig declares one managed dataset and its upstream source.
type DatasetConfig struct {
	Name string `yaml:"name"`
	// Source is "binance" or "simple".
	Source string `yaml:"source"`
	// Symbol is the exchange symbol for binance sources.
	Symbol string `yaml:"symbol"`
	// URL is the endpoint for simple-series sources. The placeholders
	// {start} and {end} expand to epoch milliseconds.
	URL string `yaml:"url"`
	// Shape is "simple" or "ohlcv".
	Shape       string `yaml:"shape"`
	Description string `yaml:"description"`
}

// CompositeItem declares one configured composite input.
type CompositeItem struct {
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
	Invert bool    `yaml:"invert"`
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

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("STORE_DIR"); v != "" {
		c.Store.Dir = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "file"
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "data"
	}
	if c.Store.OverlapDays == 0 {
		c.Store.OverlapDays = 5
	}
	if c.Store.DefaultDays == 0 {
		c.Store.DefaultDays = 365
	}
	if c.Store.Tiebreak == "" {
		c.Store.Tiebreak = "first"
	}
	if c.Binance.BaseURL == "" {
		c.Binance.BaseURL = "https://api.binance.com"
	}
	if c.Binance.Timeout == 0 {
		c.Binance.Timeout = 15 * time.Second
	}
	if c.Fetch.RetryMax == 0 {
		c.Fetch.RetryMax = 3
	}
	if c.Fetch.BackoffMin == 0 {
		c.Fetch.BackoffMin = 500 * time.Millisecond
	}
	if c.Fetch.BackoffMax == 0 {
		c.Fetch.BackoffMax = 10 * time.Second
	}
	if c.Regime.FitCacheTTL == 0 {
		c.Regime.FitCacheTTL = time.Hour
	}
	if c.Regime.MaxIter == 0 {
		c.Regime.MaxIter = 100
	}
	if c.Regime.Tolerance == 0 {
		c.Regime.Tolerance = 1e-6
	}
	if c.Regime.FallbackPercentile == 0 {
		c.Regime.FallbackPercentile = 50
	}
	if c.Scheduler.Interval == 0 {
		c.Scheduler.Interval = time.Minute
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Store.Backend != "file" && c.Store.Backend != "clickhouse" {
		return fmt.Errorf("store.backend must be 'file' or 'clickhouse', got '%s'", c.Store.Backend)
	}
	if c.Store.Tiebreak != "first" && c.Store.Tiebreak != "last" {
		return fmt.Errorf("store.tiebreak must be 'first' or 'last', got '%s'", c.Store.Tiebreak)
	}
	if c.Store.OverlapDays < 0 {
		return fmt.Errorf("store.overlap_days cannot be negative")
	}
	if len(c.Datasets) == 0 {
		return fmt.Errorf("datasets cannot be empty")
	}
	seen := make(map[string]bool, len(c.Datasets))
	for _, d := range c.Datasets {
		if d.Name == "" {
			return fmt.Errorf("datasets: name is required")
		}
		if seen[d.Name] {
			return fmt.Errorf("datasets: duplicate name '%s'", d.Name)
		}
		seen[d.Name] = true
		switch d.Source {
		case "binance":
			if d.Symbol == "" {
				return fmt.Errorf("dataset '%s': symbol is required for binance source", d.Name)
			}
		case "simple":
			if d.URL == "" {
				return fmt.Errorf("dataset '%s': url is required for simple source", d.Name)
			}
		default:
			return fmt.Errorf("dataset '%s': source must be 'binance' or 'simple', got '%s'", d.Name, d.Source)
		}
		if d.Shape != "" && d.Shape != "simple" && d.Shape != "ohlcv" {
			return fmt.Errorf("dataset '%s': shape must be 'simple' or 'ohlcv', got '%s'", d.Name, d.Shape)
		}
	}
	for _, in := range c.Composite.Inputs {
		if !seen[in.Name] {
			return fmt.Errorf("composite: input '%s' is not a configured dataset", in.Name)
		}
	}
	if c.Composite.Anchor != "" && !seen[c.Composite.Anchor] {
		return fmt.Errorf("composite: anchor '%s' is not a configured dataset", c.Composite.Anchor)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// Dataset returns the configuration for a named dataset, ok=false when the
// name is not configured.
func (c *Config) Dataset(name string) (DatasetConfig, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetConfig{}, false
}
