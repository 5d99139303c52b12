package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"required"`
	Server      ServerConfig    `yaml:"server"`
	Metrics     MetricsConfig   `yaml:"metrics"`
	Logging     LoggingConfig   `yaml:"logging"`
	Risk        RiskConfig      `yaml:"risk"`
	Analysis    AnalysisConfig  `yaml:"analysis"`
	Backend     BackendConfig   `yaml:"backend"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	ClickHouse  ClickHouseCfg   `yaml:"clickhouse"`
	Provider    ProviderConfig  `yaml:"provider"`
	Cache       CacheConfig     `yaml:"cache"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	BodyLimit       string        `yaml:"body_limit" default:"2M"`
	CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type LoggingConfig struct {
	Level     string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format    string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output    string `yaml:"output" default:"stdout"`
	Collector struct {
		Enabled   bool          `yaml:"enabled"`
		Topic     string        `yaml:"topic" default:"credit.logs"`
		Interval  time.Duration `yaml:"interval" default:"30s"`
		Threshold int           `yaml:"threshold" default:"100" validate:"gt=0"`
	} `yaml:"collector"`
}

// RiskConfig holds the decision thresholds and solver settings.
type RiskConfig struct {
	ZSafe                 float64      `yaml:"z_safe" default:"3.0"`
	ZDistress             float64      `yaml:"z_distress" default:"1.8"`
	MaxDefaultProbability float64      `yaml:"max_default_probability" default:"0.05" validate:"gt=0,lte=1"`
	Solver                SolverConfig `yaml:"solver"`
}

type SolverConfig struct {
	Horizon            float64 `yaml:"horizon" default:"1.0" validate:"gt=0"`
	Tolerance          float64 `yaml:"tolerance" default:"0.000001" validate:"gt=0"`
	MaxIterations      int     `yaml:"max_iterations" default:"100" validate:"gte=1"`
	ScaleTolerance     bool    `yaml:"scale_tolerance" default:"true"`
	RequireConvergence bool    `yaml:"require_convergence" default:"true"`
}

type AnalysisConfig struct {
	Workers int           `yaml:"workers" default:"8" validate:"gte=1"`
	Timeout time.Duration `yaml:"timeout" default:"20s"`
}

type BackendConfig struct {
	Type         string        `yaml:"type" default:"kafka" validate:"oneof=kafka clickhouse"`
	BatchSize    int           `yaml:"batch_size" default:"100" validate:"gt=0"`
	BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
}

type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers" default:"[\"localhost:9092\"]"`
	SnapshotTopic string   `yaml:"snapshot_topic" default:"credit.snapshots"`
	DecisionTopic string   `yaml:"decision_topic" default:"credit.decisions"`
	RequiredAcks  int      `yaml:"required_acks" default:"-1"`
	Compression   string   `yaml:"compression" default:"snappy"`
	Producer      struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"5"`
		Linger       time.Duration `yaml:"linger" default:"20ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async"`
	} `yaml:"producer"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" default:"credit-risk"`
		Workers    int           `yaml:"workers" default:"4"`
		BufferSize int           `yaml:"buffer_size" default:"256"`
		RetryMax   int           `yaml:"retry_max" default:"3"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic" default:"credit.snapshots.dlq"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
	} `yaml:"consumer"`
}

type ClickHouseCfg struct {
	Enabled          bool          `yaml:"enabled"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"credit"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert" default:"true"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"30s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	SnapshotTable    string        `yaml:"snapshot_table" default:"financial_snapshots"`
	AssessmentTable  string        `yaml:"assessment_table" default:"assessments"`
}

// ProviderConfig selects where GET /api/credit pulls snapshots from.
type ProviderConfig struct {
	Type     string        `yaml:"type" default:"none" validate:"oneof=none http clickhouse"`
	URL      string        `yaml:"url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout" default:"10s"`
	Retries  int           `yaml:"retries" default:"2" validate:"gte=0"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"1h"`
}

type CacheConfig struct {
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" default:"5"`
	Burst int     `yaml:"burst" default:"10"`
}

// Default returns a configuration built from struct defaults only.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes on top of the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CREDIT_BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PROVIDER_URL"); v != "" {
		c.Provider.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks tag constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs []error
	if c.Risk.ZDistress >= c.Risk.ZSafe {
		errs = append(errs, fmt.Errorf("risk.z_distress (%v) must be below risk.z_safe (%v)", c.Risk.ZDistress, c.Risk.ZSafe))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Kafka.Enabled && c.Backend.Type == "clickhouse" && !c.ClickHouse.Enabled {
		errs = append(errs, errors.New("backend.type clickhouse requires clickhouse.enabled"))
	}
	if c.Provider.Type == "http" && c.Provider.URL == "" {
		errs = append(errs, errors.New("provider.url is required for the http provider"))
	}
	if c.Provider.Type == "clickhouse" && !c.ClickHouse.Enabled {
		errs = append(errs, errors.New("provider.type clickhouse requires clickhouse.enabled"))
	}
	if c.Logging.Collector.Enabled && !c.Kafka.Enabled {
		errs = append(errs, errors.New("logging.collector requires kafka.enabled"))
	}
	return errors.Join(errs...)
}
