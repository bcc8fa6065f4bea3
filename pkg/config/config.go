// Package config loads and validates wordbot configuration from an optional
// YAML file with environment-variable overrides. A .env file in the working
// directory is honoured before the environment is read.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
)

// Ledger backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config is the top-level application configuration.
type Config struct {
	Bluesky   BlueskyConfig   `yaml:"bluesky"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Redis     RedisConfig     `yaml:"redis"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Publisher PublisherConfig `yaml:"publisher"`
	Logging   LoggingConfig   `yaml:"logging"`
	Ops       OpsConfig       `yaml:"ops"`
}

// BlueskyConfig holds the account identity and the PDS endpoint.
type BlueskyConfig struct {
	Service    string        `yaml:"service"`
	Identifier string        `yaml:"identifier"`
	Password   string        `yaml:"password"`
	Timeout    time.Duration `yaml:"timeout"`
}

// CorpusConfig points at the word list. An empty path selects the built-in list.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig selects the posted-word store.
type LedgerConfig struct {
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
	SQLitePath string `yaml:"sqlitePath"`
	RedisKey   string `yaml:"redisKey"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// KafkaConfig enables the post-event stream when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// ScheduleConfig controls the cron trigger.
type ScheduleConfig struct {
	Cron       string `yaml:"cron"`
	RunOnStart bool   `yaml:"runOnStart"`
}

// PublisherConfig controls rendering and the publish guard rails.
type PublisherConfig struct {
	Watermark               string        `yaml:"watermark"`
	Timeout                 time.Duration `yaml:"timeout"`
	BreakerFailureThreshold int           `yaml:"breakerFailureThreshold"`
	BreakerResetTimeout     time.Duration `yaml:"breakerResetTimeout"`
	LoginAttempts           int           `yaml:"loginAttempts"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OpsConfig controls the metrics/health/status HTTP server.
type OpsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values. Load does not validate; call Validate before starting work.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate checks the settings that must be present before any scheduling
// begins. Every failure wraps ErrConfiguration.
func (c *Config) Validate() error {
	var missing []string
	if c.Bluesky.Identifier == "" {
		missing = append(missing, "BLUESKY_USERNAME")
	}
	if c.Bluesky.Password == "" {
		missing = append(missing, "BLUESKY_PASSWORD")
	}
	if len(missing) > 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "%s must be set", strings.Join(missing, " and "))
	}
	if err := c.ValidateLedger(); err != nil {
		return err
	}
	if c.Schedule.Cron == "" {
		return apperrors.New(apperrors.ErrConfiguration, "schedule cron expression is empty")
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return apperrors.Wrapf(apperrors.ErrConfiguration, err, "invalid schedule %q", c.Schedule.Cron)
	}
	return nil
}

// ValidateLedger checks only the ledger settings. Read-only commands that
// never post use it in place of Validate.
func (c *Config) ValidateLedger() error {
	switch c.Ledger.Backend {
	case BackendFile, BackendRedis, BackendSQLite:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return apperrors.New(apperrors.ErrConfiguration, "postgres ledger requires a DSN")
		}
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown ledger backend %q", c.Ledger.Backend)
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Bluesky: BlueskyConfig{
			Service: "https://bsky.social",
			Timeout: 30 * time.Second,
		},
		Ledger: LedgerConfig{
			Backend:    BackendFile,
			Path:       "./postedWords.txt",
			SQLitePath: "./wordbot.db",
			RedisKey:   "wordbot:posted",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Topic: "wordbot-posts",
		},
		Schedule: ScheduleConfig{
			Cron: "*/10 * * * *",
		},
		Publisher: PublisherConfig{
			Watermark:               "@wordbot",
			Timeout:                 2 * time.Minute,
			BreakerFailureThreshold: 3,
			BreakerResetTimeout:     30 * time.Minute,
			LoginAttempts:           5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ops: OpsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads the BLUESKY_*, POSTED_WORD_LIST_PATH and WORDBOT_*
// environment variables and overrides the corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BLUESKY_USERNAME"); v != "" {
		cfg.Bluesky.Identifier = v
	}
	if v := os.Getenv("BLUESKY_PASSWORD"); v != "" {
		cfg.Bluesky.Password = v
	}
	if v := os.Getenv("POSTED_WORD_LIST_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
	if v := os.Getenv("WORDBOT_SERVICE"); v != "" {
		cfg.Bluesky.Service = v
	}
	if v := os.Getenv("WORDBOT_WORD_LIST_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("WORDBOT_LEDGER_BACKEND"); v != "" {
		cfg.Ledger.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("WORDBOT_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("WORDBOT_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("WORDBOT_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("WORDBOT_SQLITE_PATH"); v != "" {
		cfg.Ledger.SQLitePath = v
	}
	if v := os.Getenv("WORDBOT_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("WORDBOT_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("WORDBOT_WATERMARK"); v != "" {
		cfg.Publisher.Watermark = v
	}
	if v := os.Getenv("WORDBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WORDBOT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("WORDBOT_OPS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Ops.Port = port
		}
	}
}
