package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordbot/pkg/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BLUESKY_USERNAME", "BLUESKY_PASSWORD", "POSTED_WORD_LIST_PATH",
		"WORDBOT_SERVICE", "WORDBOT_WORD_LIST_PATH", "WORDBOT_LEDGER_BACKEND",
		"WORDBOT_REDIS_ADDR", "WORDBOT_REDIS_PASSWORD", "WORDBOT_POSTGRES_DSN",
		"WORDBOT_SQLITE_PATH", "WORDBOT_KAFKA_BROKERS", "WORDBOT_SCHEDULE",
		"WORDBOT_WATERMARK", "WORDBOT_LOG_LEVEL", "WORDBOT_LOG_FORMAT", "WORDBOT_OPS_PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://bsky.social", cfg.Bluesky.Service)
	assert.Equal(t, BackendFile, cfg.Ledger.Backend)
	assert.Equal(t, "./postedWords.txt", cfg.Ledger.Path)
	assert.Equal(t, "*/10 * * * *", cfg.Schedule.Cron)
	assert.Equal(t, 2*time.Minute, cfg.Publisher.Timeout)
	assert.Equal(t, 9090, cfg.Ops.Port)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BLUESKY_USERNAME", "bot.bsky.social")
	t.Setenv("BLUESKY_PASSWORD", "app-password")
	t.Setenv("POSTED_WORD_LIST_PATH", "/data/posted.txt")
	t.Setenv("WORDBOT_LEDGER_BACKEND", "SQLite")
	t.Setenv("WORDBOT_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WORDBOT_OPS_PORT", "8181")
	t.Setenv("WORDBOT_SCHEDULE", "0 * * * *")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "bot.bsky.social", cfg.Bluesky.Identifier)
	assert.Equal(t, "app-password", cfg.Bluesky.Password)
	assert.Equal(t, "/data/posted.txt", cfg.Ledger.Path)
	assert.Equal(t, BackendSQLite, cfg.Ledger.Backend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 8181, cfg.Ops.Port)
	assert.Equal(t, "0 * * * *", cfg.Schedule.Cron)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "wordbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bluesky:
  identifier: from-file
  password: secret
ledger:
  backend: redis
  redisKey: test:posted
publisher:
  watermark: "@from-file"
  timeout: 45s
`), 0o644))
	t.Setenv("WORDBOT_WATERMARK", "@from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Bluesky.Identifier)
	assert.Equal(t, BackendRedis, cfg.Ledger.Backend)
	assert.Equal(t, "test:posted", cfg.Ledger.RedisKey)
	assert.Equal(t, 45*time.Second, cfg.Publisher.Timeout)
	assert.Equal(t, "@from-env", cfg.Publisher.Watermark)
	// Unset keys keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Bluesky.Identifier = "bot"
		cfg.Bluesky.Password = "pw"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing username", mutate: func(c *Config) { c.Bluesky.Identifier = "" }, wantErr: "BLUESKY_USERNAME"},
		{name: "missing both", mutate: func(c *Config) { c.Bluesky.Identifier, c.Bluesky.Password = "", "" }, wantErr: "BLUESKY_USERNAME and BLUESKY_PASSWORD"},
		{name: "unknown backend", mutate: func(c *Config) { c.Ledger.Backend = "etcd" }, wantErr: "etcd"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Ledger.Backend = BackendPostgres }, wantErr: "DSN"},
		{name: "empty cron", mutate: func(c *Config) { c.Schedule.Cron = "" }, wantErr: "cron"},
		{name: "malformed cron", mutate: func(c *Config) { c.Schedule.Cron = "every ten minutes" }, wantErr: "invalid schedule"},
		{name: "six field cron", mutate: func(c *Config) { c.Schedule.Cron = "0 */10 * * * *" }, wantErr: "invalid schedule"},
		{name: "descriptor", mutate: func(c *Config) { c.Schedule.Cron = "@every 10m" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLedgerIgnoresCredentials(t *testing.T) {
	cfg := defaultConfig()
	assert.NoError(t, cfg.ValidateLedger())
	assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfiguration)
}
