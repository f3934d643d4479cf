package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configEnvKeys lists every env var Load reads, so tests start from a clean slate.
var configEnvKeys = []string{
	"ENV", "LOG_LEVEL", "CONFIG_FILE",
	"SERVER_PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "CORS_ORIGINS",
	"DB_DRIVER", "DB_DSN", "DB_DEBUG",
	"TRANSLATION_BACKEND", "OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
	"TRANSLATION_CALL_TIMEOUT", "TRANSLATION_MAX_RETRIES", "TRANSLATION_RPM",
	"TRANSLATION_CONCURRENCY", "TRANSLATION_WORKERS", "TRANSLATION_QUEUE_SIZE",
	"TRANSLATION_TASK_TIMEOUT", "TRANSLATION_CONTEXT", "TRANSLATION_STYLE",
	"CACHE_KIND", "CACHE_TTL", "CACHE_MAX_ENTRIES", "REDIS_URL", "CACHE_KEY_PREFIX",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
		Translation: TranslationConfig{
			Backend:     "stub",
			Style:       "financial",
			Concurrency: 4,
			Workers:     2,
			QueueSize:   100,
		},
		Cache: CacheConfig{Kind: "memory"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{noEnvFile(t)})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.NotEmpty(t, cfg.Database.DSN)
	assert.Equal(t, "stub", cfg.Translation.Backend)
	assert.Equal(t, 30*time.Second, cfg.Translation.CallTimeout)
	assert.Equal(t, 3, cfg.Translation.MaxRetries)
	assert.Equal(t, 60, cfg.Translation.RequestsPerMinute)
	assert.Equal(t, 4, cfg.Translation.Concurrency)
	assert.Equal(t, 2*time.Minute, cfg.Translation.TaskTimeout)
	assert.Equal(t, "memory", cfg.Cache.Kind)
	assert.Zero(t, cfg.Cache.TTL)
	assert.Equal(t, "invlocale:tm:", cfg.Cache.KeyPrefix)
	assert.Equal(t, 50000, cfg.Cache.MaxEntries)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("TRANSLATION_CONCURRENCY", "8")

	cfg, err := Load([]string{noEnvFile(t), "-port", "7000"})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 8, cfg.Translation.Concurrency)
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "invlocale.toml")
	content := `
[logger]
level = "debug"

[server]
port = "8181"
cors_origins = ["https://a.example", "https://b.example"]

[translation]
style = "marketing"
workers = 5
call_timeout = "10s"

[cache]
kind = "none"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Env still wins over the file.
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load([]string{noEnvFile(t), "-config", path})
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "marketing", cfg.Translation.Style)
	assert.Equal(t, 5, cfg.Translation.Workers)
	assert.Equal(t, 10*time.Second, cfg.Translation.CallTimeout)
	assert.Equal(t, "none", cfg.Cache.Kind)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "invlocale.yaml")
	content := `
database:
  driver: postgres
  dsn: postgres://localhost/invlocale?sslmode=disable
  debug: true
translation:
  max_retries: 0
cache:
  kind: redis
  redis_url: redis://localhost:6379/0
  ttl: 24h
  max_entries: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load([]string{noEnvFile(t), "-config", path})
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/invlocale?sslmode=disable", cfg.Database.DSN)
	assert.True(t, cfg.Database.Debug)
	assert.Equal(t, 0, cfg.Translation.MaxRetries)
	assert.Equal(t, "redis", cfg.Cache.Kind)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
}

func TestLoad_UnsupportedConfigExtension(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "invlocale.ini")
	require.NoError(t, os.WriteFile(path, []byte("x=1"), 0o600))

	_, err := Load([]string{noEnvFile(t), "-config", path})
	assert.Error(t, err)
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRANSLATION_CALL_TIMEOUT", "soon")

	_, err := Load([]string{noEnvFile(t)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call timeout")
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nSERVER_PORT=\"9999\"\nLOG_LEVEL=error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	// Already set env vars are not overridden by the .env file.
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load([]string{"-env-file", path})
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadEnvFile_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_PAIR\n"), 0o600))

	err := loadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }},
		{"backend", func(c *Config) { c.Translation.Backend = "deepl" }},
		{"openai without key", func(c *Config) { c.Translation.Backend = "openai" }},
		{"style", func(c *Config) { c.Translation.Style = "casual" }},
		{"concurrency", func(c *Config) { c.Translation.Concurrency = 0 }},
		{"workers", func(c *Config) { c.Translation.Workers = 0 }},
		{"negative rpm", func(c *Config) { c.Translation.RequestsPerMinute = -1 }},
		{"cache kind", func(c *Config) { c.Cache.Kind = "memcached" }},
		{"redis without url", func(c *Config) { c.Cache.Kind = "redis" }},
		{"negative cache size", func(c *Config) { c.Cache.MaxEntries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := validConfig()
	cfg.Logger.Level = "WARN"
	assert.NoError(t, cfg.Validate())
}

func TestGetIntConfigValue_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("INVLOCALE_TEST_INT", "many")
	assert.Equal(t, 7, getIntConfigValue("", "INVLOCALE_TEST_INT", 7))
	assert.Equal(t, 3, getIntConfigValue("3", "INVLOCALE_TEST_INT", 7))
}

func TestGetBoolConfigValue(t *testing.T) {
	assert.True(t, getBoolConfigValue("yes", "UNUSED_BOOL_KEY", false))
	assert.True(t, getBoolConfigValue("1", "UNUSED_BOOL_KEY", false))
	assert.False(t, getBoolConfigValue("off", "UNUSED_BOOL_KEY", true))
	assert.True(t, getBoolConfigValue("", "UNUSED_BOOL_KEY_EMPTY", true))
}
