// Package config provides application configuration management with support for
// command-line flags, environment variables, TOML/YAML config files, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Server      ServerConfig
	Database    DatabaseConfig
	Translation TranslationConfig
	Cache       CacheConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed CORS origins (default: *)
}

// DatabaseConfig holds persistence configuration.
type DatabaseConfig struct {
	// Driver is sqlite or postgres.
	Driver string
	DSN    string
	// Debug logs every query through bundebug.
	Debug bool
}

// TranslationConfig holds translation backend and reconciler configuration.
type TranslationConfig struct {
	// Backend is stub or openai.
	Backend string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	CallTimeout       time.Duration // Per backend call (default: 30s)
	MaxRetries        int           // Retries on retryable backend errors (default: 3)
	RequestsPerMinute int           // Backend rate limit, 0 disables (default: 60)

	Concurrency int           // Locales translated in parallel per entity (default: 4)
	Workers     int           // Background reconciliation workers (default: 2)
	QueueSize   int           // Pending reconciliation tasks (default: 100)
	TaskTimeout time.Duration // Upper bound for one reconciliation task (default: 2m)

	Context string // Global prompt context
	Style   string // formal, neutral, marketing, financial
}

// CacheConfig holds translation memo configuration.
type CacheConfig struct {
	// Kind is memory, redis or none.
	Kind       string
	TTL        time.Duration // 0 means no expiry
	MaxEntries int           // memory memo bound, 0 means unbounded
	RedisURL   string
	KeyPrefix  string
}

// fileConfig mirrors Config in the shape of a TOML or YAML config file.
// Durations are strings so both formats parse them the same way.
type fileConfig struct {
	App struct {
		Environment string `toml:"environment" yaml:"environment"`
	} `toml:"app" yaml:"app"`
	Logger struct {
		Level string `toml:"level" yaml:"level"`
	} `toml:"logger" yaml:"logger"`
	Server struct {
		Port         string   `toml:"port" yaml:"port"`
		ReadTimeout  string   `toml:"read_timeout" yaml:"read_timeout"`
		WriteTimeout string   `toml:"write_timeout" yaml:"write_timeout"`
		IdleTimeout  string   `toml:"idle_timeout" yaml:"idle_timeout"`
		CORSOrigins  []string `toml:"cors_origins" yaml:"cors_origins"`
	} `toml:"server" yaml:"server"`
	Database struct {
		Driver string `toml:"driver" yaml:"driver"`
		DSN    string `toml:"dsn" yaml:"dsn"`
		Debug  *bool  `toml:"debug" yaml:"debug"`
	} `toml:"database" yaml:"database"`
	Translation struct {
		Backend           string `toml:"backend" yaml:"backend"`
		OpenAIKey         string `toml:"openai_key" yaml:"openai_key"`
		OpenAIModel       string `toml:"openai_model" yaml:"openai_model"`
		OpenAIBaseURL     string `toml:"openai_base_url" yaml:"openai_base_url"`
		CallTimeout       string `toml:"call_timeout" yaml:"call_timeout"`
		MaxRetries        *int   `toml:"max_retries" yaml:"max_retries"`
		RequestsPerMinute *int   `toml:"requests_per_minute" yaml:"requests_per_minute"`
		Concurrency       *int   `toml:"concurrency" yaml:"concurrency"`
		Workers           *int   `toml:"workers" yaml:"workers"`
		QueueSize         *int   `toml:"queue_size" yaml:"queue_size"`
		TaskTimeout       string `toml:"task_timeout" yaml:"task_timeout"`
		Context           string `toml:"context" yaml:"context"`
		Style             string `toml:"style" yaml:"style"`
	} `toml:"translation" yaml:"translation"`
	Cache struct {
		Kind       string `toml:"kind" yaml:"kind"`
		TTL        string `toml:"ttl" yaml:"ttl"`
		MaxEntries *int   `toml:"max_entries" yaml:"max_entries"`
		RedisURL   string `toml:"redis_url" yaml:"redis_url"`
		KeyPrefix  string `toml:"key_prefix" yaml:"key_prefix"`
	} `toml:"cache" yaml:"cache"`
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables (a .env file only fills unset ones).
// 3. Config file (.toml, .yaml or .yml), if given.
// 4. Default values (lowest priority).
//
// Unknown flags are an error.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("invlocale", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	configFile := fs.String("config", "", "Path to a .toml or .yaml config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")

	// Database flags
	dbDriver := fs.String("db-driver", "", "Database driver: sqlite or postgres (default: sqlite)")
	dbDSN := fs.String("db-dsn", "", "Database DSN")
	dbDebug := fs.String("db-debug", "", "Log every SQL query (default: false)")

	// Translation flags
	backend := fs.String("backend", "", "Translation backend: stub or openai (default: stub)")
	openAIModel := fs.String("openai-model", "", "OpenAI model (default: gpt-4o-mini)")
	openAIBaseURL := fs.String("openai-base-url", "", "OpenAI-compatible base URL")
	callTimeout := fs.String("call-timeout", "", "Per backend call timeout (default: 30s)")
	maxRetries := fs.String("max-retries", "", "Retries on retryable backend errors (default: 3)")
	rpm := fs.String("requests-per-minute", "", "Backend rate limit, 0 disables (default: 60)")
	concurrency := fs.String("concurrency", "", "Locales translated in parallel (default: 4)")
	workers := fs.String("workers", "", "Background reconciliation workers (default: 2)")
	queueSize := fs.String("queue-size", "", "Pending reconciliation tasks (default: 100)")
	taskTimeout := fs.String("task-timeout", "", "Reconciliation task timeout (default: 2m)")
	style := fs.String("style", "", "Translation style (default: financial)")

	// Cache flags
	cacheKind := fs.String("cache", "", "Translation memo: memory, redis or none (default: memory)")
	cacheTTL := fs.String("cache-ttl", "", "Translation memo TTL, 0 for none (default: 0)")
	cacheMax := fs.String("cache-max-entries", "", "Memory memo capacity, 0 for unbounded (default: 50000)")
	redisURL := fs.String("redis-url", "", "Redis URL for the translation memo")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	var file fileConfig
	if path := getConfigValue(*configFile, "CONFIG_FILE", ""); path != "" {
		if err := loadConfigFile(path, &file); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", orDefault(file.App.Environment, "development")),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", orDefault(file.Logger.Level, "info")),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", orDefault(file.Server.Port, "8080")),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", orDefault(strings.Join(file.Server.CORSOrigins, ","), "*"))),
		},
		Database: DatabaseConfig{
			Driver: getConfigValue(*dbDriver, "DB_DRIVER", orDefault(file.Database.Driver, "sqlite")),
			DSN:    getConfigValue(*dbDSN, "DB_DSN", file.Database.DSN),
			Debug:  getBoolConfigValue(*dbDebug, "DB_DEBUG", boolOr(file.Database.Debug, false)),
		},
		Translation: TranslationConfig{
			Backend:           getConfigValue(*backend, "TRANSLATION_BACKEND", orDefault(file.Translation.Backend, "stub")),
			OpenAIKey:         getConfigValue("", "OPENAI_API_KEY", file.Translation.OpenAIKey),
			OpenAIModel:       getConfigValue(*openAIModel, "OPENAI_MODEL", orDefault(file.Translation.OpenAIModel, "gpt-4o-mini")),
			OpenAIBaseURL:     getConfigValue(*openAIBaseURL, "OPENAI_BASE_URL", file.Translation.OpenAIBaseURL),
			MaxRetries:        getIntConfigValue(*maxRetries, "TRANSLATION_MAX_RETRIES", intOr(file.Translation.MaxRetries, 3)),
			RequestsPerMinute: getIntConfigValue(*rpm, "TRANSLATION_RPM", intOr(file.Translation.RequestsPerMinute, 60)),
			Concurrency:       getIntConfigValue(*concurrency, "TRANSLATION_CONCURRENCY", intOr(file.Translation.Concurrency, 4)),
			Workers:           getIntConfigValue(*workers, "TRANSLATION_WORKERS", intOr(file.Translation.Workers, 2)),
			QueueSize:         getIntConfigValue(*queueSize, "TRANSLATION_QUEUE_SIZE", intOr(file.Translation.QueueSize, 100)),
			Context:           getConfigValue("", "TRANSLATION_CONTEXT", file.Translation.Context),
			Style:             getConfigValue(*style, "TRANSLATION_STYLE", orDefault(file.Translation.Style, "financial")),
		},
		Cache: CacheConfig{
			Kind:       getConfigValue(*cacheKind, "CACHE_KIND", orDefault(file.Cache.Kind, "memory")),
			MaxEntries: getIntConfigValue(*cacheMax, "CACHE_MAX_ENTRIES", intOr(file.Cache.MaxEntries, 50000)),
			RedisURL:   getConfigValue(*redisURL, "REDIS_URL", file.Cache.RedisURL),
			KeyPrefix:  getConfigValue("", "CACHE_KEY_PREFIX", orDefault(file.Cache.KeyPrefix, "invlocale:tm:")),
		},
	}

	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "file:invlocale.db?cache=shared"
	}

	// Parse durations.
	durations := []struct {
		name   string
		flag   string
		envKey string
		file   string
		def    string
		dst    *time.Duration
	}{
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", file.Server.ReadTimeout, "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout, "15s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", file.Server.IdleTimeout, "60s", &cfg.Server.IdleTimeout},
		{"call timeout", *callTimeout, "TRANSLATION_CALL_TIMEOUT", file.Translation.CallTimeout, "30s", &cfg.Translation.CallTimeout},
		{"task timeout", *taskTimeout, "TRANSLATION_TASK_TIMEOUT", file.Translation.TaskTimeout, "2m", &cfg.Translation.TaskTimeout},
		{"cache ttl", *cacheTTL, "CACHE_TTL", file.Cache.TTL, "0s", &cfg.Cache.TTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, orDefault(d.file, d.def))
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("DB_DSN is required for postgres")
	}

	switch c.Translation.Backend {
	case "stub":
	case "openai":
		if c.Translation.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai backend")
		}
	default:
		return fmt.Errorf("invalid translation backend: %s (must be stub or openai)", c.Translation.Backend)
	}

	validStyles := map[string]bool{
		"formal":    true,
		"neutral":   true,
		"marketing": true,
		"financial": true,
	}
	if !validStyles[c.Translation.Style] {
		return fmt.Errorf("invalid translation style: %s", c.Translation.Style)
	}

	if c.Translation.Concurrency < 1 {
		return errors.New("translation concurrency must be at least 1")
	}
	if c.Translation.Workers < 1 {
		return errors.New("translation workers must be at least 1")
	}
	if c.Translation.QueueSize < 0 || c.Translation.MaxRetries < 0 || c.Translation.RequestsPerMinute < 0 {
		return errors.New("translation queue size, retries and rate limit cannot be negative")
	}

	if c.Cache.MaxEntries < 0 {
		return errors.New("cache max entries cannot be negative")
	}

	switch c.Cache.Kind {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis cache")
		}
	default:
		return fmt.Errorf("invalid cache kind: %s (must be memory, redis, or none)", c.Cache.Kind)
	}

	return nil
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// loadConfigFile decodes a TOML or YAML file chosen by extension.
func loadConfigFile(path string, dst *fileConfig) error {
	data, err := os.ReadFile(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), dst); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func orDefault(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

func intOr(value *int, def int) int {
	if value != nil {
		return *value
	}
	return def
}

func boolOr(value *bool, def bool) bool {
	if value != nil {
		return *value
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
