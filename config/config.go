package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"gamegen/adapters/redis"
	"gamegen/adapters/upstash"
	"gamegen/llm"
	"gamegen/tracing"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Storage adapters.
const (
	AdapterAuto    = "auto"
	AdapterMemory  = "memory"
	AdapterRedis   = "redis"
	AdapterUpstash = "upstash"
	AdapterFile    = "file"
)

// Config holds the complete application configuration
type Config struct {
	// Environment and profile settings
	Environment Environment `json:"environment" yaml:"environment" env:"GAMEGEN_ENV"`
	Profile     string      `json:"profile" yaml:"profile" env:"GAMEGEN_PROFILE"`

	Server       ServerConfig       `json:"server" yaml:"server"`
	Storage      StorageConfig      `json:"storage" yaml:"storage"`
	Games        GamesConfig        `json:"games" yaml:"games"`
	LLM          llm.Config         `json:"llm" yaml:"llm"`
	Leaderboard  LeaderboardConfig  `json:"leaderboard" yaml:"leaderboard"`
	Logging      LoggingConfig      `json:"logging" yaml:"logging"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics"`
	Tracing      tracing.Config     `json:"tracing" yaml:"tracing"`
	Security     SecurityConfig     `json:"security" yaml:"security"`
	Integrations IntegrationsConfig `json:"integrations" yaml:"integrations"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address           string        `json:"address" yaml:"address" env:"GAMEGEN_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" yaml:"path_prefix" env:"GAMEGEN_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" yaml:"cors_origin" env:"GAMEGEN_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" yaml:"read_timeout" env:"GAMEGEN_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" yaml:"write_timeout" env:"GAMEGEN_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" yaml:"idle_timeout" env:"GAMEGEN_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" env:"GAMEGEN_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" env:"GAMEGEN_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects the sorted-set and page cache backend.
// "auto" picks upstash when its credentials are set, then redis when a URL
// is set, and otherwise runs with the leaderboard disabled.
type StorageConfig struct {
	Adapter string         `json:"adapter" yaml:"adapter" env:"GAMEGEN_STORAGE_ADAPTER"`
	Redis   redis.Config   `json:"redis,omitempty" yaml:"redis,omitempty"`
	Upstash upstash.Config `json:"upstash,omitempty" yaml:"upstash,omitempty"`
	File    FileConfig     `json:"file,omitempty" yaml:"file,omitempty"`
}

// FileConfig holds JSON file storage configuration
type FileConfig struct {
	Path string `json:"path" yaml:"path" env:"GAMEGEN_STORAGE_FILE_PATH"`
}

// GamesConfig locates generated pages and the landing page assets.
type GamesConfig struct {
	Dir          string        `json:"dir" yaml:"dir" env:"GAMES_DIR"`
	StaticDir    string        `json:"static_dir" yaml:"static_dir" env:"STATIC_DIR"`
	GeneratedTTL time.Duration `json:"generated_ttl" yaml:"generated_ttl" env:"GAMEGEN_GENERATED_TTL"`
	PublishedTTL time.Duration `json:"published_ttl" yaml:"published_ttl" env:"GAMEGEN_PUBLISHED_TTL"`
}

// LeaderboardConfig bounds reads and configures optional score rules.
// MaxScore of zero disables the ceiling.
type LeaderboardConfig struct {
	DefaultLimit   int     `json:"default_limit" yaml:"default_limit" env:"LEADERBOARD_DEFAULT_LIMIT"`
	MaxLimit       int     `json:"max_limit" yaml:"max_limit" env:"LEADERBOARD_MAX_LIMIT"`
	MaxScore       float64 `json:"max_score" yaml:"max_score" env:"LEADERBOARD_MAX_SCORE"`
	RejectNegative bool    `json:"reject_negative" yaml:"reject_negative" env:"LEADERBOARD_REJECT_NEGATIVE"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string            `json:"level" yaml:"level" env:"GAMEGEN_LOG_LEVEL"`
	Format     string            `json:"format" yaml:"format" env:"GAMEGEN_LOG_FORMAT"`
	Output     string            `json:"output" yaml:"output" env:"GAMEGEN_LOG_OUTPUT"`
	File       LogFileConfig     `json:"file,omitempty" yaml:"file,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty" env:"GAMEGEN_LOG_ATTRIBUTES"`
}

// LogFileConfig controls rotation when Output is "file".
type LogFileConfig struct {
	Path       string `json:"path" yaml:"path" env:"GAMEGEN_LOG_FILE"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb" env:"GAMEGEN_LOG_FILE_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups" env:"GAMEGEN_LOG_FILE_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days" env:"GAMEGEN_LOG_FILE_MAX_AGE_DAYS"`
	Compress   bool   `json:"compress" yaml:"compress" env:"GAMEGEN_LOG_FILE_COMPRESS"`
}

// MetricsConfig holds metrics and monitoring configuration
type MetricsConfig struct {
	Enabled       bool   `json:"enabled" yaml:"enabled" env:"GAMEGEN_METRICS_ENABLED"`
	Address       string `json:"address" yaml:"address" env:"GAMEGEN_METRICS_ADDR"`
	Path          string `json:"path" yaml:"path" env:"GAMEGEN_METRICS_PATH"`
	CollectSystem bool   `json:"collect_system" yaml:"collect_system" env:"GAMEGEN_METRICS_COLLECT_SYSTEM"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" yaml:"enable_rate_limit" env:"GAMEGEN_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" yaml:"api_keys,omitempty" env:"GAMEGEN_SECURITY_API_KEYS"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" yaml:"requests_per_minute" env:"GAMEGEN_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size" env:"GAMEGEN_SECURITY_RATE_LIMIT_BURST"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" env:"GAMEGEN_SECURITY_RATE_LIMIT_CLEANUP"`
}

// IntegrationsConfig lists outbound event sinks.
type IntegrationsConfig struct {
	Webhooks []string `json:"webhooks,omitempty" yaml:"webhooks,omitempty" env:"GAMEGEN_WEBHOOKS"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validateConfigPath validates that the config file path is safe
func validateConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(path, "..") {
		return errors.New("config file path cannot contain '..'")
	}

	switch strings.ToLower(filepath.Ext(cleanPath)) {
	case ".json", ".yaml", ".yml":
	default:
		return errors.New("config file must have .json, .yaml or .yml extension")
	}

	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}

	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file. Environment
// variables override file values.
func LoadFromFile(path string) (*Config, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	data, err := os.ReadFile(path) // #nosec G304 - Path validated above
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Profile:     "default",
		Server: ServerConfig{
			Address:           ":8000",
			CORSOrigin:        "*",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      200 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: AdapterAuto,
			Redis:   redis.DefaultConfig(),
			Upstash: upstash.Config{Timeout: 5 * time.Second},
			File: FileConfig{
				Path: "./data/gamegen.json",
			},
		},
		Games: GamesConfig{
			Dir:          "games",
			StaticDir:    "static",
			GeneratedTTL: 24 * time.Hour,
			PublishedTTL: 7 * 24 * time.Hour,
		},
		LLM: llm.DefaultConfig(),
		Leaderboard: LeaderboardConfig{
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: LogFileConfig{
				Path:       "./logs/gamegen.log",
				MaxSizeMB:  100,
				MaxBackups: 5,
				MaxAgeDays: 28,
			},
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			Address:       ":9090",
			Path:          "/metrics",
			CollectSystem: true,
		},
		Tracing: tracing.Config{
			ServiceName: "gamegen",
			SampleRatio: 1,
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
				CleanupInterval:   5 * time.Minute,
			},
			APIKeys: []string{},
		},
	}
}

// Validate validates the configuration and returns detailed error messages
func (c *Config) Validate() error {
	var errs []string

	if c.Environment == "" {
		errs = append(errs, "environment cannot be empty")
	}

	sections := []struct {
		name string
		err  error
	}{
		{"server", c.Server.Validate()},
		{"storage", c.Storage.Validate()},
		{"games", c.Games.Validate()},
		{"leaderboard", c.Leaderboard.Validate()},
		{"logging", c.Logging.Validate()},
		{"metrics", c.Metrics.Validate()},
		{"tracing", validateTracing(c.Tracing)},
		{"security", c.Security.Validate()},
	}
	for _, s := range sections {
		if s.err != nil {
			errs = append(errs, fmt.Sprintf("%s config: %v", s.name, s.err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

const redacted = "[REDACTED]"

// String returns a JSON representation of the config (with secrets redacted)
func (c *Config) String() string {
	cfg := *c

	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = redacted
	}
	if cfg.Storage.Redis.URL != "" {
		cfg.Storage.Redis.URL = redacted
	}
	if cfg.Storage.Upstash.Token != "" {
		cfg.Storage.Upstash.Token = redacted
	}
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = redacted
	}
	if len(cfg.Security.APIKeys) > 0 {
		cfg.Security.APIKeys = []string{redacted}
	}

	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
