package config

import (
	"fmt"
	"time"
)

// LoadProfile returns the defaults for a named deployment profile with
// environment overrides applied.
func LoadProfile(name string) (*Config, error) {
	cfg := DefaultConfig()
	switch Environment(name) {
	case EnvDevelopment:
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
		cfg.Storage.Adapter = AdapterAuto
	case EnvTesting:
		cfg.Storage.Adapter = AdapterMemory
		cfg.Logging.Level = "warn"
		cfg.Games.Dir = "testdata/games"
	case EnvStaging:
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
	case EnvProduction:
		cfg.Metrics.Enabled = true
		cfg.Security.EnableRateLimit = true
		cfg.Security.RateLimit.RequestsPerMinute = 30
		cfg.Server.ShutdownTimeout = 60 * time.Second
		cfg.Leaderboard.RejectNegative = true
	default:
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	cfg.Environment = Environment(name)
	cfg.Profile = name

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
