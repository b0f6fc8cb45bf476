package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Fallback variable names used by Upstash integrations that are not
// provisioned through Vercel KV.
const (
	upstashURLFallback   = "UPSTASH_REDIS_REST_URL"
	upstashTokenFallback = "UPSTASH_REDIS_REST_TOKEN"
)

// LoadDotEnv reads KEY=VALUE pairs from the given files (".env" when none)
// into the process environment without overriding variables already set.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// loadFromEnv overlays environment variables onto cfg. Unset variables
// leave the existing value untouched.
func loadFromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if cfg.Storage.Upstash.URL == "" {
		cfg.Storage.Upstash.URL = os.Getenv(upstashURLFallback)
	}
	if cfg.Storage.Upstash.Token == "" {
		cfg.Storage.Upstash.Token = os.Getenv(upstashTokenFallback)
	}

	// Serverless deployments only get a writable /tmp.
	if os.Getenv("VERCEL") != "" && os.Getenv("GAMES_DIR") == "" {
		cfg.Games.Dir = "/tmp"
	}
	return nil
}
