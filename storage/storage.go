package storage

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gamegen/adapters/jsonfile"
	"gamegen/adapters/memory"
	"gamegen/adapters/redis"
	"gamegen/adapters/upstash"
	"gamegen/config"
	"gamegen/core"
	"gamegen/games"
	"gamegen/scorestore"
)

// Backend is what every storage adapter provides: a sorted-set store for
// leaderboards and a string cache for game pages.
type Backend interface {
	scorestore.Backend
	games.KV
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*jsonfile.Store)(nil)
	_ Backend = (*redis.Store)(nil)
	_ Backend = (*upstash.Client)(nil)
)

// Storage is the opened backend. A Storage without a backend is valid: the
// leaderboard then runs disabled and game pages live on disk only.
type Storage struct {
	backend Backend
	name    string
}

// Open selects and connects the configured adapter. Missing upstash
// credentials or an unparsable redis URL disable the leaderboard, and an
// unreachable redis is kept open in degraded mode; neither fails startup.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	adapter := cfg.Adapter
	if adapter == config.AdapterAuto {
		switch {
		case cfg.Upstash.Configured():
			adapter = config.AdapterUpstash
		case cfg.Redis.URL != "":
			adapter = config.AdapterRedis
		default:
			logger.Warn("leaderboard disabled: no storage credentials configured")
			return &Storage{name: "disabled"}, nil
		}
	}

	var (
		b   Backend
		err error
	)
	switch adapter {
	case config.AdapterMemory:
		b = memory.New()
	case config.AdapterFile:
		b, err = jsonfile.New(cfg.File.Path)
	case config.AdapterRedis:
		b, err = openRedis(cfg.Redis, logger)
		if errors.Is(err, core.ErrConfigurationMissing) {
			logger.Warn("leaderboard disabled: invalid redis configuration", zap.Error(err))
			return &Storage{name: "disabled"}, nil
		}
	case config.AdapterUpstash:
		var c *upstash.Client
		c, err = upstash.New(cfg.Upstash)
		if errors.Is(err, core.ErrConfigurationMissing) {
			logger.Warn("leaderboard disabled: missing upstash credentials")
			return &Storage{name: "disabled"}, nil
		}
		b = c
	default:
		return nil, fmt.Errorf("unknown storage adapter %q", adapter)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", adapter, err)
	}

	logger.Info("storage opened", zap.String("adapter", adapter))
	return &Storage{backend: b, name: adapter}, nil
}

// openRedis connects to redis. When the startup ping fails the client is
// kept anyway: go-redis reconnects per command, reads come back empty and
// writes report core.ErrStoreUnavailable until the server is reachable.
func openRedis(cfg redis.Config, logger *zap.Logger) (*redis.Store, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigurationMissing, err)
	}
	st, err := redis.New(cfg)
	if err == nil {
		return st, nil
	}
	logger.Warn("redis unreachable at startup; leaderboard degraded until it recovers",
		zap.String("addr", opts.Addr),
		zap.Error(err))
	return redis.NewWithClient(goredis.NewClient(opts)), nil
}

// New wraps an already opened backend.
func New(name string, b Backend) *Storage { return &Storage{backend: b, name: name} }

func (s *Storage) Name() string { return s.name }

// Backend returns the raw adapter, or nil when disabled.
func (s *Storage) Backend() Backend { return s.backend }

func (s *Storage) Enabled() bool { return s.backend != nil }

// Scores returns the leaderboard adapter, disabled when no backend is open.
func (s *Storage) Scores(opts ...scorestore.Option) *scorestore.Adapter {
	if s.backend == nil {
		return scorestore.Disabled(opts...)
	}
	return scorestore.New(s.backend, opts...)
}

// KV returns the page cache, or nil when no backend is open.
func (s *Storage) KV() games.KV {
	if s.backend == nil {
		return nil
	}
	return s.backend
}

// Ping reports core.ErrStoreDisabled when no backend is open.
func (s *Storage) Ping(ctx context.Context) error {
	if s.backend == nil {
		return core.ErrStoreDisabled
	}
	if err := s.backend.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Storage) Close() error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
