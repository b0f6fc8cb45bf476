package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"gamegen/analytics"
	"gamegen/api/httpapi"
	"gamegen/config"
	"gamegen/core"
	"gamegen/engine"
	"gamegen/games"
	"gamegen/integrations/webhook"
	"gamegen/leaderboard"
	"gamegen/llm"
	"gamegen/logging"
	"gamegen/realtime"
	"gamegen/scorestore"
	"gamegen/storage"
	"gamegen/tracing"
)

// App aggregates the assembled server components.
type App struct {
	Config        *config.Config
	Logger        *zap.Logger
	Storage       *storage.Storage
	Bus           *engine.EventBus
	Hub           *realtime.Hub
	Leaderboard   *leaderboard.Service
	Games         *games.Service
	Registry      *prometheus.Registry
	Subscriptions Subscriptions
	Tracing       TracingShutdown
	Handler       http.Handler
	Server        *http.Server
}

// Subscriptions marks the event bus consumers as attached.
type Subscriptions struct {
	Count int
}

// TracingShutdown flushes pending spans.
type TracingShutdown func(context.Context) error

// provideConfig reads .env, then a config file named by GAMEGEN_CONFIG or
// a profile named by GAMEGEN_PROFILE, falling back to defaults plus env.
func provideConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if path := os.Getenv("GAMEGEN_CONFIG"); path != "" {
		return config.LoadFromFile(path)
	}
	if profile := os.Getenv("GAMEGEN_PROFILE"); profile != "" {
		return config.LoadProfile(profile)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	logger = logger.With(zap.String("environment", string(cfg.Environment)))
	zap.ReplaceGlobals(logger)
	return logger, func() { _ = logger.Sync() }, nil
}

func provideTracing(ctx context.Context, cfg *config.Config) (TracingShutdown, error) {
	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	return TracingShutdown(shutdown), nil
}

func provideRegistry(cfg *config.Config) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if cfg.Metrics.CollectSystem {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return reg
}

func provideCollector(reg *prometheus.Registry) (*analytics.Collector, error) {
	return analytics.NewCollector(reg)
}

func provideStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.Storage, func(), error) {
	st, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logger.Warn("storage close failed", zap.Error(err))
		}
	}, nil
}

func provideBus(logger *zap.Logger) (*engine.EventBus, func()) {
	bus := engine.NewEventBus(engine.DispatchAsync, engine.WithBusLogger(logger))
	return bus, bus.Close
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStats() *analytics.GameStats {
	return analytics.NewGameStats()
}

// provideSubscriptions attaches the realtime hub, analytics hooks and
// webhook sink to the bus.
func provideSubscriptions(cfg *config.Config, logger *zap.Logger, bus *engine.EventBus, hub *realtime.Hub, stats *analytics.GameStats, collector *analytics.Collector) (Subscriptions, func()) {
	unsubs := []func(){
		bus.SubscribeAll(hub.Broadcast),
		analytics.Attach(bus, stats, collector),
	}
	if len(cfg.Integrations.Webhooks) > 0 {
		sink := webhook.New(cfg.Integrations.Webhooks, webhook.WithLogger(logger.Named("webhook")))
		unsubs = append(unsubs, bus.SubscribeAll(sink.OnEvent))
	}
	return Subscriptions{Count: len(unsubs)}, func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func provideScoreStore(st *storage.Storage, logger *zap.Logger, collector *analytics.Collector) *scorestore.Adapter {
	return st.Scores(scorestore.WithLogger(logger.Named("scorestore")), scorestore.WithObserver(collector))
}

func provideLeaderboard(cfg *config.Config, logger *zap.Logger, scores *scorestore.Adapter, bus *engine.EventBus) *leaderboard.Service {
	var rules []core.ScoreRule
	if cfg.Leaderboard.MaxScore > 0 {
		rules = append(rules, core.MaxScoreRule{Max: cfg.Leaderboard.MaxScore})
	}
	if cfg.Leaderboard.RejectNegative {
		rules = append(rules, core.NonNegativeRule{})
	}
	return leaderboard.NewService(scores,
		leaderboard.WithPublisher(bus),
		leaderboard.WithRules(rules...),
		leaderboard.WithDefaultLimit(cfg.Leaderboard.DefaultLimit),
		leaderboard.WithLogger(logger.Named("leaderboard")),
	)
}

// provideGenerator returns a nil Generator when no API key is configured;
// the server still serves, publishes and scores games.
func provideGenerator(cfg *config.Config, logger *zap.Logger) (games.Generator, error) {
	client, err := llm.New(cfg.LLM, logger.Named("llm"))
	if errors.Is(err, core.ErrGeneratorUnavailable) {
		logger.Warn("game generation disabled: GEMINI_API_KEY is not set")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideGames(cfg *config.Config, logger *zap.Logger, gen games.Generator, st *storage.Storage, bus *engine.EventBus) (*games.Service, error) {
	files, err := games.NewFileStore(cfg.Games.Dir)
	if err != nil {
		return nil, err
	}
	opts := []games.Option{
		games.WithPublisher(bus),
		games.WithLogger(logger.Named("games")),
		games.WithTTLs(cfg.Games.GeneratedTTL, cfg.Games.PublishedTTL),
		games.WithURLPrefix(cfg.Server.PathPrefix + "/games"),
	}
	if kv := st.KV(); kv != nil {
		opts = append(opts, games.WithKV(kv))
	}
	return games.NewService(gen, files, opts...), nil
}

func provideHandler(cfg *config.Config, logger *zap.Logger, lb *leaderboard.Service, gs *games.Service, hub *realtime.Hub, stats *analytics.GameStats, st *storage.Storage, reg *prometheus.Registry) (http.Handler, error) {
	deps := httpapi.Deps{
		Leaderboard: lb,
		Games:       gs,
		Hub:         hub,
		Stats:       stats,
		Logger:      logger.Named("http"),
		Registerer:  reg,
	}
	if st.Enabled() {
		deps.Store = st
	}
	handler, err := httpapi.NewRouter(deps, httpapi.Options{
		PathPrefix:          cfg.Server.PathPrefix,
		AllowCORSOrigin:     cfg.Server.CORSOrigin,
		APIKeys:             cfg.Security.APIKeys,
		RateLimitEnabled:    cfg.Security.EnableRateLimit,
		RateLimitRPM:        cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:      cfg.Security.RateLimit.BurstSize,
		MaxLeaderboardLimit: cfg.Leaderboard.MaxLimit,
		StaticDir:           cfg.Games.StaticDir,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	return handler, nil
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
