package kit

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	mem "gamegen/adapters/memory"
	"gamegen/analytics"
	"gamegen/engine"
	"gamegen/games"
	"gamegen/leaderboard"
	"gamegen/realtime"
	"gamegen/scorestore"
)

// Backend stores leaderboards and caches pages.
type Backend interface {
	scorestore.Backend
	games.KV
}

// Option configures the Kit builder.
type Option func(*config)

type config struct {
	backend   Backend
	generator games.Generator
	gamesDir  string
	mode      engine.DispatchMode
	hub       *realtime.Hub
	logger    *zap.Logger
}

// WithBackend sets the persistence adapter.
func WithBackend(b Backend) Option { return func(c *config) { c.backend = b } }

// WithGenerator sets the page generator. Without one, Generate reports
// core.ErrGeneratorUnavailable.
func WithGenerator(g games.Generator) Option { return func(c *config) { c.generator = g } }

// WithGamesDir sets where pages are written.
func WithGamesDir(dir string) Option { return func(c *config) { c.gamesDir = dir } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithLogger sets the logger handed to every component.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Kit is an embeddable game generator: page generation, per-game
// leaderboards and the event plumbing between them.
type Kit struct {
	Bus         *engine.EventBus
	Hub         *realtime.Hub
	Stats       *analytics.GameStats
	Leaderboard *leaderboard.Service
	Games       *games.Service
	Backend     Backend

	unsubs []func()
}

// New builds a configured Kit. If not provided, defaults are used:
//   - backend: in-memory
//   - games dir: $TMPDIR/gamegen
//   - dispatch: async
//   - hub: a fresh one
func New(opts ...Option) (*Kit, error) {
	cfg := &config{
		mode:     engine.DispatchAsync,
		gamesDir: filepath.Join(os.TempDir(), "gamegen"),
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.backend == nil {
		cfg.backend = mem.New()
	}
	if cfg.hub == nil {
		cfg.hub = realtime.NewHub()
	}

	files, err := games.NewFileStore(cfg.gamesDir)
	if err != nil {
		return nil, err
	}

	bus := engine.NewEventBus(cfg.mode, engine.WithBusLogger(cfg.logger.Named("bus")))
	stats := analytics.NewGameStats()
	k := &Kit{
		Bus:     bus,
		Hub:     cfg.hub,
		Stats:   stats,
		Backend: cfg.backend,
		Leaderboard: leaderboard.NewService(
			scorestore.New(cfg.backend, scorestore.WithLogger(cfg.logger.Named("scorestore"))),
			leaderboard.WithPublisher(bus),
			leaderboard.WithLogger(cfg.logger.Named("leaderboard")),
		),
		Games: games.NewService(cfg.generator, files,
			games.WithKV(cfg.backend),
			games.WithPublisher(bus),
			games.WithLogger(cfg.logger.Named("games")),
		),
	}
	k.unsubs = []func(){
		bus.SubscribeAll(cfg.hub.Broadcast),
		analytics.Attach(bus, stats),
	}
	return k, nil
}

// Close drains the bus and detaches the subscribers.
func (k *Kit) Close() error {
	k.Bus.Close()
	for _, u := range k.unsubs {
		u()
	}
	if c, ok := k.Backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
