package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gamegen/core"
)

// DefaultLimit is how many entries FetchTop returns when asked for none in
// particular.
const DefaultLimit = 10

// Store is the score store the service delegates to.
type Store interface {
	Enabled() bool
	Submit(ctx context.Context, game core.GameID, name string, score float64) error
	Top(ctx context.Context, game core.GameID, limit int) []core.Entry
}

// Publisher receives an event for every recorded score.
type Publisher interface {
	Publish(ctx context.Context, ev core.Event)
}

// Option configures the Service.
type Option func(*Service)

// WithPublisher sets the event sink for recorded scores.
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }

// WithRules adds score rules checked before any write.
func WithRules(rules ...core.ScoreRule) Option {
	return func(s *Service) { s.rules = append(s.rules, rules...) }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultLimit overrides DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultLimit = n
		}
	}
}

// Service records scores and reads per-game leaderboards.
type Service struct {
	store        Store
	events       Publisher
	rules        []core.ScoreRule
	logger       *zap.Logger
	defaultLimit int
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		rules:        []core.ScoreRule{core.FiniteRule{}},
		logger:       zap.NewNop(),
		defaultLimit: DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether scores can be recorded.
func (s *Service) Available() bool { return s.store != nil && s.store.Enabled() }

func (s *Service) DefaultLimit() int { return s.defaultLimit }

// RecordScore validates and upserts a player's score. It returns
// core.ErrInvalidInput for bad input, core.ErrServiceUnavailable when no
// store is configured and a core.ErrStoreUnavailable-wrapped error when the
// write fails.
func (s *Service) RecordScore(ctx context.Context, game core.GameID, player string, score float64) error {
	game, err := core.NormalizeGameID(game)
	if err != nil {
		return err
	}
	player, err = core.NormalizePlayerName(player)
	if err != nil {
		return err
	}
	for _, r := range s.rules {
		if err := r.Check(game, score); err != nil {
			return err
		}
	}
	if s.store == nil {
		return core.ErrServiceUnavailable
	}

	if err := s.store.Submit(ctx, game, player, score); err != nil {
		if errors.Is(err, core.ErrStoreDisabled) {
			return fmt.Errorf("%w: %v", core.ErrServiceUnavailable, err)
		}
		s.logger.Error("score submission failed",
			zap.String("game_id", string(game)),
			zap.String("player", player),
			zap.Error(err))
		return fmt.Errorf("record score: %w", err)
	}

	s.logger.Debug("score recorded",
		zap.String("game_id", string(game)),
		zap.String("player", player),
		zap.Float64("score", score))
	if s.events != nil {
		s.events.Publish(ctx, core.NewScoreSubmitted(game, player, score))
	}
	return nil
}

// FetchTop returns up to limit entries, best first; a limit below one yields
// nothing. It never fails: an unavailable leaderboard reads as an empty one.
func (s *Service) FetchTop(ctx context.Context, game core.GameID, limit int) []core.Entry {
	if s.store == nil {
		return []core.Entry{}
	}
	return s.store.Top(ctx, game, limit)
}

// FetchDefault is FetchTop with the configured default limit.
func (s *Service) FetchDefault(ctx context.Context, game core.GameID) []core.Entry {
	return s.FetchTop(ctx, game, s.defaultLimit)
}
