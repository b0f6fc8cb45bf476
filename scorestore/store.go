package scorestore

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"gamegen/core"
)

// KeyPrefix namespaces leaderboard sorted sets in the shared store.
const KeyPrefix = "leaderboard:"

// Key returns the sorted-set key for a game.
func Key(game core.GameID) string { return KeyPrefix + string(game) }

// Backend is the sorted-set primitive the adapter needs. ZRevRangeWithScores
// returns the backend's native result shape, start and stop being inclusive
// ranks as in Redis.
type Backend interface {
	ZAdd(ctx context.Context, key, member string, score float64) error
	ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) (any, error)
}

// Observer receives one call per decoded range response.
type Observer interface {
	ObserveDecode(shape Shape, err error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for absorbed read failures.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithObserver reports the shape of every decoded response.
func WithObserver(o Observer) Option {
	return func(a *Adapter) { a.observer = o }
}

// Adapter submits scores and reads normalized top-N lists. A nil backend
// yields a disabled adapter: writes report core.ErrStoreDisabled and reads
// return nothing.
type Adapter struct {
	backend  Backend
	logger   *zap.Logger
	observer Observer
}

// New creates an adapter over backend.
func New(backend Backend, opts ...Option) *Adapter {
	a := &Adapter{backend: backend, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Disabled creates an adapter with no backend.
func Disabled(opts ...Option) *Adapter { return New(nil, opts...) }

// Enabled reports whether a backend is configured.
func (a *Adapter) Enabled() bool { return a != nil && a.backend != nil }

// Submit upserts name's score in the game's sorted set.
func (a *Adapter) Submit(ctx context.Context, game core.GameID, name string, score float64) error {
	if !a.Enabled() {
		return core.ErrStoreDisabled
	}
	if err := a.backend.ZAdd(ctx, Key(game), name, score); err != nil {
		return fmt.Errorf("%w: zadd %s: %v", core.ErrStoreUnavailable, Key(game), err)
	}
	return nil
}

// Top returns at most limit entries for game, highest score first. It never
// fails: a disabled store, a missing set, a failed call or an unrecognized
// response all yield an empty slice.
func (a *Adapter) Top(ctx context.Context, game core.GameID, limit int) []core.Entry {
	if limit <= 0 || !a.Enabled() {
		return []core.Entry{}
	}
	key := Key(game)
	raw, err := a.backend.ZRevRangeWithScores(ctx, key, 0, int64(limit-1))
	if err != nil {
		a.logger.Warn("leaderboard range failed", zap.String("key", key), zap.Error(err))
		return []core.Entry{}
	}
	entries, shape, err := DecodeShape(raw)
	if a.observer != nil {
		a.observer.ObserveDecode(shape, err)
	}
	if err != nil {
		a.logger.Error("leaderboard response not decodable",
			zap.String("key", key),
			zap.Stringer("shape", shape),
			zap.String("raw_type", fmt.Sprintf("%T", raw)),
			zap.Error(err))
		return []core.Entry{}
	}
	entries = a.dropNonFinite(key, entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// dropNonFinite removes ±Inf and NaN scores written by other store clients;
// they cannot be encoded as JSON.
func (a *Adapter) dropNonFinite(key string, entries []core.Entry) []core.Entry {
	out := entries[:0]
	for _, e := range entries {
		if math.IsInf(e.Score, 0) || math.IsNaN(e.Score) {
			a.logger.Warn("leaderboard entry with non-finite score skipped",
				zap.String("key", key),
				zap.String("member", e.Name))
			continue
		}
		out = append(out, e)
	}
	return out
}

// IsDisabled reports whether err came from a disabled adapter.
func IsDisabled(err error) bool { return errors.Is(err, core.ErrStoreDisabled) }
