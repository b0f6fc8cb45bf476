package games

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gamegen/core"
)

// KV caches game pages with an expiry. Serverless hosts lose the local
// games directory between invocations; the KV copy survives.
type KV interface {
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
}

// Generator turns a prompt into page text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Publisher receives game lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, ev core.Event)
}

// KVKeyPrefix namespaces cached pages.
const KVKeyPrefix = "game_html:"

func kvKey(id core.GameID) string { return KVKeyPrefix + string(id) }

const (
	DefaultGeneratedTTL = 24 * time.Hour
	DefaultPublishedTTL = 7 * 24 * time.Hour
)

// Request is a generation request.
type Request struct {
	Prompt     string
	Difficulty core.Difficulty
	Timed      bool
}

// Result identifies a stored game page.
type Result struct {
	GameID core.GameID `json:"game_id"`
	URL    string      `json:"game_url"`
}

// Option configures a Service.
type Option func(*Service)

func WithKV(kv KV) Option { return func(s *Service) { s.kv = kv } }
func WithPublisher(p Publisher) Option { return func(s *Service) { s.events = p } }
func WithURLPrefix(prefix string) Option { return func(s *Service) { s.urlPrefix = strings.TrimRight(prefix, "/") } }

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTTLs overrides the KV expiry of generated and published pages.
func WithTTLs(generated, published time.Duration) Option {
	return func(s *Service) {
		if generated > 0 {
			s.generatedTTL = generated
		}
		if published > 0 {
			s.publishedTTL = published
		}
	}
}

// WithIDFunc overrides game id generation.
func WithIDFunc(fn func() core.GameID) Option { return func(s *Service) { s.newID = fn } }

// Service generates, publishes and loads game pages.
type Service struct {
	gen          Generator
	files        *FileStore
	kv           KV
	events       Publisher
	logger       *zap.Logger
	urlPrefix    string
	generatedTTL time.Duration
	publishedTTL time.Duration
	newID        func() core.GameID
	now          func() time.Time
}

// NewService builds the service. gen may be nil, in which case Generate
// reports core.ErrGeneratorUnavailable while publishing and serving still
// work.
func NewService(gen Generator, files *FileStore, opts ...Option) *Service {
	s := &Service{
		gen:          gen,
		files:        files,
		logger:       zap.NewNop(),
		urlPrefix:    "/games",
		generatedTTL: DefaultGeneratedTTL,
		publishedTTL: DefaultPublishedTTL,
		newID:        func() core.GameID { return core.GameID(strings.ReplaceAll(uuid.NewString(), "-", "")) },
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GeneratorConfigured reports whether Generate can succeed.
func (s *Service) GeneratorConfigured() bool { return s.gen != nil }

// Generate asks the model for a page, stamps it with a fresh id and stores it.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, core.ErrEmptyPrompt
	}
	if s.gen == nil {
		return Result{}, core.ErrGeneratorUnavailable
	}
	if req.Difficulty == "" {
		req.Difficulty = core.DifficultyMedium
	}
	opts := Options{Difficulty: req.Difficulty, Timed: req.Timed}

	prompt, err := BuildPrompt(req.Prompt, opts)
	if err != nil {
		return Result{}, err
	}
	start := s.now()
	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generate game: %w", err)
	}

	id := s.newID()
	html := InjectGameID(CleanHTML(raw), id)
	html, err = InjectMetadata(html, Metadata{
		Prompt:      req.Prompt,
		Difficulty:  req.Difficulty,
		IsTimed:     req.Timed,
		GeneratedAt: s.now().UTC(),
	})
	if err != nil {
		return Result{}, err
	}
	if err := s.store(ctx, id, html, s.generatedTTL); err != nil {
		return Result{}, err
	}

	s.logger.Info("game generated",
		zap.String("game_id", string(id)),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Bool("timed", req.Timed),
		zap.Int("bytes", len(html)),
		zap.Duration("took", s.now().Sub(start)))
	if s.events != nil {
		s.events.Publish(ctx, core.NewGameGenerated(id, req.Difficulty, req.Timed))
	}
	return s.result(id), nil
}

// Publish stores client-supplied HTML under a new id. The page keeps
// whatever GAME_ID it embeds, so a republished game shares its original
// leaderboard.
func (s *Service) Publish(ctx context.Context, html string) (Result, error) {
	if err := ValidatePublished(html); err != nil {
		return Result{}, err
	}
	id := s.newID()
	if err := s.store(ctx, id, html, s.publishedTTL); err != nil {
		return Result{}, err
	}
	s.logger.Info("game published", zap.String("game_id", string(id)), zap.Int("bytes", len(html)))
	if s.events != nil {
		s.events.Publish(ctx, core.NewGamePublished(id))
	}
	return s.result(id), nil
}

// Load returns a page, preferring the KV copy over the local file.
func (s *Service) Load(ctx context.Context, id core.GameID) (string, error) {
	if s.kv != nil {
		html, err := s.kv.GetString(ctx, kvKey(id))
		switch {
		case err == nil:
			return html, nil
		case !errors.Is(err, core.ErrKeyNotFound):
			s.logger.Warn("game cache read failed", zap.String("game_id", string(id)), zap.Error(err))
		}
	}
	if s.files == nil {
		return "", core.ErrGameNotFound
	}
	return s.files.Load(id)
}

// store writes the file copy (required) and the KV copy (best effort).
func (s *Service) store(ctx context.Context, id core.GameID, html string, ttl time.Duration) error {
	if s.files != nil {
		if err := s.files.Save(id, html); err != nil {
			return err
		}
	}
	if s.kv != nil {
		if err := s.kv.SetString(ctx, kvKey(id), html, ttl); err != nil {
			s.logger.Warn("failed to cache game", zap.String("game_id", string(id)), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) result(id core.GameID) Result {
	return Result{GameID: id, URL: s.urlPrefix + "/" + FileName(id)}
}
