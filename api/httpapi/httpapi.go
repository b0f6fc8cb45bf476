package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	wsadapter "gamegen/adapters/websocket"
	"gamegen/analytics"
	"gamegen/core"
	"gamegen/games"
	"gamegen/leaderboard"
	"gamegen/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, protects game generation and publishing with
	// Authorization: Bearer or X-API-Key. Score routes stay open because
	// generated pages call them directly.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// MaxLeaderboardLimit caps ?limit on leaderboard reads.
	MaxLeaderboardLimit int
	// StaticDir holds index.html and the /static/ assets.
	StaticDir string
}

// Pinger reports backend reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API exposes. Nil Games, Hub or Stats disable
// their routes.
type Deps struct {
	Leaderboard *leaderboard.Service
	Games       *games.Service
	Hub         *realtime.Hub
	Stats       *analytics.GameStats
	Store       Pinger
	Logger      *zap.Logger
	// Registerer receives the HTTP metrics; nil skips them.
	Registerer prometheus.Registerer
}

type server struct {
	deps Deps
	opts Options
	log  *zap.Logger
}

// NewRouter builds the game generator API.
// Routes:
//   - GET  {prefix}/
//   - GET  {prefix}/static/...
//   - POST {prefix}/generate-game
//   - POST {prefix}/publish-game
//   - GET  {prefix}/games/{filename}
//   - POST {prefix}/submit-score
//   - GET  {prefix}/leaderboard/{game_id}?limit=N
//   - GET  {prefix}/stats
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws?game_id=
func NewRouter(deps Deps, opts Options) (http.Handler, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Leaderboard == nil {
		deps.Leaderboard = leaderboard.NewService(nil)
	}
	if opts.MaxLeaderboardLimit <= 0 {
		opts.MaxLeaderboardLimit = 100
	}
	s := &server{deps: deps, opts: opts, log: deps.Logger}

	root := mux.NewRouter()
	r := root
	if p := strings.TrimRight(opts.PathPrefix, "/"); p != "" {
		r = root.PathPrefix(p).Subrouter()
	}

	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware(s.log))
	if deps.Registerer != nil {
		m, err := newHTTPMetrics(deps.Registerer)
		if err != nil {
			return nil, err
		}
		r.Use(m.middleware)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		r.Use(rateLimitMiddleware(opts.RateLimitRPM, opts.RateLimitBurst))
	}

	protect := func(h http.HandlerFunc) http.Handler { return h }
	if len(opts.APIKeys) > 0 {
		protect = func(h http.HandlerFunc) http.Handler { return withAPIKeyAuth(h, opts.APIKeys) }
	}

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	if opts.StaticDir != "" {
		prefix := strings.TrimRight(opts.PathPrefix, "/") + "/static/"
		r.PathPrefix("/static/").Handler(http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir)))).Methods(http.MethodGet)
	}
	if deps.Games != nil {
		r.Handle("/generate-game", protect(s.handleGenerate)).Methods(http.MethodPost)
		r.Handle("/publish-game", protect(s.handlePublish)).Methods(http.MethodPost)
		r.HandleFunc("/games/{filename}", s.handleServeGame).Methods(http.MethodGet)
	}
	r.HandleFunc("/submit-score", s.handleSubmitScore).Methods(http.MethodPost)
	r.HandleFunc("/leaderboard/{game_id}", s.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if deps.Stats != nil {
		r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	}
	if deps.Hub != nil {
		r.Handle("/ws", wsadapter.Handler(deps.Hub))
	}

	root.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	root.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	var handler http.Handler = root
	if opts.AllowCORSOrigin != "" {
		handler = handlers.CORS(
			handlers.AllowedOrigins([]string{opts.AllowCORSOrigin}),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-API-Key"}),
		)(handler)
	}
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.log)),
		handlers.PrintRecoveryStack(false),
	)(handler)
	return otelhttp.NewHandler(handler, "gamegen.http"), nil
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode_failed", "response could not be encoded", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(append(body, '\n'))
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// writeDomainError maps sentinel errors to a status and envelope code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
	case errors.Is(err, core.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "empty_prompt", "Prompt cannot be empty", nil)
	case errors.Is(err, core.ErrInvalidHTML):
		writeError(w, http.StatusBadRequest, "invalid_html", "Invalid HTML content", nil)
	case errors.Is(err, core.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game_not_found", "Game not found or expired. Please generate a new one.", nil)
	case errors.Is(err, core.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "leaderboard_unavailable", "Leaderboard service unavailable (Missing Credentials)", nil)
	case errors.Is(err, core.ErrGeneratorUnavailable):
		writeError(w, http.StatusInternalServerError, "generator_unavailable", "Game generator unavailable (Missing API key)", nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}
