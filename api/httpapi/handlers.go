package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"gamegen/core"
	"gamegen/games"
)

// maxBodyBytes bounds request bodies; published pages are the largest.
const maxBodyBytes = 5 << 20

const fallbackIndex = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>AI Game Generator</title></head>
<body><h1>AI Game Generator</h1><p>static/index.html is missing.</p></body></html>`

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", err.Error())
		return false
	}
	return true
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.opts.StaticDir != "" {
		index := filepath.Join(s.opts.StaticDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(fallbackIndex))
}

type generateRequest struct {
	Prompt     string          `json:"prompt"`
	Difficulty core.Difficulty `json:"difficulty"`
	IsTimed    *bool           `json:"is_timed"`
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	timed := true
	if req.IsTimed != nil {
		timed = *req.IsTimed
	}
	res, err := s.deps.Games.Generate(r.Context(), games.Request{
		Prompt:     req.Prompt,
		Difficulty: req.Difficulty,
		Timed:      timed,
	})
	if err != nil {
		s.log.Error("game generation failed", zap.Error(err), zap.String("request_id", RequestID(r.Context())))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, res)
}

type publishRequest struct {
	HTMLContent string `json:"html_content"`
}

func (s *server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.deps.Games.Publish(r.Context(), req.HTMLContent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *server) handleServeGame(w http.ResponseWriter, r *http.Request) {
	id, err := games.ParseFileName(mux.Vars(r)["filename"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	html, err := s.deps.Games.Load(r.Context(), id)
	if err != nil {
		if !errors.Is(err, core.ErrGameNotFound) {
			s.log.Error("game load failed", zap.String("game_id", string(id)), zap.Error(err))
		}
		writeDomainError(w, err)
		return
	}
	// Pages are regenerated under new ids; never let a browser pin an old copy.
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	_, _ = w.Write([]byte(html))
}

type submitScoreRequest struct {
	GameID     core.GameID `json:"game_id"`
	PlayerName string      `json:"player_name"`
	Score      *float64    `json:"score"`
}

func (s *server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "score is required", nil)
		return
	}
	err := s.deps.Leaderboard.RecordScore(r.Context(), req.GameID, req.PlayerName, *req.Score)
	switch {
	case err == nil:
		writeJSON(w, map[string]string{"status": "success"})
	case errors.Is(err, core.ErrInvalidInput), errors.Is(err, core.ErrServiceUnavailable):
		writeDomainError(w, err)
	default:
		writeError(w, http.StatusInternalServerError, "submission_failed", "Score submission failed: "+err.Error(), nil)
	}
}

func (s *server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.deps.Leaderboard.DefaultLimit()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer", nil)
			return
		}
		limit = n
	}
	if limit > s.opts.MaxLeaderboardLimit {
		limit = s.opts.MaxLeaderboardLimit
	}
	game := core.GameID(mux.Vars(r)["game_id"])
	writeJSON(w, s.deps.Leaderboard.FetchTop(r.Context(), game, limit))
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}
	writeJSON(w, s.deps.Stats.Summary(time.Now(), limit))
}

// handleHealth reports a disabled leaderboard as degraded but healthy; only
// an enabled store that cannot be reached fails the check.
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{
		"leaderboard": "ok",
		"generator":   "ok",
	}
	status := map[string]any{"status": "healthy", "checks": checks}
	code := http.StatusOK

	switch {
	case !s.deps.Leaderboard.Available():
		checks["leaderboard"] = "disabled"
		status["status"] = "degraded"
	case s.deps.Store != nil:
		if err := s.deps.Store.Ping(r.Context()); err != nil {
			checks["leaderboard"] = "failed"
			status["status"] = "unhealthy"
			code = http.StatusServiceUnavailable
			s.log.Warn("health check failed", zap.Error(err))
		}
	}
	if s.deps.Games == nil || !s.deps.Games.GeneratorConfigured() {
		checks["generator"] = "disabled"
		if code == http.StatusOK {
			status["status"] = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}
