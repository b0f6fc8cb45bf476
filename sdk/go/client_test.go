package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"gamegen/core"
)

func TestClient_GenerateSubmitLeaderboardHealth(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, err := NewClient(srv.URL+"/api", WithAPIKey("k1"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()

	res, err := client.GenerateGame(ctx, GenerateRequest{Prompt: "snake", Difficulty: "hard"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.GameID != "abc123" || res.GameURL != "/games/game_abc123.html" {
		t.Fatalf("unexpected result: %+v", res)
	}

	page, err := client.FetchGame(ctx, res.GameID)
	if err != nil || !strings.Contains(page, "abc123") {
		t.Fatalf("fetch game: %q err=%v", page, err)
	}

	if err := client.SubmitScore(ctx, "abc123", "alice", 120); err != nil {
		t.Fatalf("submit score: %v", err)
	}

	entries, err := client.Leaderboard(ctx, "abc123", 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "alice" || entries[0].Score != 120 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	health, err := client.Health(ctx)
	if err != nil || health.Status != "healthy" {
		t.Fatalf("health: %+v err=%v", health, err)
	}
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, _ := NewClient(srv.URL + "/api")
	_, err := client.FetchGame(context.Background(), "missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestClient_RejectsEmptyInput(t *testing.T) {
	client, _ := NewClient("http://localhost:8000")
	ctx := context.Background()

	if _, err := client.GenerateGame(ctx, GenerateRequest{Prompt: "  "}); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if err := client.SubmitScore(ctx, "", "alice", 1); !errors.Is(err, ErrEmptyGameID) {
		t.Fatalf("expected ErrEmptyGameID, got %v", err)
	}
	if _, err := client.Leaderboard(ctx, "", 0); !errors.Is(err, ErrEmptyGameID) {
		t.Fatalf("expected ErrEmptyGameID, got %v", err)
	}
}

func TestClient_SubscribeEvents(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	client, err := NewClient(srv.URL + "/api")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	events, err := client.SubscribeEvents(ctx, "abc123")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	select {
	case evt := <-events:
		if evt.Type != core.EventScoreSubmitted || evt.GameID != "abc123" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestDeriveWSURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8000":      "ws://localhost:8000/ws",
		"https://example.com/api/":   "wss://example.com/api/ws",
		"https://example.com/prefix": "wss://example.com/prefix/ws",
	}
	for in, want := range cases {
		if got := deriveWSURL(strings.TrimSuffix(in, "/")); got != want {
			t.Fatalf("deriveWSURL(%q) = %q, want %q", in, got, want)
		}
	}
}

// test server implementing the minimal API surface expected by the SDK.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	var scores []core.Entry

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","checks":{"storage":"ok"}}`))
	})
	mux.HandleFunc("POST /api/generate-game", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "k1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"code": "unauthorized", "message": "missing api key"})
			return
		}
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "invalid_input", "message": "Prompt cannot be empty"})
			return
		}
		writeJSON(w, http.StatusOK, GameResult{GameURL: "/games/game_abc123.html", GameID: "abc123"})
	})
	mux.HandleFunc("GET /api/games/{file}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("file") != "game_abc123.html" {
			writeJSON(w, http.StatusNotFound, map[string]string{"code": "not_found", "message": "Game not found or expired. Please generate a new one."})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><script>window.GAME_ID = "abc123";</script></html>`))
	})
	mux.HandleFunc("POST /api/submit-score", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameID string  `json:"game_id"`
			Player string  `json:"player_name"`
			Score  float64 `json:"score"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		scores = append(scores, core.Entry{Name: body.Player, Score: body.Score})
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	})
	mux.HandleFunc("GET /api/leaderboard/{game}", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("expected limit=5, got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, scores)
	})

	upgrader := websocket.Upgrader{}
	mux.HandleFunc("/api/ws", func(w http.ResponseWriter, r *http.Request) {
		game := core.GameID(r.URL.Query().Get("game_id"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(core.NewScoreSubmitted(game, "alice", 10))
	})

	return httptest.NewServer(mux)
}
