package upstash

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamegen/core"
)

const testToken = "secret-token"

// newRESTServer fronts a miniredis instance with the Upstash REST protocol.
func newRESTServer(t *testing.T) (*httptest.Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}
		var args []any
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		res, err := rdb.Do(r.Context(), args...).Result()
		if errors.Is(err, redis.Nil) {
			_ = json.NewEncoder(w).Encode(map[string]any{"result": nil})
			return
		}
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": res})
	}))
	t.Cleanup(srv.Close)
	return srv, mr
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(Config{URL: "https://example.upstash.io"})
	assert.ErrorIs(t, err, core.ErrConfigurationMissing)
	_, err = New(Config{Token: "t"})
	assert.ErrorIs(t, err, core.ErrConfigurationMissing)
}

func TestClient_SortedSetFlatShape(t *testing.T) {
	srv, _ := newRESTServer(t)
	c, err := New(Config{URL: srv.URL + "/", Token: testToken})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.ZAdd(ctx, "leaderboard:g1", "Alice", 300))
	require.NoError(t, c.ZAdd(ctx, "leaderboard:g1", "Bob", 150.5))

	raw, err := c.ZRevRangeWithScores(ctx, "leaderboard:g1", 0, 9)
	require.NoError(t, err)
	assert.Equal(t, []any{"Alice", "300", "Bob", "150.5"}, raw)
}

func TestClient_EmptyRange(t *testing.T) {
	srv, _ := newRESTServer(t)
	c, _ := New(Config{URL: srv.URL, Token: testToken})

	raw, err := c.ZRevRangeWithScores(context.Background(), "leaderboard:none", 0, 9)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestClient_Strings(t *testing.T) {
	srv, mr := newRESTServer(t)
	c, _ := New(Config{URL: srv.URL, Token: testToken})
	ctx := context.Background()

	require.NoError(t, c.SetString(ctx, "game_html:abc", "<html>", 24*time.Hour))
	assert.Equal(t, 24*time.Hour, mr.TTL("game_html:abc"))

	v, err := c.GetString(ctx, "game_html:abc")
	require.NoError(t, err)
	assert.Equal(t, "<html>", v)

	_, err = c.GetString(ctx, "game_html:missing")
	assert.ErrorIs(t, err, core.ErrKeyNotFound)
}

func TestClient_Unauthorized(t *testing.T) {
	srv, _ := newRESTServer(t)
	c, _ := New(Config{URL: srv.URL, Token: "wrong"})

	err := c.ZAdd(context.Background(), "leaderboard:g1", "Alice", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	c, _ := New(Config{URL: srv.URL, Token: testToken})

	_, err := c.ZRevRangeWithScores(context.Background(), "k", 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
