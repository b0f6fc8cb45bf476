package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	mem "gamegen/adapters/memory"
	"gamegen/analytics"
	"gamegen/core"
	"gamegen/engine"
	"gamegen/games"
	"gamegen/leaderboard"
	"gamegen/scorestore"
)

type fakeGenerator struct{ err error }

func (g fakeGenerator) Generate(context.Context, string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "```html\n<!DOCTYPE html><html><body><script>const GAME_ID = \"[[GAME_ID]]\";</script></body></html>\n```", nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fixture struct {
	store *mem.Store
	stats *analytics.GameStats
	deps  Deps
}

func newFixture(t *testing.T, gen games.Generator) *fixture {
	t.Helper()
	store := mem.New()
	stats := analytics.NewGameStats()
	bus := engine.NewEventBus(engine.DispatchSync)
	t.Cleanup(bus.Close)
	analytics.Attach(bus, stats)

	files, err := games.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	return &fixture{
		store: store,
		stats: stats,
		deps: Deps{
			Leaderboard: leaderboard.NewService(scorestore.New(store), leaderboard.WithPublisher(bus)),
			Games:       games.NewService(gen, files, games.WithKV(store), games.WithPublisher(bus)),
			Stats:       stats,
			Store:       store,
		},
	}
}

func (f *fixture) handler(t *testing.T, opts Options) http.Handler {
	t.Helper()
	h, err := NewRouter(f.deps, opts)
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return h
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body not JSON: %q", rec.Body.String())
	}
	return e
}

func TestSubmitAndReadLeaderboard(t *testing.T) {
	f := newFixture(t, fakeGenerator{})
	h := f.handler(t, Options{})

	for _, body := range []string{
		`{"game_id":"g1","player_name":"Zoe","score":500}`,
		`{"game_id":"g1","player_name":"Max","score":800}`,
		`{"game_id":"g1","player_name":"Zoe","score":650}`,
	} {
		rec := do(h, http.MethodPost, "/submit-score", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if strings.TrimSpace(rec.Body.String()) != `{"status":"success"}` {
			t.Fatalf("unexpected body %q", rec.Body.String())
		}
	}

	rec := do(h, http.MethodGet, "/leaderboard/g1", "")
	var got []core.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []core.Entry{{Name: "Max", Score: 800}, {Name: "Zoe", Score: 650}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}

	rec = do(h, http.MethodGet, "/leaderboard/g1?limit=1", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 1 || got[0].Name != "Max" {
		t.Fatalf("limit not applied: %v", got)
	}

	rec = do(h, http.MethodGet, "/leaderboard/other", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty array for unknown game, got %q", rec.Body.String())
	}
}

func TestLeaderboardLimitValidation(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler(t, Options{MaxLeaderboardLimit: 2})
	for _, p := range []string{"a", "b", "c"} {
		_ = f.store.ZAdd(context.Background(), scorestore.Key("g"), p, 1)
	}

	rec := do(h, http.MethodGet, "/leaderboard/g?limit=ten", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if decodeError(t, rec).Code != "invalid_limit" {
		t.Fatalf("unexpected error code: %s", rec.Body.String())
	}

	var got []core.Entry
	rec = do(h, http.MethodGet, "/leaderboard/g?limit=50", "")
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if len(got) != 2 {
		t.Fatalf("expected limit capped at 2, got %d", len(got))
	}

	rec = do(h, http.MethodGet, "/leaderboard/g?limit=0", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected [] for zero limit, got %q", rec.Body.String())
	}
}

func TestSubmitScoreValidation(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler(t, Options{})

	cases := map[string]string{
		"bad json":      `{"game_id":`,
		"missing score": `{"game_id":"g1","player_name":"Zoe"}`,
		"empty player":  `{"game_id":"g1","player_name":"  ","score":1}`,
		"empty game":    `{"game_id":"","player_name":"Zoe","score":1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/submit-score", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestSubmitScoreUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.deps.Leaderboard = leaderboard.NewService(scorestore.Disabled())
	f.deps.Store = nil
	h := f.handler(t, Options{})

	rec := do(h, http.MethodPost, "/submit-score", `{"game_id":"g1","player_name":"Zoe","score":1}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Message; msg != "Leaderboard service unavailable (Missing Credentials)" {
		t.Fatalf("unexpected message %q", msg)
	}

	rec = do(h, http.MethodGet, "/leaderboard/g1", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("disabled leaderboard must read as empty, got %d %q", rec.Code, rec.Body.String())
	}
}

type failingStore struct{}

func (failingStore) Enabled() bool { return true }
func (failingStore) Submit(context.Context, core.GameID, string, float64) error {
	return errors.New("connection reset")
}
func (failingStore) Top(context.Context, core.GameID, int) []core.Entry { return []core.Entry{} }

func TestSubmitScoreStoreFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.deps.Leaderboard = leaderboard.NewService(failingStore{})
	h := f.handler(t, Options{})

	rec := do(h, http.MethodPost, "/submit-score", `{"game_id":"g1","player_name":"Zoe","score":1}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Message; !strings.HasPrefix(msg, "Score submission failed: ") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestGenerateAndServeGame(t *testing.T) {
	f := newFixture(t, fakeGenerator{})
	h := f.handler(t, Options{})

	rec := do(h, http.MethodPost, "/generate-game", `{"prompt":"fractions quiz","difficulty":"easy"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res games.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.GameID == "" || res.URL != "/games/game_"+string(res.GameID)+".html" {
		t.Fatalf("unexpected result %+v", res)
	}
	if strings.Contains(string(res.GameID), "-") || len(res.GameID) != 32 {
		t.Fatalf("expected uuid hex id, got %q", res.GameID)
	}

	rec = do(h, http.MethodGet, res.URL, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store, no-cache, must-revalidate, max-age=0" {
		t.Fatalf("unexpected Cache-Control %q", cc)
	}
	if rec.Header().Get("Pragma") != "no-cache" {
		t.Fatalf("missing Pragma header")
	}
	body := rec.Body.String()
	if !strings.Contains(body, `const GAME_ID = "`+string(res.GameID)+`"`) || !strings.Contains(body, `"is_timed": true`) {
		t.Fatalf("page not stamped: %s", body)
	}

	if n := f.stats.GamesGenerated(time.Now().UTC().Format(time.DateOnly)); n != 1 {
		t.Fatalf("expected generated game counted, got %d", n)
	}
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture(t, fakeGenerator{})
	h := f.handler(t, Options{})
	rec := do(h, http.MethodPost, "/generate-game", `{"prompt":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty prompt, got %d", rec.Code)
	}

	f = newFixture(t, nil)
	h = f.handler(t, Options{})
	rec = do(h, http.MethodPost, "/generate-game", `{"prompt":"quiz"}`)
	if rec.Code != http.StatusInternalServerError || decodeError(t, rec).Code != "generator_unavailable" {
		t.Fatalf("expected generator_unavailable 500, got %d %s", rec.Code, rec.Body.String())
	}

	f = newFixture(t, fakeGenerator{err: errors.New("quota exceeded")})
	h = f.handler(t, Options{})
	rec = do(h, http.MethodPost, "/generate-game", `{"prompt":"quiz"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPublishGame(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler(t, Options{})

	rec := do(h, http.MethodPost, "/publish-game", `{"html_content":"<html></html>"}`)
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Message != "Invalid HTML content" {
		t.Fatalf("expected invalid html 400, got %d %s", rec.Code, rec.Body.String())
	}

	page := `<!DOCTYPE html><html><script>const GAME_ID = "orig";</script></html>`
	payload, _ := json.Marshal(map[string]string{"html_content": page})
	rec = do(h, http.MethodPost, "/publish-game", string(payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res games.Result
	_ = json.Unmarshal(rec.Body.Bytes(), &res)

	rec = do(h, http.MethodGet, res.URL, "")
	if rec.Body.String() != page {
		t.Fatalf("published page changed: %q", rec.Body.String())
	}
}

func TestServeGameNotFound(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler(t, Options{})

	for _, p := range []string{"/games/game_missing.html", "/games/index.html"} {
		rec := do(h, http.MethodGet, p, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, rec.Code)
		}
		if msg := decodeError(t, rec).Message; msg != "Game not found or expired. Please generate a new one." {
			t.Fatalf("unexpected message %q", msg)
		}
	}
}

func TestIndexAndStatic(t *testing.T) {
	f := newFixture(t, nil)

	rec := do(f.handler(t, Options{}), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<h1>AI Game Generator</h1>") {
		t.Fatalf("expected fallback page, got %d %q", rec.Code, rec.Body.String())
	}

	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>landing</p>"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644)
	h := f.handler(t, Options{StaticDir: dir, PathPrefix: "/api"})

	rec = do(h, http.MethodGet, "/api/", "")
	if !strings.Contains(rec.Body.String(), "landing") {
		t.Fatalf("expected static index, got %q", rec.Body.String())
	}
	rec = do(h, http.MethodGet, "/api/static/app.js", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "console.log(1)" {
		t.Fatalf("expected static asset, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, fakeGenerator{})
	rec := do(f.handler(t, Options{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Fatalf("expected healthy, got %d %s", rec.Code, rec.Body.String())
	}

	f.deps.Store = fakePinger{err: errors.New("timeout")}
	rec = do(f.handler(t, Options{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for unreachable store, got %d", rec.Code)
	}

	f = newFixture(t, nil)
	f.deps.Leaderboard = leaderboard.NewService(nil)
	rec = do(f.handler(t, Options{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"leaderboard":"disabled"`) {
		t.Fatalf("disabled leaderboard is degraded, not down: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler(t, Options{})
	_ = do(h, http.MethodPost, "/submit-score", `{"game_id":"g1","player_name":"Zoe","score":10}`)

	rec := do(h, http.MethodGet, "/stats", "")
	var s analytics.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.ScoresSubmitted != 1 || len(s.MostPlayed) != 1 || s.MostPlayed[0].BestScore != 10 {
		t.Fatalf("unexpected summary %+v", s)
	}

	if rec := do(h, http.MethodGet, "/stats?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	f := newFixture(t, fakeGenerator{})
	h := f.handler(t, Options{APIKeys: []string{"secret"}, AllowCORSOrigin: "*"})

	rec := do(h, http.MethodPost, "/generate-game", `{"prompt":"quiz"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = do(h, http.MethodPost, "/generate-game", `{"prompt":"quiz"}`, "Authorization", "Bearer secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = do(h, http.MethodPost, "/submit-score", `{"game_id":"g1","player_name":"Zoe","score":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("score submission must stay open, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil)
	h := f.handler(t, Options{
		APIKeys:          []string{"k"},
		RateLimitEnabled: true,
		RateLimitRPM:     1,
		RateLimitBurst:   1,
	})

	rec1 := do(h, http.MethodGet, "/leaderboard/g1", "", "X-API-Key", "k")
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 first request, got %d", rec1.Code)
	}
	rec2 := do(h, http.MethodGet, "/leaderboard/g1", "", "X-API-Key", "k")
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec2.Code)
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	f := newFixture(t, nil)
	reg := prometheus.NewRegistry()
	f.deps.Registerer = reg
	h := f.handler(t, Options{})

	rec := do(h, http.MethodGet, "/leaderboard/g1", "", RequestIDHeader, "abc-123")
	if rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id not echoed")
	}
	rec = do(h, http.MethodGet, "/leaderboard/g2", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("request id not generated")
	}

	if n := testutil.CollectAndCount(reg, "gamegen_http_requests_total"); n != 1 {
		t.Fatalf("expected one route series, got %d", n)
	}

	if _, err := NewRouter(f.deps, Options{}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	f := newFixture(t, nil)
	rec := do(f.handler(t, Options{}), http.MethodGet, "/nope", "")
	if rec.Code != http.StatusNotFound || decodeError(t, rec).Code != "not_found" {
		t.Fatalf("expected not_found envelope, got %d %s", rec.Code, rec.Body.String())
	}
}

type flatBackend struct{ raw []string }

func (b flatBackend) ZAdd(context.Context, string, string, float64) error { return nil }

func (b flatBackend) ZRevRangeWithScores(context.Context, string, int64, int64) (any, error) {
	return b.raw, nil
}

func TestLeaderboardSkipsInfiniteScores(t *testing.T) {
	f := newFixture(t, fakeGenerator{})
	f.deps.Leaderboard = leaderboard.NewService(scorestore.New(flatBackend{raw: []string{"x", "inf", "a", "300"}}))
	h := f.handler(t, Options{})

	rec := do(h, http.MethodGet, "/leaderboard/g1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var entries []core.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("body not a JSON array: %q", rec.Body.String())
	}
	if len(entries) != 1 || entries[0].Name != "a" || entries[0].Score != 300 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestWriteJSONReportsEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, []core.Entry{{Name: "x", Score: math.Inf(1)}})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != "encode_failed" {
		t.Fatalf("unexpected error %+v", e)
	}
}
