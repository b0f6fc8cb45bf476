package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"gamegen/core"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the game generator HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8000).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: &http.Client{Timeout: 200 * time.Second},
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client. Generation can take minutes;
// keep the timeout generous.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// GenerateGame asks the server to build a new game.
func (c *Client) GenerateGame(ctx context.Context, req GenerateRequest) (GameResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return GameResult{}, ErrEmptyPrompt
	}
	var res GameResult
	err := c.postJSON(ctx, "/generate-game", req, &res)
	return res, err
}

// PublishGame stores an edited page and returns its new location.
func (c *Client) PublishGame(ctx context.Context, html string) (GameResult, error) {
	var res GameResult
	err := c.postJSON(ctx, "/publish-game", map[string]string{"html_content": html}, &res)
	return res, err
}

// FetchGame downloads a stored page by id.
func (c *Client) FetchGame(ctx context.Context, gameID string) (string, error) {
	if strings.TrimSpace(gameID) == "" {
		return "", ErrEmptyGameID
	}
	resp, err := c.do(ctx, http.MethodGet, "/games/game_"+url.PathEscape(gameID)+".html", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

// SubmitScore records a player's score on a game leaderboard.
func (c *Client) SubmitScore(ctx context.Context, gameID, player string, score float64) error {
	if strings.TrimSpace(gameID) == "" {
		return ErrEmptyGameID
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.postJSON(ctx, "/submit-score", map[string]any{
		"game_id":     gameID,
		"player_name": player,
		"score":       score,
	}, &body); err != nil {
		return err
	}
	if body.Status != "success" {
		return fmt.Errorf("unexpected status %q", body.Status)
	}
	return nil
}

// Leaderboard returns the top entries of a game, best first. A limit of
// zero uses the server default.
func (c *Client) Leaderboard(ctx context.Context, gameID string, limit int) ([]core.Entry, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, ErrEmptyGameID
	}
	path := "/leaderboard/" + url.PathEscape(gameID)
	if limit != 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	entries := []core.Entry{}
	if err := decodeJSON(resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Health probes /healthz. A 503 still decodes: the body says which check failed.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil {
		return HealthStatus{}, fmt.Errorf("decode health: %w", err)
	}
	return hs, nil
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values,
// optionally only those of one game. The returned channel closes when ctx is
// done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, gameID string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if gameID != "" {
		target += "?game_id=" + url.QueryEscape(gameID)
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case out <- evt:
			default:
				// drop if consumer is slow
			}
		}
	}()
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)
	return c.httpClient.Do(req)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
