package upstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamegen/core"
)

// Config holds the REST endpoint and token of an Upstash (or Vercel KV)
// database.
type Config struct {
	URL     string        `json:"url" yaml:"url" env:"KV_REST_API_URL"`
	Token   string        `json:"token" yaml:"token" env:"KV_REST_API_TOKEN"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" env:"KV_REST_API_TIMEOUT"`
}

// Configured reports whether both credentials are present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.Token) != ""
}

// Client sends Redis commands over the Upstash REST API. Each command is a
// JSON array POSTed to the base URL.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New returns core.ErrConfigurationMissing when the URL or token is empty.
func New(cfg Config, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, core.ErrConfigurationMissing
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// Do runs one command and returns its decoded result. Numbers stay as
// json.Number so scores survive untouched.
func (c *Client) Do(ctx context.Context, args ...any) (any, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out response
	if err := json.Unmarshal(payload, &out); err != nil {
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			return nil, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(payload)))
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%s: %s", commandName(args), out.Error)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	if len(out.Result) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(out.Result))
	dec.UseNumber()
	var result any
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}

func commandName(args []any) string {
	if len(args) == 0 {
		return "command"
	}
	return fmt.Sprint(args[0])
}

// Ping checks credentials and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Do(ctx, "PING"); err != nil {
		return fmt.Errorf("failed to ping upstash: %w", err)
	}
	return nil
}

// ZAdd upserts member with score.
func (c *Client) ZAdd(ctx context.Context, key, member string, score float64) error {
	if _, err := c.Do(ctx, "ZADD", key, strconv.FormatFloat(score, 'g', -1, 64), member); err != nil {
		return fmt.Errorf("failed to add score: %w", err)
	}
	return nil
}

// ZRevRangeWithScores returns the REST API's flat [member, score, ...] list.
func (c *Client) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) (any, error) {
	res, err := c.Do(ctx, "ZREVRANGE", key, start, stop, "WITHSCORES")
	if err != nil {
		return nil, fmt.Errorf("failed to range scores: %w", err)
	}
	if res == nil {
		return []any{}, nil
	}
	return res, nil
}

// SetString stores value with an optional expiry in whole seconds.
func (c *Client) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	args := []any{"SET", key, value}
	if secs := int64(ttl / time.Second); secs > 0 {
		args = append(args, "EX", secs)
	}
	if _, err := c.Do(ctx, args...); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// GetString returns core.ErrKeyNotFound for a null result.
func (c *Client) GetString(ctx context.Context, key string) (string, error) {
	res, err := c.Do(ctx, "GET", key)
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	switch v := res.(type) {
	case nil:
		return "", core.ErrKeyNotFound
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
