package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"gamegen/core"
)

// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Config selects the model and its sampling parameters.
type Config struct {
	APIKey      string        `json:"api_key" yaml:"api_key" env:"GEMINI_API_KEY"`
	BaseURL     string        `json:"base_url" yaml:"base_url" env:"LLM_BASE_URL"`
	Model       string        `json:"model" yaml:"model" env:"LLM_MODEL"`
	Temperature float32       `json:"temperature" yaml:"temperature" env:"LLM_TEMPERATURE"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout" env:"LLM_TIMEOUT"`
}

// DefaultConfig matches the generation settings games were tuned against.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Model:       "gemini-2.5-flash",
		Temperature: 0.5,
		MaxTokens:   16384,
		Timeout:     180 * time.Second,
	}
}

// Client generates text through any OpenAI-compatible chat API.
type Client struct {
	client *openai.Client
	cfg    Config
	logger *zap.Logger
}

// New returns core.ErrGeneratorUnavailable when no API key is configured.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, core.ErrGeneratorUnavailable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &Client{client: openai.NewClientWithConfig(oc), cfg: cfg, logger: logger}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.cfg.Model }

// Generate sends prompt as a single user message and returns the trimmed
// completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", core.ErrGeneratorUnavailable
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", c.cfg.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.cfg.Model)
	}

	choice := resp.Choices[0]
	if choice.FinishReason != openai.FinishReasonStop && choice.FinishReason != "" {
		c.logger.Warn("generation stopped early",
			zap.String("model", c.cfg.Model),
			zap.String("finish_reason", string(choice.FinishReason)))
	}
	c.logger.Debug("generation finished",
		zap.String("model", c.cfg.Model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	text := strings.TrimSpace(choice.Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s returned no text (finish reason %q)", c.cfg.Model, choice.FinishReason)
	}
	return text, nil
}

// ListModels returns the model ids the key can use.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}
