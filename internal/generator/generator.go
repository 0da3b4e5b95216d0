// Package generator talks to an OpenAI-compatible chat completion endpoint
// (Groq by default) through langchaingo.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"daily-streak/internal/apperr"
)

// ErrDisabled is returned by a client built without an API key.
var ErrDisabled = errors.New("completion generator disabled")

// Prompt is a system instruction plus the user message.
type Prompt struct {
	System string
	User   string
}

// Config selects the endpoint and sampling settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client wraps an llms.Model with fixed call options.
type Client struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
}

// New builds a client for cfg. Without an API key the client is disabled and
// every Complete call fails with ErrDisabled.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return &Client{}, nil
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}
	return NewWithModel(llm, cfg.Temperature, cfg.MaxTokens), nil
}

// NewWithModel wraps an existing model.
func NewWithModel(llm llms.Model, temperature float64, maxTokens int) *Client {
	return &Client{llm: llm, temperature: temperature, maxTokens: maxTokens}
}

// Enabled reports whether the client can reach a model.
func (c *Client) Enabled() bool {
	return c != nil && c.llm != nil
}

// Complete sends p and returns the text of the first choice. Failures are
// classified as apperr.Upstream.
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	if !c.Enabled() {
		return "", apperr.Wrap(apperr.Upstream, "complete", ErrDisabled)
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, p.System),
		llms.TextParts(schema.ChatMessageTypeHuman, p.User),
	}
	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens),
	)
	if err != nil {
		return "", apperr.Wrap(apperr.Upstream, "complete", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", apperr.New(apperr.Upstream, "complete", "empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
