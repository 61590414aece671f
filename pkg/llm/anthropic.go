package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

var _ Generator = (*AnthropicClient)(nil)

// Config holds configuration for creating a provider client.
type Config struct {
	BaseURL   string // optional override, e.g. a test server
	Model     string
	APIKey    string
	MaxTokens int
}

// NewAnthropicClient creates a client for the Anthropic Messages API.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")))
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("anthropic"),
	}, nil
}

// Generate sends prompt as a single user message.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (*Response, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Int("max_tokens", c.maxTokens))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		if isContextErr(err) || ctx.Err() != nil {
			return nil, fmt.Errorf("anthropic request: %w", errors.Join(ctx.Err(), err))
		}
		llmErr := c.classify(err)
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error_type", string(llmErr.Type)),
			zap.Int("status", llmErr.StatusCode))
		return nil, llmErr
	}

	text := firstText(resp)

	c.logger.Info("LLM request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		Text:         text,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		StopReason:   string(resp.StopReason),
	}, nil
}

func (c *AnthropicClient) Model() string    { return c.model }
func (c *AnthropicClient) Provider() string { return "anthropic" }

// classify maps go-anthropic errors onto the ErrorType taxonomy.
func (c *AnthropicClient) classify(err error) *Error {
	var llmErr *Error

	var apiErr *anthropic.APIError
	var reqErr *anthropic.RequestError
	switch {
	case errors.As(err, &apiErr):
		switch {
		case apiErr.IsRateLimitErr():
			llmErr = classifyStatus(429, err)
		case apiErr.IsAuthenticationErr():
			llmErr = classifyStatus(401, err)
		case apiErr.IsPermissionErr():
			llmErr = classifyStatus(403, err)
		case apiErr.IsOverloadedErr():
			llmErr = classifyStatus(529, err)
		case apiErr.IsApiErr():
			llmErr = classifyStatus(500, err)
		case apiErr.IsInvalidRequestErr(), apiErr.IsNotFoundErr(), apiErr.IsTooLargeErr():
			llmErr = classifyStatus(400, err)
		default:
			llmErr = NewError(ErrorTypeUnknown, messageFor(ErrorTypeUnknown), err)
		}
	case errors.As(err, &reqErr) && reqErr.StatusCode > 0:
		llmErr = classifyStatus(reqErr.StatusCode, err)
	default:
		llmErr = classifyFallback(err)
	}

	llmErr.Provider = c.Provider()
	llmErr.Model = c.model
	return llmErr
}

// firstText returns the first text block of the reply.
func firstText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
