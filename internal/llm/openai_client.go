package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stayline/concierge/pkg/logging"
)

// Config describes how to reach the OpenAI-compatible completion endpoint.
// Perplexity exposes the same wire format, so pointing BaseURL at
// api.perplexity.ai works unchanged.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type chatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient produces completions against an OpenAI-compatible provider.
type OpenAIClient struct {
	api     chatAPI
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewOpenAIClient validates the configuration and returns a ready client.
func NewOpenAIClient(cfg Config, logger *logging.Logger) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: API key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	return &OpenAIClient{
		api:     openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete sends the request and returns the first choice, trimmed.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: provider returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ Client = (*OpenAIClient)(nil)
