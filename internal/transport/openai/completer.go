package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lorehub/lore/internal/domain"
	"github.com/lorehub/lore/internal/metrics"
)

const kindCompletion = "completion"

// Completer is a chat completion provider using the OpenAI-compatible API.
type Completer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete implements domain.Completer with one chat round-trip.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserPrompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)

	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(kindCompletion, c.model, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(kindCompletion, c.model, "api_error").Inc()
		if c.logger != nil {
			c.logger.Warn("completion request failed",
				zap.String("model", c.model),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
		}
		return domain.CompletionResult{}, parseAPIError(kindCompletion, err, domain.ErrCompletionProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(kindCompletion, c.model, "error").Inc()
		metrics.ProviderErrorsTotal.WithLabelValues(kindCompletion, c.model, "empty_response").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(kindCompletion, c.model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(kindCompletion, c.model).Observe(duration.Seconds())

	usage := resp.Usage
	if usage.TotalTokens > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(kindCompletion, c.model, "prompt").Add(float64(usage.PromptTokens))
		metrics.ProviderTokensTotal.WithLabelValues(kindCompletion, c.model, "total").Add(float64(usage.TotalTokens))
	}

	return domain.CompletionResult{
		Text:         resp.Choices[0].Message.Content,
		PromptTokens: usage.PromptTokens,
		TotalTokens:  usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
