package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Rewriter defaults.
const (
	DefaultChatModel   = openai.GPT3Dot5Turbo
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.3
)

// RewriterConfig holds the chat completion settings for query enhancement.
type RewriterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Rewriter implements domain.Rewriter with the chat completions API.
type Rewriter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewRewriter creates a chat-completion query rewriter.
func NewRewriter(cfg *RewriterConfig) *Rewriter {
	r := &Rewriter{
		client:      openai.NewClientWithConfig(clientConfig(cfg.APIKey, cfg.BaseURL, cfg.Timeout)),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
	if r.model == "" {
		r.model = DefaultChatModel
	}
	if r.maxTokens <= 0 {
		r.maxTokens = DefaultMaxTokens
	}
	if r.temperature <= 0 {
		r.temperature = DefaultTemperature
	}
	return r
}

// Rewrite sends prompt under the extraction system role and returns the trimmed reply.
func (r *Rewriter) Rewrite(ctx context.Context, prompt string) (string, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: domain.RewriterInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return "", wrapAPIError("chat", err, domain.ErrEnhancement)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices: %w", domain.ErrEnhancement)
	}

	r.logger.Debug("Query rewritten",
		zap.String("model", r.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
