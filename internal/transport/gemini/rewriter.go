// Package gemini implements query rewriting on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel       = "gemini-2.0-flash"
	defaultMaxTokens   = 500
	defaultTemperature = 0.3
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the Gemini rewriter settings.
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int
	Logger    *zap.Logger
}

// Rewriter implements domain.Rewriter.
type Rewriter struct {
	models    contentGenerator
	model     string
	maxTokens int32
	logger    *zap.Logger
}

// NewRewriter creates a Gemini API client and wraps it as a rewriter.
func NewRewriter(ctx context.Context, cfg *Config) (*Rewriter, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key: %w", domain.ErrProviderNotConfigured)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newRewriter(client.Models, cfg), nil
}

func newRewriter(models contentGenerator, cfg *Config) *Rewriter {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Rewriter{models: models, model: model, maxTokens: int32(maxTokens), logger: cfg.Logger}
}

// Rewrite returns the concatenated text parts of the first response.
func (r *Rewriter) Rewrite(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("empty prompt: %w", domain.ErrEnhancement)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(domain.RewriterInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](defaultTemperature),
		MaxOutputTokens:   r.maxTokens,
	}

	resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("gemini API error %d %s: %w", apiErr.Code, apiErr.Status, domain.ErrEnhancement)
		}
		return "", fmt.Errorf("generate content: %w: %w", domain.ErrEnhancement, err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		break
	}

	output := builder.String()
	if output == "" {
		return "", fmt.Errorf("gemini returned empty response: %w", domain.ErrEnhancement)
	}

	r.logger.Debug("Query rewritten", zap.String("model", r.model), zap.Int("chars", len(output)))
	return output, nil
}
