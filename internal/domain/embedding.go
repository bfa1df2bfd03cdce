package domain

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxInputWords is the word budget applied before text reaches the embedding provider.
// Sits below the 8191-token limit of text-embedding-ada-002.
const DefaultMaxInputWords = 8000

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text for providers without a native batch endpoint.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// ZeroVector returns an all-zero vector of the given dimensionality.
func ZeroVector(dim int) []float32 {
	return make([]float32, dim)
}

// TruncateWords keeps the first maxWords whitespace-delimited words of text.
// Text within budget is returned unchanged; maxWords <= 0 disables truncation.
func TruncateWords(text string, maxWords int) string {
	if maxWords <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	return strings.Join(words[:maxWords], " ")
}

// TruncatingEmbedder is a domain decorator that enforces the provider input budget.
// Word count approximates the provider's tokenizer.
type TruncatingEmbedder struct {
	inner    Embedder
	maxWords int
}

// NewTruncatingEmbedder creates a decorator that truncates input to maxWords words.
func NewTruncatingEmbedder(inner Embedder, maxWords int) *TruncatingEmbedder {
	return &TruncatingEmbedder{inner: inner, maxWords: maxWords}
}

// Embed truncates text and delegates to the inner embedder.
func (e *TruncatingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, TruncateWords(text, e.maxWords))
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("truncating embed: %w", err)
	}
	return result, nil
}

// BatchEmbed truncates each text and delegates to the inner BatchEmbedder.
// Falls back to per-text Embed when inner has no batch support.
func (e *TruncatingEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = TruncateWords(t, e.maxWords)
	}

	if be, ok := e.inner.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, truncated)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("truncating batch embed: %w", err)
		}
		return res, nil
	}

	res, err := BatchFallback(ctx, e.inner, truncated)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("truncating batch embed fallback: %w", err)
	}
	return res, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (e *TruncatingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
