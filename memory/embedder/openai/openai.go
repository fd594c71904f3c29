// Package openai provides an embedder backed by the OpenAI embeddings
// API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Default model and its output size.
const (
	DefaultModel      = string(openai.SmallEmbedding3)
	defaultDimensions = 1536
)

// Embedder calls the OpenAI embeddings endpoint.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// New creates an embedder for the given model. An empty model selects
// text-embedding-3-small.
func New(client *openai.Client, model string) *Embedder {
	if model == "" {
		model = DefaultModel
	}
	return &Embedder{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: modelDimensions(model),
	}
}

// Embed returns the embedding for one text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions returns the embedding size for the configured model.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func modelDimensions(model string) int {
	switch openai.EmbeddingModel(model) {
	case openai.LargeEmbedding3:
		return 3072
	case openai.AdaEmbeddingV2:
		return 1536
	default:
		return defaultDimensions
	}
}
