package services

import (
	"context"
)

// PromptMessage is one entry in the ordered message list sent to the
// generator. Role is one of models.RoleUser/RoleAssistant/RoleSystem.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder maps text to fixed-dimension dense vectors. Both methods must
// return vectors of config.EmbeddingDim components.
type Embedder interface {
	// Embed returns the embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, order-preserving and
	// the same length as the input. Ingest relies on this being a single
	// upstream request: one call per chunk would multiply external API
	// latency by the chunk count.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a completion for an ordered message list.
type Generator interface {
	Generate(ctx context.Context, messages []PromptMessage) (string, error)
}
