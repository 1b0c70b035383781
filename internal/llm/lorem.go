package llm

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	loremgen "github.com/bozaro/golorem"

	"docchat/internal/config"
	"docchat/internal/domain/services"
)

// LoremProvider is a mock provider for development and testing without real
// API keys. Answers are lorem ipsum; embeddings are deterministic hashes of
// the input words, so identical texts always land on identical vectors and
// texts sharing vocabulary land near each other. Good enough to exercise
// the retrieval path end to end.
type LoremProvider struct {
	generator *loremgen.Lorem
	dim       int
}

// NewLoremProvider creates the mock provider.
func NewLoremProvider() *LoremProvider {
	return &LoremProvider{
		generator: loremgen.New(),
		dim:       config.EmbeddingDim,
	}
}

var (
	_ services.Embedder  = (*LoremProvider)(nil)
	_ services.Generator = (*LoremProvider)(nil)
)

// Embed produces a deterministic unit vector from the text's words.
func (p *LoremProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float64, p.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New64a()
		h.Write([]byte(word))
		sum := h.Sum64()
		// Spread each word over a handful of dimensions.
		for i := 0; i < 8; i++ {
			idx := int((sum >> (i * 8)) & 0xff)
			idx = idx % p.dim
			sign := 1.0
			if (sum>>(i*8+7))&1 == 1 {
				sign = -1.0
			}
			vec[idx] += sign
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, p.dim)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text in order.
func (p *LoremProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Generate returns a short lorem ipsum answer regardless of the prompt.
func (p *LoremProvider) Generate(ctx context.Context, messages []services.PromptMessage) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	var sb strings.Builder
	for i := 0; i < 3; i++ {
		sb.WriteString(p.generator.Sentence(8, 15))
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String()), nil
}
