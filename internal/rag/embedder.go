package rag

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	openai "github.com/sashabaranov/go-openai"

	"github.com/stayline/concierge/pkg/logging"
)

// Embedder maps texts to fixed-length vectors. Implementations must return
// one vector per input, all of the same dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type embeddingAPI interface {
	CreateEmbeddings(ctx context.Context, request openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder produces embeddings through an OpenAI-compatible API.
type OpenAIEmbedder struct {
	client embeddingAPI
	model  string
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder using the given model.
func NewOpenAIEmbedder(client embeddingAPI, model string) *OpenAIEmbedder {
	if client == nil {
		panic("rag: embedding client cannot be nil")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{client: client, model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, &openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("rag: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.New("rag: embedding response size mismatch")
	}

	out := make([][]float32, len(texts))
	for i, item := range resp.Data {
		out[i] = item.Embedding
	}
	return out, nil
}

// HashEmbedder derives a deterministic unit vector from the text content
// alone. Retrieval quality is keyword-level at best, but identical texts
// always land on identical vectors, which keeps the store usable when no
// embedding provider is reachable.
type HashEmbedder struct {
	dim int
}

var _ Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a hash embedder producing vectors of dim.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 384
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, e.dim)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// FallbackEmbedder tries a primary embedder and degrades to a secondary
// one when the primary fails. The secondary is typically a HashEmbedder,
// so a provider outage never blocks corpus rebuilds or queries.
type FallbackEmbedder struct {
	primary   Embedder
	secondary Embedder
	logger    *logging.Logger
}

var _ Embedder = (*FallbackEmbedder)(nil)

// NewFallbackEmbedder wires primary with a secondary safety net. A nil
// primary means the secondary is used directly.
func NewFallbackEmbedder(primary, secondary Embedder, logger *logging.Logger) *FallbackEmbedder {
	if secondary == nil {
		panic("rag: secondary embedder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackEmbedder{primary: primary, secondary: secondary, logger: logger}
}

func (e *FallbackEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if e.primary != nil {
		vecs, err := e.primary.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		e.logger.Warn("primary embedder failed, using fallback", "error", err, "texts", len(texts))
	}
	return e.secondary.Embed(ctx, texts)
}
