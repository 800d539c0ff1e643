package sessionagent

import (
	"context"
	"hash/fnv"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder embeds text via an OpenAI-compatible embeddings
// endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an OpenAIEmbedder using the given API key
// and embedding model.
func NewOpenAIEmbedder(apiKey string, model openai.EmbeddingModel) *OpenAIEmbedder {
	return &OpenAIEmbedder{client: openai.NewClient(apiKey), model: model}
}

// Embed calls the embeddings endpoint for a single input string.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Embedding, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// HashEmbedder is a zero-dependency, deterministic stand-in for tests
// and offline operation: it hashes overlapping trigrams of the input
// into a fixed-width vector. It carries no semantic meaning but
// satisfies the Embedder contract for exercising the memory pipeline
// without a live model endpoint.
type HashEmbedder struct {
	Dimension int
}

// NewHashEmbedder creates a HashEmbedder with the given vector width.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 64
	}
	return &HashEmbedder{Dimension: dimension}
}

// Embed deterministically hashes text into a Dimension-wide vector.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dimension)
	if len(text) == 0 {
		return vec, nil
	}
	for i := 0; i < len(text); i++ {
		end := i + 3
		if end > len(text) {
			end = len(text)
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(text[i:end]))
		idx := int(h.Sum32()) % e.Dimension
		if idx < 0 {
			idx += e.Dimension
		}
		vec[idx]++
	}
	return vec, nil
}

var _ Embedder = (*HashEmbedder)(nil)
