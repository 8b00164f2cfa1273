package ollama

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const requestTimeout = 2 * time.Minute

// GenerateEmbedding creates a vector embedding for the given input text using
// the configured embedding model on Ollama.
//
// The vector is returned exactly as the model produced it; callers validate
// the dimension against their schema.
func (c *EmbeddingOllamaClient) GenerateEmbedding(
	ctx context.Context,
	input []byte,
) ([]float32, error) {
	if len(input) == 0 || len(strings.TrimSpace(string(input))) == 0 {
		return make([]float32, c.dimensions), nil
	}

	rCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: string(input),
	}

	err := c.reqLock.Acquire(rCtx, 1)
	if err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	res, err := c.Client.Embed(rCtx, req)
	if err != nil {
		return nil, err
	}

	if len(res.Embeddings) == 0 || len(res.Embeddings[0]) == 0 {
		return nil, errors.New("ollama returned no embedding")
	}
	vec := res.Embeddings[0]
	out := make([]float32, len(vec))
	for i, val := range vec {
		out[i] = float32(val)
	}
	return out, nil
}
