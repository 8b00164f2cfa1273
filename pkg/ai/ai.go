package ai

import "context"

// EmbeddingClient defines the interface for embedding providers. Implementations
// turn a piece of text into a fixed-dimension vector.
//
// The input is provided as a byte slice and converted to a string before being
// sent to the embedding model.
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error)
}

// EmbeddingBatcher is an optional fast path implemented by clients that can
// embed multiple inputs in a single provider request.
type EmbeddingBatcher interface {
	GenerateEmbeddings(ctx context.Context, inputs [][]byte) ([][]float32, error)
}
