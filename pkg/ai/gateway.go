package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seethb/GraphRAG/pkg/logger"
)

// ErrUnavailable is returned by Embed when no provider is configured or the
// provider call failed. Callers that can live without a vector should use
// TryEmbed instead.
var ErrUnavailable = errors.New("embedding unavailable")

// Gateway wraps an EmbeddingClient behind the semantics the graph store needs:
// inputs are whitespace-normalized, empty inputs yield no vector rather than a
// provider round-trip, and vectors are checked against the configured
// dimension. A Gateway is constructed once per process and injected into the
// components that need it.
type Gateway struct {
	client EmbeddingClient
	model  string
	dim    int
}

// GatewayParams contains configuration for creating a Gateway.
type GatewayParams struct {
	Client     EmbeddingClient
	Model      string
	Dimensions int
}

// NewGateway creates a new embedding gateway. A nil Client produces a disabled
// gateway whose Embed always fails and whose TryEmbed always returns nil.
func NewGateway(params GatewayParams) *Gateway {
	return &Gateway{
		client: params.Client,
		model:  params.Model,
		dim:    params.Dimensions,
	}
}

// Enabled reports whether an embedding provider is configured.
func (g *Gateway) Enabled() bool {
	return g != nil && g.client != nil
}

// Model returns the configured embedding model name.
func (g *Gateway) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Dimensions returns the vector dimension the gateway expects from its provider.
func (g *Gateway) Dimensions() int {
	if g == nil {
		return 0
	}
	return g.dim
}

// NormalizeInput collapses all runs of whitespace (including newlines) into
// single spaces and trims the result.
func NormalizeInput(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Embed generates a vector for the given text. It returns (nil, nil) when the
// text is empty after normalization, and an error wrapping ErrUnavailable when
// no provider is configured or the provider call fails.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if !g.Enabled() {
		return nil, fmt.Errorf("%w: no provider configured", ErrUnavailable)
	}

	normalized := NormalizeInput(text)
	if normalized == "" {
		return nil, nil
	}

	embedding, err := g.client.GenerateEmbedding(ctx, []byte(normalized))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if g.dim > 0 && len(embedding) != g.dim {
		return nil, fmt.Errorf("%w: provider returned %d dimensions, want %d", ErrUnavailable, len(embedding), g.dim)
	}
	return embedding, nil
}

// TryEmbed is the non-fatal variant used by ingestion and backfill: any
// failure is logged and mapped to nil, so callers store the row without an
// embedding instead of aborting their batch.
func (g *Gateway) TryEmbed(ctx context.Context, text string) []float32 {
	embedding, err := g.Embed(ctx, text)
	if err != nil {
		logger.Debug("Embedding skipped", "err", err)
		return nil
	}
	return embedding
}

// BatchCapable reports whether the provider can embed multiple inputs in a
// single request.
func (g *Gateway) BatchCapable() bool {
	if !g.Enabled() {
		return false
	}
	_, ok := g.client.(EmbeddingBatcher)
	return ok
}

// TryEmbedBatch embeds texts in one provider request. The result always has
// len(texts) entries; empty texts, a failed request, and vectors with the
// wrong dimension all map to nil entries. Providers without batch support get
// sequential TryEmbed calls.
func (g *Gateway) TryEmbedBatch(ctx context.Context, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	if !g.Enabled() {
		return out
	}

	batcher, ok := g.client.(EmbeddingBatcher)
	if !ok {
		for i, text := range texts {
			out[i] = g.TryEmbed(ctx, text)
		}
		return out
	}

	inputs := make([][]byte, len(texts))
	hasInput := false
	for i, text := range texts {
		normalized := NormalizeInput(text)
		if normalized == "" {
			continue
		}
		inputs[i] = []byte(normalized)
		hasInput = true
	}
	if !hasInput {
		return out
	}

	embeddings, err := batcher.GenerateEmbeddings(ctx, inputs)
	if err != nil || len(embeddings) != len(texts) {
		logger.Debug("Batch embedding skipped", "err", err)
		return out
	}
	for i := range embeddings {
		if inputs[i] == nil {
			continue
		}
		if g.dim > 0 && len(embeddings[i]) != g.dim {
			continue
		}
		out[i] = embeddings[i]
	}
	return out
}
